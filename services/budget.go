package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"ourlife/backend/models"
)

// BudgetService stores planned monthly amounts per category.
type BudgetService struct {
	db *sql.DB
}

func NewBudgetService(db *sql.DB) *BudgetService {
	return &BudgetService{db: db}
}

// Add records a budget line for req.User.
func (s *BudgetService) Add(ctx context.Context, req models.CreateBudgetRequest) (models.BudgetLine, error) {
	if strings.TrimSpace(req.User) == "" {
		return models.BudgetLine{}, invalid("user", "is required")
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		return models.BudgetLine{}, invalid("category", "must not be empty")
	}
	amount, err := validateAmount(req.Amount, true)
	if err != nil {
		return models.BudgetLine{}, err
	}
	if req.Month < 1 || req.Month > 12 {
		return models.BudgetLine{}, invalid("month", "must be between 1 and 12")
	}
	if req.Year < 1970 || req.Year > 9999 {
		return models.BudgetLine{}, invalid("year", "is out of range")
	}

	exists, err := userExists(ctx, s.db, req.User)
	if err != nil {
		return models.BudgetLine{}, storageErr("add budget line", err)
	}
	if !exists {
		return models.BudgetLine{}, fmt.Errorf("user %q: %w", req.User, ErrNotFound)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO budget_lines (owner, category, amount, month, year) VALUES (?, ?, ?, ?, ?)
	`, req.User, category, amount.String(), req.Month, req.Year)
	if err != nil {
		return models.BudgetLine{}, storageErr("add budget line", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.BudgetLine{}, storageErr("add budget line", err)
	}

	return models.BudgetLine{
		ID:       id,
		User:     req.User,
		Category: category,
		Amount:   amount,
		Month:    req.Month,
		Year:     req.Year,
	}, nil
}

// List returns the budget lines of owners for one month. A zero month or year
// matches every period.
func (s *BudgetService) List(ctx context.Context, owners []string, month, year int) ([]models.BudgetLine, error) {
	where, args := ownerFilter("owner", owners)
	if month != 0 {
		where += " AND month = ?"
		args = append(args, month)
	}
	if year != 0 {
		where += " AND year = ?"
		args = append(args, year)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, category, amount, month, year
		FROM budget_lines WHERE `+where+` ORDER BY year, month, owner, category, id`, args...)
	if err != nil {
		return nil, storageErr("list budget lines", err)
	}
	defer rows.Close()

	lines := []models.BudgetLine{}
	for rows.Next() {
		var b models.BudgetLine
		if err := rows.Scan(&b.ID, &b.User, &b.Category, &b.Amount, &b.Month, &b.Year); err != nil {
			return nil, storageErr("list budget lines", err)
		}
		lines = append(lines, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list budget lines", err)
	}
	return lines, nil
}
