package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"ourlife/backend/models"
	"ourlife/backend/security"
)

const (
	maxCycleLength  = 90
	maxSymptomsSize = 2000
	dayLayout       = "2006-01-02"
)

// PeriodService records cycle history. Symptoms are encrypted at rest with
// the same cipher as profile contact fields.
type PeriodService struct {
	db     *sql.DB
	cipher *security.Cipher
}

// NewPeriodService creates a period service over db.
func NewPeriodService(db *sql.DB, cipher *security.Cipher) *PeriodService {
	return &PeriodService{db: db, cipher: cipher}
}

// Add records a cycle for req.User. EndDate may be empty for a cycle still in
// progress.
func (s *PeriodService) Add(ctx context.Context, req models.CreatePeriodRequest) (models.PeriodCycle, error) {
	if strings.TrimSpace(req.User) == "" {
		return models.PeriodCycle{}, invalid("user", "is required")
	}
	start, err := time.Parse(dayLayout, strings.TrimSpace(req.StartDate))
	if err != nil {
		return models.PeriodCycle{}, invalid("startDate", "must be a date like 2025-07-01")
	}
	var endDate string
	if v := strings.TrimSpace(req.EndDate); v != "" {
		end, err := time.Parse(dayLayout, v)
		if err != nil {
			return models.PeriodCycle{}, invalid("endDate", "must be a date like 2025-07-05")
		}
		if end.Before(start) {
			return models.PeriodCycle{}, invalid("endDate", "must not be before startDate")
		}
		endDate = end.Format(dayLayout)
	}
	if req.CycleLength < 1 || req.CycleLength > maxCycleLength {
		return models.PeriodCycle{}, invalid("cycleLength", fmt.Sprintf("must be between 1 and %d days", maxCycleLength))
	}
	symptoms := strings.TrimSpace(req.Symptoms)
	if len(symptoms) > maxSymptomsSize {
		return models.PeriodCycle{}, invalid("symptoms", fmt.Sprintf("must be at most %d bytes", maxSymptomsSize))
	}

	exists, err := userExists(ctx, s.db, req.User)
	if err != nil {
		return models.PeriodCycle{}, storageErr("add period", err)
	}
	if !exists {
		return models.PeriodCycle{}, fmt.Errorf("user %q: %w", req.User, ErrNotFound)
	}

	encSymptoms, err := s.cipher.EncryptField(symptoms)
	if err != nil {
		return models.PeriodCycle{}, fmt.Errorf("failed to encrypt symptoms of %s: %w", req.User, err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO period_cycles (owner, start_date, end_date, cycle_length, symptoms) VALUES (?, ?, ?, ?, ?)
	`, req.User, start.Format(dayLayout), endDate, req.CycleLength, encSymptoms)
	if err != nil {
		return models.PeriodCycle{}, storageErr("add period", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.PeriodCycle{}, storageErr("add period", err)
	}

	var cycle models.PeriodCycle
	err = s.db.QueryRowContext(ctx, `
		SELECT id, owner, start_date, end_date, cycle_length, symptoms, created_at
		FROM period_cycles WHERE id = ?`, id).
		Scan(&cycle.ID, &cycle.User, &cycle.StartDate, &cycle.EndDate, &cycle.CycleLength, &cycle.Symptoms, &cycle.CreatedAt)
	if err != nil {
		return models.PeriodCycle{}, storageErr("add period", err)
	}
	cycle.Symptoms = s.decrypt(cycle)
	return cycle, nil
}

// List returns the cycles owned by any of owners, oldest first.
func (s *PeriodService) List(ctx context.Context, owners []string) ([]models.PeriodCycle, error) {
	where, args := ownerFilter("owner", owners)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, start_date, end_date, cycle_length, symptoms, created_at
		FROM period_cycles WHERE `+where+` ORDER BY start_date, id`, args...)
	if err != nil {
		return nil, storageErr("list periods", err)
	}
	defer rows.Close()

	cycles := []models.PeriodCycle{}
	for rows.Next() {
		var c models.PeriodCycle
		if err := rows.Scan(&c.ID, &c.User, &c.StartDate, &c.EndDate, &c.CycleLength, &c.Symptoms, &c.CreatedAt); err != nil {
			return nil, storageErr("list periods", err)
		}
		c.Symptoms = s.decrypt(c)
		cycles = append(cycles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list periods", err)
	}
	return cycles, nil
}

func (s *PeriodService) decrypt(c models.PeriodCycle) string {
	plain, err := s.cipher.DecryptField(c.Symptoms)
	if err != nil {
		log.Printf("Error decrypting symptoms of period %d: %v", c.ID, err)
		return ""
	}
	return plain
}
