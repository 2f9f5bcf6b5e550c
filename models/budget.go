package models

import "github.com/shopspring/decimal"

// BudgetLine is a planned amount for one category in one month.
type BudgetLine struct {
	ID       int64           `json:"id"`
	User     string          `json:"user"`
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Month    int             `json:"month"`
	Year     int             `json:"year"`
}

// CreateBudgetRequest is the body of POST /budget.
type CreateBudgetRequest struct {
	User     string       `json:"user,omitempty"`
	Category string       `json:"category"`
	Amount   DecimalInput `json:"amount"`
	Month    int          `json:"month"`
	Year     int          `json:"year"`
}
