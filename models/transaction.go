package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is an income or expense record owned by one user.
// There is no update operation: transactions are created and deleted only.
type Transaction struct {
	ID          int64           `json:"id"`
	User        string          `json:"user"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        string          `json:"kind"`
	Date        string          `json:"date"`
	Color       string          `json:"color"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// CreateTransactionRequest is the body of POST /transactions.
type CreateTransactionRequest struct {
	User        string       `json:"user,omitempty"`
	Description string       `json:"description"`
	Amount      DecimalInput `json:"amount"`
	Kind        string       `json:"kind"`
	Date        string       `json:"date"`
	// Color is accepted for compatibility and ignored.
	Color string `json:"color,omitempty"`

	// CalendarTitle requests a mirrored calendar event when non-empty.
	CalendarTitle string `json:"calendarTitle,omitempty"`
	// EventColor overrides the owner's preferred event color for the mirror.
	EventColor string `json:"eventColor,omitempty"`
}
