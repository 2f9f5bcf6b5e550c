package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CalendarEvent is a dated entry on a user's calendar. Financial events mirror
// a transaction and carry its kind and amount.
type CalendarEvent struct {
	ID            int64            `json:"id"`
	User          string           `json:"user"`
	Title         string           `json:"title"`
	Date          string           `json:"date"`
	Financial     bool             `json:"financial"`
	Kind          string           `json:"kind,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	EventColor    string           `json:"eventColor"`
	TransactionID *int64           `json:"transactionId,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// CreateEventRequest is the body of POST /calendar. When Financial is set the
// request also creates the transaction the event mirrors.
type CreateEventRequest struct {
	User        string       `json:"user,omitempty"`
	Title       string       `json:"title"`
	Date        string       `json:"date"`
	Financial   bool         `json:"financial"`
	Description string       `json:"description,omitempty"`
	Kind        string       `json:"kind,omitempty"`
	Amount      DecimalInput `json:"amount,omitempty"`
	EventColor  string       `json:"eventColor,omitempty"`
}
