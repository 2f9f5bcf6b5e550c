package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"ourlife/backend/models"
)

// LedgerCoordinator keeps a transaction and its mirrored calendar event in
// step: both are created in one SQL transaction and deleting either half
// removes the other.
type LedgerCoordinator struct {
	db *sql.DB
}

// NewLedgerCoordinator creates a coordinator over db.
func NewLedgerCoordinator(db *sql.DB) *LedgerCoordinator {
	return &LedgerCoordinator{db: db}
}

// CreateResult carries the generated ids of a create call. EventID is zero
// when no calendar event was created.
type CreateResult struct {
	TransactionID int64                 `json:"transactionId,omitempty"`
	EventID       int64                 `json:"eventId,omitempty"`
	Transaction   *models.Transaction   `json:"transaction,omitempty"`
	Event         *models.CalendarEvent `json:"event,omitempty"`
}

var colorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

type transactionInput struct {
	owner       string
	description string
	amount      decimal.Decimal
	kind        string
	date        string
}

type mirrorInput struct {
	title string
	color string
}

// validateTransaction checks fields in a fixed order and reports the first
// invalid one.
func validateTransaction(owner, description string, amount models.DecimalInput, kind, date string) (transactionInput, error) {
	if strings.TrimSpace(owner) == "" {
		return transactionInput{}, invalid("user", "is required")
	}
	if strings.TrimSpace(description) == "" {
		return transactionInput{}, invalid("description", "must not be empty")
	}
	amt, err := validateAmount(amount, false)
	if err != nil {
		return transactionInput{}, err
	}
	if !models.IsValidKind(kind) {
		return transactionInput{}, invalid("kind", "must be income or expense")
	}
	normalized, err := models.NormalizeDate(date)
	if err != nil {
		return transactionInput{}, invalid("date", err.Error())
	}

	return transactionInput{
		owner:       owner,
		description: strings.TrimSpace(description),
		amount:      amt,
		kind:        kind,
		date:        normalized,
	}, nil
}

// validateAmount parses a money amount and bounds its size and precision.
// Zero is accepted only when allowZero is set.
func validateAmount(input models.DecimalInput, allowZero bool) (decimal.Decimal, error) {
	amt, err := input.Decimal()
	if err != nil {
		return decimal.Zero, invalid("amount", "must be a plain decimal number")
	}
	switch {
	case allowZero && amt.IsNegative():
		return decimal.Zero, invalid("amount", "must not be negative")
	case !allowZero && !amt.IsPositive():
		return decimal.Zero, invalid("amount", "must be positive")
	case amt.GreaterThan(models.MaxAmount):
		return decimal.Zero, invalid("amount", "must not exceed "+models.MaxAmount.String())
	case !amt.Equal(amt.Truncate(models.MaxAmountPlaces)):
		return decimal.Zero, invalid("amount", fmt.Sprintf("must have at most %d decimal places", models.MaxAmountPlaces))
	}
	return amt, nil
}

func validateColor(color string) error {
	if color != "" && !colorPattern.MatchString(color) {
		return invalid("eventColor", "must be a hex color like #3b82f6")
	}
	return nil
}

// CreateTransaction records a transaction and, when CalendarTitle is set, its
// mirrored calendar event. Either both rows are committed or neither is.
func (c *LedgerCoordinator) CreateTransaction(ctx context.Context, req models.CreateTransactionRequest) (CreateResult, error) {
	in, err := validateTransaction(req.User, req.Description, req.Amount, req.Kind, req.Date)
	if err != nil {
		return CreateResult{}, err
	}

	var mirror *mirrorInput
	if title := strings.TrimSpace(req.CalendarTitle); title != "" {
		if err := validateColor(req.EventColor); err != nil {
			return CreateResult{}, err
		}
		mirror = &mirrorInput{title: title, color: req.EventColor}
	}

	return c.createLinked(ctx, in, mirror)
}

// CreateEvent is the calendar-side entry point. A financial event creates the
// transaction it mirrors through the same path as CreateTransaction.
func (c *LedgerCoordinator) CreateEvent(ctx context.Context, req models.CreateEventRequest) (CreateResult, error) {
	if strings.TrimSpace(req.User) == "" {
		return CreateResult{}, invalid("user", "is required")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return CreateResult{}, invalid("title", "must not be empty")
	}
	date, err := models.NormalizeDate(req.Date)
	if err != nil {
		return CreateResult{}, invalid("date", err.Error())
	}
	if err := validateColor(req.EventColor); err != nil {
		return CreateResult{}, err
	}

	if req.Financial {
		in, err := validateTransaction(req.User, req.Description, req.Amount, req.Kind, date)
		if err != nil {
			return CreateResult{}, err
		}
		return c.createLinked(ctx, in, &mirrorInput{title: title, color: req.EventColor})
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return CreateResult{}, storageErr("create event", err)
	}
	defer tx.Rollback()

	color, err := eventColorFor(ctx, tx, req.User, req.EventColor)
	if err != nil {
		return CreateResult{}, err
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO calendar_events (owner, title, date, financial, event_color)
		VALUES (?, ?, ?, 0, ?)
	`, req.User, title, date, color)
	if err != nil {
		return CreateResult{}, storageErr("create event", err)
	}
	eventID, err := res.LastInsertId()
	if err != nil {
		return CreateResult{}, storageErr("create event", err)
	}

	event, err := getEvent(ctx, tx, eventID)
	if err != nil {
		return CreateResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return CreateResult{}, storageErr("create event", err)
	}

	return CreateResult{EventID: eventID, Event: &event}, nil
}

func (c *LedgerCoordinator) createLinked(ctx context.Context, in transactionInput, mirror *mirrorInput) (CreateResult, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return CreateResult{}, storageErr("create transaction", err)
	}
	defer tx.Rollback()

	// Resolve the owner first so an unknown user is reported as such rather
	// than as a foreign key failure.
	color, err := eventColorFor(ctx, tx, in.owner, "")
	if err != nil {
		return CreateResult{}, err
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (owner, description, amount, kind, date, color)
		VALUES (?, ?, ?, ?, ?, ?)
	`, in.owner, in.description, in.amount.String(), in.kind, in.date, models.ColorForKind(in.kind))
	if err != nil {
		return CreateResult{}, storageErr("create transaction", err)
	}
	txID, err := res.LastInsertId()
	if err != nil {
		return CreateResult{}, storageErr("create transaction", err)
	}

	result := CreateResult{TransactionID: txID}

	if mirror != nil {
		if mirror.color != "" {
			color = mirror.color
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO calendar_events (owner, title, date, financial, kind, amount, event_color, transaction_id)
			VALUES (?, ?, ?, 1, ?, ?, ?, ?)
		`, in.owner, mirror.title, in.date, in.kind, in.amount.String(), color, txID)
		if err != nil {
			log.Printf("Error adding mirrored calendar event for transaction %d, rolling back: %v", txID, err)
			return CreateResult{}, storageErr("create linked event", err)
		}
		eventID, err := res.LastInsertId()
		if err != nil {
			return CreateResult{}, storageErr("create linked event", err)
		}
		event, err := getEvent(ctx, tx, eventID)
		if err != nil {
			return CreateResult{}, err
		}
		result.EventID = eventID
		result.Event = &event
	}

	t, err := getTransaction(ctx, tx, txID)
	if err != nil {
		return CreateResult{}, err
	}
	result.Transaction = &t

	if err := tx.Commit(); err != nil {
		return CreateResult{}, storageErr("create transaction", err)
	}

	return result, nil
}

// eventColorFor returns override when set, otherwise the owner's preferred
// event color. It fails with ErrNotFound for an unknown owner.
func eventColorFor(ctx context.Context, q querier, owner, override string) (string, error) {
	var color string
	err := q.QueryRowContext(ctx, `SELECT event_color FROM users WHERE username = ?`, owner).Scan(&color)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("user %q: %w", owner, ErrNotFound)
	}
	if err != nil {
		return "", storageErr("load event color", err)
	}
	if override != "" {
		return override, nil
	}
	if color == "" {
		color = models.DefaultEventColor
	}
	return color, nil
}

// DeleteTransaction removes the transaction and any calendar event mirroring
// it. A missing id is reported through DeleteResult, not as an error.
func (c *LedgerCoordinator) DeleteTransaction(ctx context.Context, id int64) (DeleteResult, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return DeleteResult{}, storageErr("delete transaction", err)
	}
	defer tx.Rollback()

	var owner, kind, amount, date string
	err = tx.QueryRowContext(ctx, `SELECT owner, kind, amount, date FROM transactions WHERE id = ?`, id).
		Scan(&owner, &kind, &amount, &date)
	if errors.Is(err, sql.ErrNoRows) {
		return DeleteResult{}, nil
	}
	if err != nil {
		return DeleteResult{}, storageErr("delete transaction", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM calendar_events WHERE transaction_id = ?`, id)
	if err != nil {
		return DeleteResult{}, storageErr("delete linked event", err)
	}
	linked, err := res.RowsAffected()
	if err != nil {
		return DeleteResult{}, storageErr("delete linked event", err)
	}

	if linked == 0 {
		// Events written before transaction_id existed are matched on
		// (owner, kind, amount, date); at most one is removed.
		res, err = tx.ExecContext(ctx, `
			DELETE FROM calendar_events WHERE id = (
				SELECT id FROM calendar_events
				WHERE transaction_id IS NULL AND financial = 1
				AND owner = ? AND kind = ? AND amount = ? AND date = ?
				ORDER BY id LIMIT 1
			)
		`, owner, kind, amount, date)
		if err != nil {
			return DeleteResult{}, storageErr("delete correlated event", err)
		}
		if linked, err = res.RowsAffected(); err != nil {
			return DeleteResult{}, storageErr("delete correlated event", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return DeleteResult{}, storageErr("delete transaction", err)
	}

	if err := tx.Commit(); err != nil {
		return DeleteResult{}, storageErr("delete transaction", err)
	}

	log.Printf("Deleted transaction %d (linked events removed: %d)", id, linked)
	return DeleteResult{Deleted: true, CounterpartDeleted: linked > 0}, nil
}

// DeleteEvent removes a calendar event. A financial event takes its
// transaction with it. A missing id is reported through DeleteResult.
func (c *LedgerCoordinator) DeleteEvent(ctx context.Context, id int64) (DeleteResult, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return DeleteResult{}, storageErr("delete event", err)
	}
	defer tx.Rollback()

	var (
		owner, date   string
		financial     bool
		kind, amount  sql.NullString
		transactionID sql.NullInt64
	)
	err = tx.QueryRowContext(ctx, `
		SELECT owner, date, financial, kind, amount, transaction_id
		FROM calendar_events WHERE id = ?
	`, id).Scan(&owner, &date, &financial, &kind, &amount, &transactionID)
	if errors.Is(err, sql.ErrNoRows) {
		return DeleteResult{}, nil
	}
	if err != nil {
		return DeleteResult{}, storageErr("delete event", err)
	}

	var counterpart int64
	if financial {
		var res sql.Result
		if transactionID.Valid {
			res, err = tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, transactionID.Int64)
		} else {
			// Legacy event: pick one matching transaction that no other event
			// already claims through transaction_id.
			res, err = tx.ExecContext(ctx, `
				DELETE FROM transactions WHERE id = (
					SELECT t.id FROM transactions t
					WHERE t.owner = ? AND t.kind = ? AND t.amount = ? AND t.date = ?
					AND NOT EXISTS (SELECT 1 FROM calendar_events e WHERE e.transaction_id = t.id)
					ORDER BY t.id LIMIT 1
				)
			`, owner, kind.String, amount.String, date)
		}
		if err != nil {
			return DeleteResult{}, storageErr("delete linked transaction", err)
		}
		if counterpart, err = res.RowsAffected(); err != nil {
			return DeleteResult{}, storageErr("delete linked transaction", err)
		}
	}

	// The foreign key cascade may already have removed the row.
	if _, err := tx.ExecContext(ctx, `DELETE FROM calendar_events WHERE id = ?`, id); err != nil {
		return DeleteResult{}, storageErr("delete event", err)
	}

	if err := tx.Commit(); err != nil {
		return DeleteResult{}, storageErr("delete event", err)
	}

	log.Printf("Deleted calendar event %d (linked transaction removed: %v)", id, counterpart > 0)
	return DeleteResult{Deleted: true, CounterpartDeleted: counterpart > 0}, nil
}

// GetTransaction returns one transaction or ErrNotFound.
func (c *LedgerCoordinator) GetTransaction(ctx context.Context, id int64) (models.Transaction, error) {
	return getTransaction(ctx, c.db, id)
}

// GetEvent returns one calendar event or ErrNotFound.
func (c *LedgerCoordinator) GetEvent(ctx context.Context, id int64) (models.CalendarEvent, error) {
	return getEvent(ctx, c.db, id)
}

// ListTransactions returns the transactions owned by any of owners, ordered
// by date.
func (c *LedgerCoordinator) ListTransactions(ctx context.Context, owners []string) ([]models.Transaction, error) {
	where, args := ownerFilter("owner", owners)
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, owner, description, amount, kind, date, color, created_at
		FROM transactions WHERE `+where+` ORDER BY date, id`, args...)
	if err != nil {
		return nil, storageErr("list transactions", err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, storageErr("list transactions", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list transactions", err)
	}
	return transactions, nil
}

// ListEvents returns the calendar events owned by any of owners, ordered by
// date.
func (c *LedgerCoordinator) ListEvents(ctx context.Context, owners []string) ([]models.CalendarEvent, error) {
	where, args := ownerFilter("owner", owners)
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, owner, title, date, financial, kind, amount, event_color, transaction_id, created_at
		FROM calendar_events WHERE `+where+` ORDER BY date, id`, args...)
	if err != nil {
		return nil, storageErr("list events", err)
	}
	defer rows.Close()

	events := []models.CalendarEvent{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, storageErr("list events", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list events", err)
	}
	return events, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(s scanner) (models.Transaction, error) {
	var t models.Transaction
	err := s.Scan(&t.ID, &t.User, &t.Description, &t.Amount, &t.Kind, &t.Date, &t.Color, &t.CreatedAt)
	return t, err
}

func scanEvent(s scanner) (models.CalendarEvent, error) {
	var (
		e             models.CalendarEvent
		kind          sql.NullString
		amount        decimal.NullDecimal
		transactionID sql.NullInt64
	)
	err := s.Scan(&e.ID, &e.User, &e.Title, &e.Date, &e.Financial, &kind, &amount, &e.EventColor, &transactionID, &e.CreatedAt)
	if err != nil {
		return e, err
	}
	if kind.Valid {
		e.Kind = kind.String
	}
	if amount.Valid {
		a := amount.Decimal
		e.Amount = &a
	}
	if transactionID.Valid {
		id := transactionID.Int64
		e.TransactionID = &id
	}
	return e, nil
}

func getTransaction(ctx context.Context, q querier, id int64) (models.Transaction, error) {
	t, err := scanTransaction(q.QueryRowContext(ctx, `
		SELECT id, owner, description, amount, kind, date, color, created_at
		FROM transactions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Transaction{}, fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Transaction{}, storageErr("get transaction", err)
	}
	return t, nil
}

func getEvent(ctx context.Context, q querier, id int64) (models.CalendarEvent, error) {
	e, err := scanEvent(q.QueryRowContext(ctx, `
		SELECT id, owner, title, date, financial, kind, amount, event_color, transaction_id, created_at
		FROM calendar_events WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.CalendarEvent{}, fmt.Errorf("calendar event %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.CalendarEvent{}, storageErr("get event", err)
	}
	return e, nil
}
