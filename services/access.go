package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/mattn/go-sqlite3"

	"ourlife/backend/models"
)

// AccessGraph stores (viewer, target) read grants.
type AccessGraph struct {
	db *sql.DB
}

// NewAccessGraph creates an access graph over db.
func NewAccessGraph(db *sql.DB) *AccessGraph {
	return &AccessGraph{db: db}
}

// Grant lets viewer read target's records. Granting a pair that already
// exists fails with ErrAlreadyGranted.
func (g *AccessGraph) Grant(ctx context.Context, viewer, target string) (models.AccessGrant, error) {
	if viewer == "" || target == "" {
		return models.AccessGrant{}, fmt.Errorf("%w: viewer and target are required", ErrInvalidGrant)
	}
	if viewer == target {
		return models.AccessGrant{}, fmt.Errorf("%w: cannot grant access to self", ErrInvalidGrant)
	}

	for _, username := range []string{viewer, target} {
		exists, err := userExists(ctx, g.db, username)
		if err != nil {
			return models.AccessGrant{}, storageErr("grant access", err)
		}
		if !exists {
			return models.AccessGrant{}, fmt.Errorf("user %q: %w", username, ErrNotFound)
		}
	}

	res, err := g.db.ExecContext(ctx, `INSERT INTO user_access (viewer, target) VALUES (?, ?)`, viewer, target)
	if err != nil {
		if isUniqueViolation(err) {
			return models.AccessGrant{}, fmt.Errorf("%s -> %s: %w", viewer, target, ErrAlreadyGranted)
		}
		return models.AccessGrant{}, storageErr("grant access", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.AccessGrant{}, storageErr("grant access", err)
	}

	var grant models.AccessGrant
	err = g.db.QueryRowContext(ctx, `SELECT id, viewer, target, created_at FROM user_access WHERE id = ?`, id).
		Scan(&grant.ID, &grant.Viewer, &grant.Target, &grant.CreatedAt)
	if err != nil {
		return models.AccessGrant{}, storageErr("grant access", err)
	}

	log.Printf("Access granted: %s can view %s's data", viewer, target)
	return grant, nil
}

// Revoke removes the grant if present. It reports whether a row was removed;
// revoking an absent grant is not an error.
func (g *AccessGraph) Revoke(ctx context.Context, viewer, target string) (bool, error) {
	res, err := g.db.ExecContext(ctx, `DELETE FROM user_access WHERE viewer = ? AND target = ?`, viewer, target)
	if err != nil {
		return false, storageErr("revoke access", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("revoke access", err)
	}

	if n > 0 {
		log.Printf("Access revoked: %s can no longer view %s's data", viewer, target)
	}
	return n > 0, nil
}

// ListGrants returns every grant, or only viewer's grants when viewer is set.
func (g *AccessGraph) ListGrants(ctx context.Context, viewer string) ([]models.AccessGrant, error) {
	query := `SELECT id, viewer, target, created_at FROM user_access`
	var args []interface{}
	if viewer != "" {
		query += ` WHERE viewer = ?`
		args = append(args, viewer)
	}
	query += ` ORDER BY id`

	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list grants", err)
	}
	defer rows.Close()

	grants := []models.AccessGrant{}
	for rows.Next() {
		var ag models.AccessGrant
		if err := rows.Scan(&ag.ID, &ag.Viewer, &ag.Target, &ag.CreatedAt); err != nil {
			return nil, storageErr("list grants", err)
		}
		grants = append(grants, ag)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list grants", err)
	}

	return grants, nil
}

// CascadeDeleteUser removes every grant naming username as viewer or target.
// It runs inside the caller's transaction so that user deletion commits the
// user row and its grants together.
func (g *AccessGraph) CascadeDeleteUser(ctx context.Context, tx *sql.Tx, username string) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM user_access WHERE viewer = ? OR target = ?`, username, username)
	if err != nil {
		return 0, storageErr("cascade delete grants", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("cascade delete grants", err)
	}
	return n, nil
}

func userExists(ctx context.Context, q querier, username string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username).Scan(&exists)
	return exists, err
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
