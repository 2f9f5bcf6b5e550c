package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"ourlife/backend/models"
	"ourlife/backend/security"
)

// UserService manages accounts and their profiles. Contact fields are
// encrypted at rest.
type UserService struct {
	db                *sql.DB
	cipher            *security.Cipher
	graph             *AccessGraph
	bcryptCost        int
	defaultEventColor string
}

// NewUserService creates a user service. graph is used to drop a user's
// grants when the user is deleted.
func NewUserService(db *sql.DB, cipher *security.Cipher, graph *AccessGraph, bcryptCost int, defaultEventColor string) *UserService {
	if defaultEventColor == "" {
		defaultEventColor = models.DefaultEventColor
	}
	return &UserService{
		db:                db,
		cipher:            cipher,
		graph:             graph,
		bcryptCost:        bcryptCost,
		defaultEventColor: defaultEventColor,
	}
}

// Create adds an account. Usernames are case-sensitive and unique.
func (s *UserService) Create(ctx context.Context, req models.NewUserRequest) (models.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return models.User{}, invalid("username", "is required")
	}
	if err := validatePassword(req.Password); err != nil {
		return models.User{}, err
	}

	hash, err := security.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to create user %s: %w", username, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, event_color, is_admin)
		VALUES (?, ?, ?, ?)
	`, username, hash, s.defaultEventColor, req.IsAdmin)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, fmt.Errorf("user %q: %w", username, ErrAlreadyExists)
		}
		return models.User{}, storageErr("create user", err)
	}

	log.Printf("Created user %s (admin: %v)", username, req.IsAdmin)
	return s.Get(ctx, username)
}

// maxPasswordBytes is the longest input bcrypt hashes.
const maxPasswordBytes = 72

func validatePassword(password string) error {
	if password == "" {
		return invalid("password", "is required")
	}
	if len(password) > maxPasswordBytes {
		return invalid("password", fmt.Sprintf("must be at most %d bytes", maxPasswordBytes))
	}
	return nil
}

// Authenticate checks a username and password pair. Unknown users and wrong
// passwords both yield ErrUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE username = ?`, username).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	}
	if err != nil {
		return models.User{}, storageErr("authenticate", err)
	}
	if !security.CheckPassword(hash, password) {
		return models.User{}, fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	}
	return s.Get(ctx, username)
}

// Get returns a user with decrypted contact fields.
func (s *UserService) Get(ctx context.Context, username string) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, `
		SELECT username, profile_pic_url, email, phone, address, event_color, is_admin, created_at
		FROM users WHERE username = ?
	`, username).Scan(&u.Username, &u.ProfilePicURL, &u.Email, &u.Phone, &u.Address, &u.EventColor, &u.IsAdmin, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return models.User{}, storageErr("get user", err)
	}

	u.Email = s.decrypt(username, "email", u.Email)
	u.Phone = s.decrypt(username, "phone", u.Phone)
	u.Address = s.decrypt(username, "address", u.Address)
	if u.EventColor == "" {
		u.EventColor = s.defaultEventColor
	}
	return u, nil
}

func (s *UserService) decrypt(username, field, value string) string {
	plain, err := s.cipher.DecryptField(value)
	if err != nil {
		log.Printf("Error decrypting %s for user %s: %v", field, username, err)
		return ""
	}
	return plain
}

// List returns every account. It is the admin directory and is unrelated to
// the grants a user holds.
func (s *UserService) List(ctx context.Context) ([]models.UserSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT username, is_admin FROM users ORDER BY username`)
	if err != nil {
		return nil, storageErr("list users", err)
	}
	defer rows.Close()

	users := []models.UserSummary{}
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.Username, &u.IsAdmin); err != nil {
			return nil, storageErr("list users", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list users", err)
	}
	return users, nil
}

// UpdateProfile replaces the mutable profile fields. An empty event color
// resets it to the default.
func (s *UserService) UpdateProfile(ctx context.Context, username string, p models.ProfileUpdate) (models.User, error) {
	if err := validateColor(p.EventColor); err != nil {
		return models.User{}, err
	}
	color := p.EventColor
	if color == "" {
		color = s.defaultEventColor
	}

	var enc [3]string
	for i, v := range []string{p.Email, p.Phone, p.Address} {
		e, err := s.cipher.EncryptField(strings.TrimSpace(v))
		if err != nil {
			return models.User{}, fmt.Errorf("failed to encrypt profile of %s: %w", username, err)
		}
		enc[i] = e
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET profile_pic_url = ?, email = ?, phone = ?, address = ?, event_color = ?
		WHERE username = ?
	`, strings.TrimSpace(p.ProfilePicURL), enc[0], enc[1], enc[2], color, username)
	if err != nil {
		return models.User{}, storageErr("update profile", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.User{}, storageErr("update profile", err)
	}
	if n == 0 {
		return models.User{}, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}

	return s.Get(ctx, username)
}

// IsAdmin reports whether username holds the admin flag. Unknown users are
// not admins.
func (s *UserService) IsAdmin(ctx context.Context, username string) (bool, error) {
	var isAdmin bool
	err := s.db.QueryRowContext(ctx, `SELECT is_admin FROM users WHERE username = ?`, username).Scan(&isAdmin)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storageErr("check admin", err)
	}
	return isAdmin, nil
}

// SetAdmin grants or removes the admin flag.
func (s *UserService) SetAdmin(ctx context.Context, username string, admin bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET is_admin = ? WHERE username = ?`, admin, username)
	if err != nil {
		return storageErr("set admin", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("set admin", err)
	}
	if n == 0 {
		return fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	log.Printf("Admin flag for %s set to %v", username, admin)
	return nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *UserService) ChangePassword(ctx context.Context, username, current, next string) error {
	if _, err := s.Authenticate(ctx, username, current); err != nil {
		return err
	}
	return s.ResetPassword(ctx, username, next)
}

// ResetPassword replaces the password without the current one. It backs the
// admin path of the password endpoint and the CLI.
func (s *UserService) ResetPassword(ctx context.Context, username, next string) error {
	if err := validatePassword(next); err != nil {
		return err
	}
	hash, err := security.HashPassword(next, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to reset password for %s: %w", username, err)
	}

	res, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE username = ?`, hash, username)
	if err != nil {
		return storageErr("reset password", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("reset password", err)
	}
	if n == 0 {
		return fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	return nil
}

// Delete removes a user together with their grants in both directions and
// everything they own, in one SQL transaction.
func (s *UserService) Delete(ctx context.Context, username string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("delete user", err)
	}
	defer tx.Rollback()

	exists, err := userExists(ctx, tx, username)
	if err != nil {
		return storageErr("delete user", err)
	}
	if !exists {
		return fmt.Errorf("user %q: %w", username, ErrNotFound)
	}

	grants, err := s.graph.CascadeDeleteUser(ctx, tx, username)
	if err != nil {
		return err
	}

	for _, stmt := range []string{
		`DELETE FROM calendar_events WHERE owner = ?`,
		`DELETE FROM transactions WHERE owner = ?`,
		`DELETE FROM budget_lines WHERE owner = ?`,
		`DELETE FROM period_cycles WHERE owner = ?`,
		`DELETE FROM users WHERE username = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, username); err != nil {
			return storageErr("delete user", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("delete user", err)
	}

	log.Printf("Deleted user %s and %d access grants", username, grants)
	return nil
}
