package models

import "time"

// User is an account. Username is the immutable, case-sensitive identity.
type User struct {
	Username      string    `json:"username"`
	ProfilePicURL string    `json:"profilePicUrl"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	EventColor    string    `json:"eventColor"`
	IsAdmin       bool      `json:"isAdmin"`
	CreatedAt     time.Time `json:"createdAt"`
}

// UserSummary is the row returned by the admin user listing.
type UserSummary struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

// ProfileUpdate holds the mutable profile fields.
type ProfileUpdate struct {
	ProfilePicURL string `json:"profilePicUrl"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	EventColor    string `json:"eventColor"`
}

// NewUserRequest is the body of POST /users.
type NewUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"isAdmin"`
}
