package models

import "time"

// AccessGrant lets Viewer read Target's transactions, calendar and budget.
type AccessGrant struct {
	ID        int64     `json:"id"`
	Viewer    string    `json:"viewer"`
	Target    string    `json:"target"`
	CreatedAt time.Time `json:"createdAt"`
}

// AccessRequest is the body of POST and DELETE /access.
type AccessRequest struct {
	Viewer string `json:"viewer"`
	Target string `json:"target"`
}
