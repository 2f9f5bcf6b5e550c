package services

import (
	"context"
	"database/sql"
	"strings"
)

// VisibilityResolver expands a requester into the usernames whose records the
// requester may read.
type VisibilityResolver struct {
	db *sql.DB
}

// NewVisibilityResolver creates a resolver reading grants from db.
func NewVisibilityResolver(db *sql.DB) *VisibilityResolver {
	return &VisibilityResolver{db: db}
}

// ResolveVisible returns the requester followed by every granted target in
// lexical order. A requester with no grants, or one that does not exist,
// resolves to itself alone. The result is an allow-list for owner filters and
// must not be used to enumerate all users.
func (r *VisibilityResolver) ResolveVisible(ctx context.Context, requester string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT target FROM user_access
		WHERE viewer = ? AND target <> ?
		ORDER BY target
	`, requester, requester)
	if err != nil {
		return nil, storageErr("resolve visibility", err)
	}
	defer rows.Close()

	visible := []string{requester}
	for rows.Next() {
		var target string
		if err := rows.Scan(&target); err != nil {
			return nil, storageErr("resolve visibility", err)
		}
		visible = append(visible, target)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("resolve visibility", err)
	}

	return visible, nil
}

// CanView reports whether requester may read owner's records.
func (r *VisibilityResolver) CanView(ctx context.Context, requester, owner string) (bool, error) {
	if requester == owner {
		return true, nil
	}
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM user_access WHERE viewer = ? AND target = ?)
	`, requester, owner).Scan(&exists)
	if err != nil {
		return false, storageErr("check visibility", err)
	}
	return exists, nil
}

// ownerFilter builds "column IN (?, ?, ...)" for owners. An empty owner list
// yields a predicate that matches nothing.
func ownerFilter(column string, owners []string) (string, []interface{}) {
	if len(owners) == 0 {
		return "1 = 0", nil
	}
	args := make([]interface{}, len(owners))
	for i, o := range owners {
		args[i] = o
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(owners)), ", ")
	return column + " IN (" + placeholders + ")", args
}
