package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
)

// AdminChecker reports whether a user holds the admin flag.
type AdminChecker interface {
	IsAdmin(ctx context.Context, username string) (bool, error)
}

// RequireAdmin is a middleware that ensures the requester is an admin
func RequireAdmin(checker AdminChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username := GetUsernameFromContext(r)
			if username == "" {
				writeError(w, http.StatusUnauthorized, "Unauthorized: no user identified")
				return
			}

			isAdmin, err := checker.IsAdmin(r.Context(), username)
			if err != nil {
				log.Printf("Error checking admin status of %s: %v", username, err)
				writeError(w, http.StatusInternalServerError, "Failed to check permissions")
				return
			}
			if !isAdmin {
				writeError(w, http.StatusForbidden, "Forbidden: admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}
