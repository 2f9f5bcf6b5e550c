package middleware

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"ourlife/backend/config"
)

// Define context keys
type contextKey string

const UsernameKey contextKey = "username"

// TokenVerifier verifies Firebase ID tokens. *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// InitializeFirebase builds a Firebase auth client from the configured
// service account. It returns a nil client and no error when no credentials
// are configured, which puts the auth middleware in development mode.
func InitializeFirebase(ctx context.Context, cfg config.FirebaseConfig) (*auth.Client, error) {
	log.Println("Starting Firebase initialization...")
	log.Printf("Firebase credentials present: JSON=%v, Base64=%v, Raw=%v",
		cfg.ServiceAccountJSON != "", cfg.ServiceAccountBase64 != "", cfg.ServiceAccountEnvJSON != "")

	var credentials []byte
	switch {
	case cfg.ServiceAccountJSON != "":
		log.Println("Using JSON Firebase credentials")
		credentials = []byte(cfg.ServiceAccountJSON)
	case cfg.ServiceAccountBase64 != "":
		log.Println("Using base64-encoded Firebase credentials")
		decoded, err := base64.StdEncoding.DecodeString(cfg.ServiceAccountBase64)
		if err != nil {
			return nil, fmt.Errorf("error decoding base64 Firebase credentials: %w", err)
		}
		credentials = decoded
	case cfg.ServiceAccountEnvJSON != "":
		log.Println("Using Firebase credentials from environment variable")
		credentials = []byte(cfg.ServiceAccountEnvJSON)
	default:
		log.Println("No Firebase credentials found, running in development mode with token checks disabled")
		return nil, nil
	}

	var fbConfig *firebase.Config
	if cfg.ProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbConfig, option.WithCredentialsJSON(credentials))
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Firebase Auth client: %w", err)
	}

	log.Println("Firebase Admin SDK initialized successfully")
	return client, nil
}

// Authenticator resolves the requester of each request.
type Authenticator struct {
	verifier TokenVerifier
}

// NewAuthenticator returns an authenticator. A nil verifier selects
// development mode, where the requester is taken from the X-Username header
// or the user query parameter.
func NewAuthenticator(verifier TokenVerifier) *Authenticator {
	return &Authenticator{verifier: verifier}
}

// Middleware puts the authenticated username into the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip auth for OPTIONS requests (CORS preflight)
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if a.verifier == nil {
			username := strings.TrimSpace(r.Header.Get("X-Username"))
			if username == "" {
				username = strings.TrimSpace(r.URL.Query().Get("user"))
			}
			if username == "" {
				writeError(w, http.StatusUnauthorized, "Unauthorized: no user identified")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUsername(r.Context(), username)))
			return
		}

		idToken := extractToken(r.Header.Get("Authorization"))
		if idToken == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized: No token provided")
			return
		}

		token, err := a.verifier.VerifyIDToken(r.Context(), idToken)
		if err != nil {
			log.Printf("Error verifying token: %v", err)
			writeError(w, http.StatusUnauthorized, "Unauthorized: Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUsername(r.Context(), token.UID)))
	})
}

// extractToken gets the token from the Authorization header
func extractToken(authHeader string) string {
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// WithUsername returns a copy of ctx carrying username.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, UsernameKey, username)
}

// GetUsernameFromContext retrieves the requester from the request context
func GetUsernameFromContext(r *http.Request) string {
	username, ok := r.Context().Value(UsernameKey).(string)
	if !ok {
		return ""
	}
	return username
}
