package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"ourlife/backend/config"
	"ourlife/backend/database"
	"ourlife/backend/migrations"
	"ourlife/backend/models"
	"ourlife/backend/security"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.RunMigrations(db, migrations.Options{BcryptCost: bcrypt.MinCost}))

	hash, err := security.HashPassword("secret", bcrypt.MinCost)
	require.NoError(t, err)
	_, err = db.Exec(`
		INSERT INTO users (username, password_hash, is_admin) VALUES
		('root', ?, 1), ('alice', ?, 0), ('bob', ?, 0)
	`, hash, hash, hash)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.BcryptCost = bcrypt.MinCost
	cipher, err := security.NewCipher("test-secret")
	require.NoError(t, err)

	return NewServer(db, cfg, cipher, nil).Handler()
}

func call(t *testing.T, h http.Handler, method, path, user string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-Username", user)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	h := newTestServer(t)

	for _, path := range []string{"/health", "/api/health"} {
		rr := call(t, h, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	}
}

func TestLogin(t *testing.T) {
	h := newTestServer(t)

	rr := call(t, h, http.MethodPost, "/api/login", "", map[string]string{"username": "alice", "password": "secret"})
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = call(t, h, http.MethodPost, "/api/login", "", map[string]string{"username": "alice", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestUnauthenticated(t *testing.T) {
	h := newTestServer(t)

	rr := call(t, h, http.MethodGet, "/api/transactions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestPreflight(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/transactions", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestSharedLedgerFlow(t *testing.T) {
	h := newTestServer(t)

	// alice may read bob's data.
	rr := call(t, h, http.MethodPost, "/api/access", "root", models.AccessRequest{Viewer: "alice", Target: "bob"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = call(t, h, http.MethodPost, "/api/access", "root", models.AccessRequest{Viewer: "alice", Target: "bob"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = call(t, h, http.MethodPost, "/transactions", "bob", map[string]interface{}{
		"description":   "Salary",
		"amount":        5000,
		"kind":          "income",
		"date":          "2025-07-01",
		"calendarTitle": "Salary (income)",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created struct {
		TransactionID int64 `json:"transactionId"`
		EventID       int64 `json:"eventId"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.NotZero(t, created.TransactionID)
	require.NotZero(t, created.EventID)

	var transactions []models.Transaction
	rr = call(t, h, http.MethodGet, "/api/transactions", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &transactions))
	require.Len(t, transactions, 1)
	assert.Equal(t, "bob", transactions[0].User)
	assert.Equal(t, "#00FF00", transactions[0].Color)

	var events []models.CalendarEvent
	rr = call(t, h, http.MethodGet, "/api/calendar", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.True(t, events[0].Financial)

	// bob was not granted alice's view.
	rr = call(t, h, http.MethodGet, "/api/transactions?user=alice", "bob", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// alice can read bob's records but not delete them.
	rr = call(t, h, http.MethodDelete, "/api/transactions/1", "alice", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = call(t, h, http.MethodDelete, "/api/calendar/1", "bob", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"deleted":true,"counterpartDeleted":true}`, rr.Body.String())

	rr = call(t, h, http.MethodGet, "/api/transactions", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	rr = call(t, h, http.MethodDelete, "/api/transactions/1", "bob", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"deleted":false,"counterpartDeleted":false}`, rr.Body.String())
}

func TestValidationErrors(t *testing.T) {
	h := newTestServer(t)

	rr := call(t, h, http.MethodPost, "/api/transactions", "alice", map[string]interface{}{
		"description": "Rent",
		"amount":      -5,
		"kind":        "expense",
		"date":        "2025-07-01",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"success":false,"message":"invalid amount: must be positive","field":"amount"}`, rr.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/api/calendar", bytes.NewBufferString("{not json"))
	req.Header.Set("X-Username", "alice")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = call(t, h, http.MethodDelete, "/api/transactions/abc", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAdminRoutes(t *testing.T) {
	h := newTestServer(t)

	rr := call(t, h, http.MethodGet, "/api/users", "alice", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = call(t, h, http.MethodPost, "/api/access", "alice", models.AccessRequest{Viewer: "alice", Target: "bob"})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = call(t, h, http.MethodPost, "/api/users", "root", models.NewUserRequest{Username: "carol", Password: "pw"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = call(t, h, http.MethodPost, "/api/users/carol/admin", "root", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = call(t, h, http.MethodGet, "/api/users/carol/admin", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"username":"carol","isAdmin":true}`, rr.Body.String())

	rr = call(t, h, http.MethodDelete, "/api/users/root/admin", "root", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = call(t, h, http.MethodPost, "/api/access", "root", models.AccessRequest{Viewer: "alice", Target: "alice"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = call(t, h, http.MethodPost, "/api/access", "root", models.AccessRequest{Viewer: "carol", Target: "bob"})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = call(t, h, http.MethodDelete, "/api/users/carol", "root", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = call(t, h, http.MethodGet, "/api/access", "root", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	rr = call(t, h, http.MethodDelete, "/api/access?viewer=carol&target=bob", "root", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"revoked":false}`, rr.Body.String())
}

func TestProfileRoutes(t *testing.T) {
	h := newTestServer(t)

	rr := call(t, h, http.MethodPut, "/api/users/alice/profile", "alice", models.ProfileUpdate{
		Email:      "alice@example.com",
		EventColor: "#10b981",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = call(t, h, http.MethodGet, "/api/users/alice/profile", "bob", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = call(t, h, http.MethodPost, "/api/access", "root", map[string]string{"viewer": "bob", "target": "alice"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	rr = call(t, h, http.MethodGet, "/api/users/alice/profile", "bob", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = call(t, h, http.MethodPut, "/api/users/alice/profile", "bob", models.ProfileUpdate{Email: "bob@example.com"})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = call(t, h, http.MethodGet, "/api/users/alice/profile", "root", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var u models.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &u))
	assert.Equal(t, "alice@example.com", u.Email)

	rr = call(t, h, http.MethodPut, "/api/users/alice/password", "alice", map[string]string{
		"currentPassword": "wrong", "newPassword": "fresh",
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = call(t, h, http.MethodPut, "/api/users/alice/password", "alice", map[string]string{
		"currentPassword": "secret", "newPassword": "fresh",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = call(t, h, http.MethodPut, "/api/users/alice/password", "bob", map[string]string{"newPassword": "hijack"})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = call(t, h, http.MethodPut, "/api/users/alice/password", "root", map[string]string{"newPassword": "reset"})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = call(t, h, http.MethodPost, "/api/login", "", map[string]string{"username": "alice", "password": "reset"})
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = call(t, h, http.MethodPut, "/api/users/alice/password", "root", map[string]string{"newPassword": strings.Repeat("x", 100)})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"field":"password"`)
}

func TestBudgetRoutes(t *testing.T) {
	h := newTestServer(t)

	rr := call(t, h, http.MethodPost, "/api/budget", "alice", map[string]interface{}{
		"category": "Food", "amount": "300", "month": 7, "year": 2025,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = call(t, h, http.MethodPost, "/api/budget", "bob", map[string]interface{}{
		"user": "alice", "category": "Fuel", "amount": "80", "month": 7, "year": 2025,
	})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	var lines []models.BudgetLine
	rr = call(t, h, http.MethodGet, "/api/budget?month=7&year=2025", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &lines))
	require.Len(t, lines, 1)
	assert.Equal(t, "300", lines[0].Amount.String())

	rr = call(t, h, http.MethodGet, "/api/budget?month=july", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPeriodRoutes(t *testing.T) {
	h := newTestServer(t)

	rr := call(t, h, http.MethodPost, "/api/period", "alice", map[string]interface{}{
		"startDate": "2025-07-01", "endDate": "2025-07-05", "cycleLength": 28, "symptoms": "cramps",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = call(t, h, http.MethodPost, "/api/period", "alice", map[string]interface{}{"startDate": "2025-07-01"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"field":"cycleLength"`)

	rr = call(t, h, http.MethodGet, "/api/period", "bob", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	rr = call(t, h, http.MethodPost, "/api/access", "root", models.AccessRequest{Viewer: "bob", Target: "alice"})
	require.Equal(t, http.StatusCreated, rr.Code)

	var cycles []models.PeriodCycle
	rr = call(t, h, http.MethodGet, "/api/period", "bob", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cycles))
	require.Len(t, cycles, 1)
	assert.Equal(t, "alice", cycles[0].User)
	assert.Equal(t, "cramps", cycles[0].Symptoms)

	rr = call(t, h, http.MethodPost, "/api/period", "bob", map[string]interface{}{
		"user": "alice", "startDate": "2025-08-01", "cycleLength": 28,
	})
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestHugeAmountRejected(t *testing.T) {
	h := newTestServer(t)

	rr := call(t, h, http.MethodPost, "/api/transactions", "alice", map[string]interface{}{
		"description": "Bonus", "amount": "1e50000000", "kind": "income", "date": "2025-07-01",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"field":"amount"`)
}

func TestHandler_RecordsServerSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	h := newTestServer(t)
	rr := call(t, h, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind())
}
