package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"ourlife/backend/middleware"
	"ourlife/backend/services"
)

var errForbidden = errors.New("forbidden")

// Handler serves the HTTP API on top of the services.
type Handler struct {
	users    *services.UserService
	graph    *services.AccessGraph
	resolver *services.VisibilityResolver
	ledger   *services.LedgerCoordinator
	budget   *services.BudgetService
	periods  *services.PeriodService
}

// NewHandler creates a handler over the given services.
func NewHandler(users *services.UserService, graph *services.AccessGraph, resolver *services.VisibilityResolver,
	ledger *services.LedgerCoordinator, budget *services.BudgetService, periods *services.PeriodService) *Handler {
	return &Handler{
		users:    users,
		graph:    graph,
		resolver: resolver,
		ledger:   ledger,
		budget:   budget,
		periods:  periods,
	}
}

// HealthCheck reports that the server is up.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

// writeError maps a service error to its HTTP status. Storage failures are
// logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": verr.Error(),
			"field":   verr.Field,
		})
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInvalidGrant):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		writeMessage(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, errForbidden):
		writeMessage(w, http.StatusForbidden, "Forbidden: insufficient permissions")
	case errors.Is(err, services.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrAlreadyGranted), errors.Is(err, services.ErrAlreadyExists):
		writeMessage(w, http.StatusConflict, err.Error())
	default:
		log.Printf("Error handling %s %s [%s]: %v", r.Method, r.URL.Path, middleware.GetRequestID(r), err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// requester returns the authenticated username, answering 401 when absent.
func requester(w http.ResponseWriter, r *http.Request) (string, bool) {
	username := middleware.GetUsernameFromContext(r)
	if username == "" {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized: no user identified")
		return "", false
	}
	return username, true
}

// authorizeFor lets requester act on owner's behalf: always for themselves,
// otherwise only as an admin.
func (h *Handler) authorizeFor(ctx context.Context, requester, owner string) error {
	if requester == owner {
		return nil
	}
	isAdmin, err := h.users.IsAdmin(ctx, requester)
	if err != nil {
		return err
	}
	if !isAdmin {
		return errForbidden
	}
	return nil
}

// subject resolves whose view a read request asks for: the user query
// parameter when present, the requester otherwise.
func (h *Handler) subject(r *http.Request, requester string) (string, error) {
	user := r.URL.Query().Get("user")
	if user == "" {
		return requester, nil
	}
	if err := h.authorizeFor(r.Context(), requester, user); err != nil {
		return "", err
	}
	return user, nil
}

// owner resolves the owner of a record being created. An empty body user
// means the requester.
func (h *Handler) owner(ctx context.Context, requester, bodyUser string) (string, error) {
	if bodyUser == "" {
		return requester, nil
	}
	if err := h.authorizeFor(ctx, requester, bodyUser); err != nil {
		return "", err
	}
	return bodyUser, nil
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}

func deleteResponse(res services.DeleteResult) map[string]interface{} {
	return map[string]interface{}{
		"success":            true,
		"deleted":            res.Deleted,
		"counterpartDeleted": res.CounterpartDeleted,
	}
}
