package handlers

import (
	"errors"
	"net/http"

	"ourlife/backend/models"
	"ourlife/backend/services"
)

// GetTransactions returns the transactions of every user visible to the
// subject of the request.
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	username, ok := requester(w, r)
	if !ok {
		return
	}

	subject, err := h.subject(r, username)
	if err != nil {
		writeError(w, r, err)
		return
	}

	visible, err := h.resolver.ResolveVisible(r.Context(), subject)
	if err != nil {
		writeError(w, r, err)
		return
	}

	transactions, err := h.ledger.ListTransactions(r.Context(), visible)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, transactions)
}

// AddTransaction records a transaction and, when calendarTitle is given, its
// mirrored calendar event.
func (h *Handler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	username, ok := requester(w, r)
	if !ok {
		return
	}

	var req models.CreateTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	owner, err := h.owner(r.Context(), username, req.User)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req.User = owner

	res, err := h.ledger.CreateTransaction(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

// DeleteTransaction removes a transaction and its mirrored event. Deleting an
// id that does not exist succeeds with deleted=false.
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	username, ok := requester(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	t, err := h.ledger.GetTransaction(r.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		writeJSON(w, http.StatusOK, deleteResponse(services.DeleteResult{}))
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.authorizeFor(r.Context(), username, t.User); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.ledger.DeleteTransaction(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, deleteResponse(res))
}
