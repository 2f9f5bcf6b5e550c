package handlers

import (
	"errors"
	"net/http"

	"ourlife/backend/models"
	"ourlife/backend/services"
)

// GetEvents returns the calendar events of every user visible to the subject
// of the request.
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
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

	events, err := h.ledger.ListEvents(r.Context(), visible)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, events)
}

// AddEvent creates a calendar event. Financial events also create the
// transaction they mirror.
func (h *Handler) AddEvent(w http.ResponseWriter, r *http.Request) {
	username, ok := requester(w, r)
	if !ok {
		return
	}

	var req models.CreateEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	owner, err := h.owner(r.Context(), username, req.User)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req.User = owner

	res, err := h.ledger.CreateEvent(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

// DeleteEvent removes a calendar event and, for financial events, the
// transaction it mirrors.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	username, ok := requester(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	event, err := h.ledger.GetEvent(r.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		writeJSON(w, http.StatusOK, deleteResponse(services.DeleteResult{}))
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.authorizeFor(r.Context(), username, event.User); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.ledger.DeleteEvent(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, deleteResponse(res))
}
