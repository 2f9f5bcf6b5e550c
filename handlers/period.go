package handlers

import (
	"net/http"

	"ourlife/backend/models"
)

// GetPeriods returns the cycles of every user visible to the subject.
func (h *Handler) GetPeriods(w http.ResponseWriter, r *http.Request) {
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

	cycles, err := h.periods.List(r.Context(), visible)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, cycles)
}

// AddPeriod records a cycle.
func (h *Handler) AddPeriod(w http.ResponseWriter, r *http.Request) {
	username, ok := requester(w, r)
	if !ok {
		return
	}

	var req models.CreatePeriodRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	owner, err := h.owner(r.Context(), username, req.User)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req.User = owner

	cycle, err := h.periods.Add(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, cycle)
}
