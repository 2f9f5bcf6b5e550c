package handlers

import (
	"net/http"
	"strconv"

	"ourlife/backend/models"
)

// GetBudget returns budget lines visible to the subject, optionally filtered
// by month and year.
func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	username, ok := requester(w, r)
	if !ok {
		return
	}

	subject, err := h.subject(r, username)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var month, year int
	if v := r.URL.Query().Get("month"); v != "" {
		if month, err = strconv.Atoi(v); err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid month")
			return
		}
	}
	if v := r.URL.Query().Get("year"); v != "" {
		if year, err = strconv.Atoi(v); err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid year")
			return
		}
	}

	visible, err := h.resolver.ResolveVisible(r.Context(), subject)
	if err != nil {
		writeError(w, r, err)
		return
	}

	lines, err := h.budget.List(r.Context(), visible, month, year)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, lines)
}

// AddBudgetLine records a planned amount for one category and month.
func (h *Handler) AddBudgetLine(w http.ResponseWriter, r *http.Request) {
	username, ok := requester(w, r)
	if !ok {
		return
	}

	var req models.CreateBudgetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	owner, err := h.owner(r.Context(), username, req.User)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req.User = owner

	line, err := h.budget.Add(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, line)
}
