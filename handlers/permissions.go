package handlers

import (
	"log"
	"net/http"

	"ourlife/backend/models"
)

// Access routes are mounted behind middleware.RequireAdmin.

// GetAccessGrants lists grants, optionally only those of ?viewer=.
func (h *Handler) GetAccessGrants(w http.ResponseWriter, r *http.Request) {
	grants, err := h.graph.ListGrants(r.Context(), r.URL.Query().Get("viewer"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, grants)
}

// GrantAccess lets the viewer read the target's data.
func (h *Handler) GrantAccess(w http.ResponseWriter, r *http.Request) {
	var req models.AccessRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	grant, err := h.graph.Grant(r.Context(), req.Viewer, req.Target)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, grant)
}

// RevokeAccess removes a grant. The pair comes from the body or from the
// viewer and target query parameters.
func (h *Handler) RevokeAccess(w http.ResponseWriter, r *http.Request) {
	req := models.AccessRequest{
		Viewer: r.URL.Query().Get("viewer"),
		Target: r.URL.Query().Get("target"),
	}
	if req.Viewer == "" && req.Target == "" && r.ContentLength != 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}
	if req.Viewer == "" || req.Target == "" {
		writeMessage(w, http.StatusBadRequest, "viewer and target are required")
		return
	}

	removed, err := h.graph.Revoke(r.Context(), req.Viewer, req.Target)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !removed {
		log.Printf("No grant from %s to %s to revoke", req.Viewer, req.Target)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"revoked": removed,
	})
}
