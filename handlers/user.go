package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"ourlife/backend/models"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Login checks a username and password and returns the profile. It does not
// issue a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

// GetUsers lists every account. Mounted behind middleware.RequireAdmin.
func (h *Handler) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// AddUser creates an account. Mounted behind middleware.RequireAdmin.
func (h *Handler) AddUser(w http.ResponseWriter, r *http.Request) {
	var req models.NewUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// DeleteUser removes an account with its grants and records. Mounted behind
// middleware.RequireAdmin.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	username, ok := requester(w, r)
	if !ok {
		return
	}
	target := mux.Vars(r)["username"]
	if target == username {
		writeMessage(w, http.StatusBadRequest, "Cannot delete your own account")
		return
	}

	if err := h.users.Delete(r.Context(), target); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// GetProfile returns a user's profile to the user, an admin, or a viewer
// granted access to the user's records.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	username, ok := requester(w, r)
	if !ok {
		return
	}
	target := mux.Vars(r)["username"]
	if err := h.authorizeFor(r.Context(), username, target); err != nil {
		if !errors.Is(err, errForbidden) {
			writeError(w, r, err)
			return
		}
		canView, verr := h.resolver.CanView(r.Context(), username, target)
		if verr != nil {
			writeError(w, r, verr)
			return
		}
		if !canView {
			writeError(w, r, err)
			return
		}
	}

	user, err := h.users.Get(r.Context(), target)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile replaces a user's profile fields.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	username, ok := requester(w, r)
	if !ok {
		return
	}
	target := mux.Vars(r)["username"]
	if err := h.authorizeFor(r.Context(), username, target); err != nil {
		writeError(w, r, err)
		return
	}

	var req models.ProfileUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), target, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// GetAdminStatus reports whether a user is an admin.
func (h *Handler) GetAdminStatus(w http.ResponseWriter, r *http.Request) {
	target := mux.Vars(r)["username"]

	isAdmin, err := h.users.IsAdmin(r.Context(), target)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"username": target,
		"isAdmin":  isAdmin,
	})
}

// GrantAdmin sets the admin flag. Mounted behind middleware.RequireAdmin.
func (h *Handler) GrantAdmin(w http.ResponseWriter, r *http.Request) {
	h.setAdmin(w, r, true)
}

// RevokeAdmin clears the admin flag. Mounted behind middleware.RequireAdmin.
func (h *Handler) RevokeAdmin(w http.ResponseWriter, r *http.Request) {
	username, ok := requester(w, r)
	if !ok {
		return
	}
	if mux.Vars(r)["username"] == username {
		writeMessage(w, http.StatusBadRequest, "Cannot remove your own admin access")
		return
	}
	h.setAdmin(w, r, false)
}

func (h *Handler) setAdmin(w http.ResponseWriter, r *http.Request, admin bool) {
	target := mux.Vars(r)["username"]
	if err := h.users.SetAdmin(r.Context(), target, admin); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"username": target,
		"isAdmin":  admin,
	})
}

// ChangePassword lets users change their own password with the current one.
// Admins may reset anyone's password without it.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	username, ok := requester(w, r)
	if !ok {
		return
	}
	target := mux.Vars(r)["username"]

	var req passwordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	isAdmin, err := h.users.IsAdmin(r.Context(), username)
	if err != nil {
		writeError(w, r, err)
		return
	}

	switch {
	case isAdmin && (target != username || req.CurrentPassword == ""):
		err = h.users.ResetPassword(r.Context(), target, req.NewPassword)
	case target == username:
		err = h.users.ChangePassword(r.Context(), target, req.CurrentPassword, req.NewPassword)
	default:
		err = errForbidden
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
