package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/berletkezelo/internal/model"
)

// CreateUser handles POST /admin/users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if !h.bind(w, r, &req) {
		return
	}
	u, err := h.svc.CreateUser(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, "create user")
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// ListUsers handles GET /admin/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "list users")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(users))
}

// DeleteUser handles DELETE /admin/users/{id}
// Upcoming spots are freed first so the waitlist can move up.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteUser(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
