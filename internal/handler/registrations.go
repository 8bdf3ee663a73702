package handler

import (
	"net/http"
)

// Cancel handles POST /registrations/{id}/cancel
// Inside 48 hours of the start the pass entry stays deducted.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	who, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	reg, err := h.svc.Cancel(r.Context(), who.UserID, id)
	if err != nil {
		writeServiceError(w, r, err, "cancel registration")
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// MyRegistrations handles GET /me/registrations
func (h *Handler) MyRegistrations(w http.ResponseWriter, r *http.Request) {
	who, ok := caller(w, r)
	if !ok {
		return
	}
	regs, err := h.svc.ListRegistrations(r.Context(), who.UserID)
	if err != nil {
		writeServiceError(w, r, err, "list registrations")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(regs))
}

// AdminRemoveRegistration handles DELETE /admin/registrations/{id}
func (h *Handler) AdminRemoveRegistration(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	reg, err := h.svc.AdminRemoveRegistration(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "remove registration")
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// PromoteWaitlistEntry handles POST /admin/waitlist/{id}/promote
func (h *Handler) PromoteWaitlistEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	reg, err := h.svc.PromoteWaitlistEntry(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "promote waitlist entry")
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}
