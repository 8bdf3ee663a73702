package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/berletkezelo/internal/model"
)

// ListEvents handles GET /events
// Optional from/to bound the start time; the default is the next two weeks.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	from, err := queryTime(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := queryTime(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := h.svc.ListEvents(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, r, err, "list events")
		return
	}

	now := h.svc.Now()
	views := make([]model.EventView, 0, len(events))
	for _, e := range events {
		views = append(views, model.NewEventView(e, now))
	}
	writeJSON(w, http.StatusOK, views)
}

// GetEvent handles GET /events/{id}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	event, err := h.svc.GetEvent(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "get event")
		return
	}
	writeJSON(w, http.StatusOK, model.NewEventView(*event, h.svc.Now()))
}

// CreateEvent handles POST /admin/events
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if !h.bind(w, r, &req) {
		return
	}
	event, err := h.svc.CreateEvent(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, "create event")
		return
	}
	writeJSON(w, http.StatusCreated, model.NewEventView(*event, h.svc.Now()))
}

// DeleteEvent handles DELETE /admin/events/{id}
// Every attendee is removed with a refund before the event goes away.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteEvent(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "delete event")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Signup handles POST /events/{id}/signup
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	who, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req model.SignupRequest
	if !h.bind(w, r, &req) {
		return
	}

	reg, err := h.svc.Signup(r.Context(), who.UserID, id, req)
	if err != nil {
		writeServiceError(w, r, err, "sign up")
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

// JoinWaitlist handles POST /events/{id}/waitlist
func (h *Handler) JoinWaitlist(w http.ResponseWriter, r *http.Request) {
	who, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req model.SignupRequest
	if !h.bind(w, r, &req) {
		return
	}

	entry, err := h.svc.JoinWaitlist(r.Context(), who.UserID, id, req)
	if err != nil {
		writeServiceError(w, r, err, "join waitlist")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// LeaveWaitlist handles DELETE /events/{id}/waitlist
func (h *Handler) LeaveWaitlist(w http.ResponseWriter, r *http.Request) {
	who, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.LeaveWaitlist(r.Context(), who.UserID, id); err != nil {
		writeServiceError(w, r, err, "leave waitlist")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListWaitlist handles GET /admin/events/{id}/waitlist
func (h *Handler) ListWaitlist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	entries, err := h.svc.ListWaitlist(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "list waitlist")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(entries))
}

// ListEventRegistrations handles GET /admin/events/{id}/registrations
func (h *Handler) ListEventRegistrations(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	regs, err := h.svc.ListEventRegistrations(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "list registrations")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(regs))
}

// AdminAddRegistration handles POST /admin/events/{id}/registrations
func (h *Handler) AdminAddRegistration(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req model.AdminSignupRequest
	if !h.bind(w, r, &req) {
		return
	}

	reg, err := h.svc.AdminAddRegistration(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err, "add registration")
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}
