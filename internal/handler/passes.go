package handler

import (
	"fmt"
	"net/http"

	"github.com/skip2/go-qrcode"

	"github.com/Shivanand-hulikatti/berletkezelo/internal/model"
)

const qrSize = 256

// MyPasses handles GET /me/passes
func (h *Handler) MyPasses(w http.ResponseWriter, r *http.Request) {
	who, ok := caller(w, r)
	if !ok {
		return
	}
	passes, err := h.svc.ListPasses(r.Context(), who.UserID)
	if err != nil {
		writeServiceError(w, r, err, "list passes")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(passes))
}

// PassQR handles GET /passes/{id}/qr
// Returns a PNG the front desk can scan to look the pass up.
func (h *Handler) PassQR(w http.ResponseWriter, r *http.Request) {
	who, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.svc.GetPass(r.Context(), who.User(), id)
	if err != nil {
		writeServiceError(w, r, err, "get pass")
		return
	}

	png, err := qrcode.Encode(passCode(*p), qrcode.Medium, qrSize)
	if err != nil {
		writeServiceError(w, r, err, "render qr code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func passCode(p model.Pass) string {
	return fmt.Sprintf("berlet:%d:%d", p.ID, p.UserID)
}

// RequestPass handles POST /me/pass-requests
func (h *Handler) RequestPass(w http.ResponseWriter, r *http.Request) {
	who, ok := caller(w, r)
	if !ok {
		return
	}
	var req model.NewPassRequest
	if !h.bind(w, r, &req) {
		return
	}
	pr, err := h.svc.RequestPass(r.Context(), who.UserID, req)
	if err != nil {
		writeServiceError(w, r, err, "request pass")
		return
	}
	writeJSON(w, http.StatusCreated, pr)
}

// CreatePass handles POST /admin/passes
func (h *Handler) CreatePass(w http.ResponseWriter, r *http.Request) {
	var req model.CreatePassRequest
	if !h.bind(w, r, &req) {
		return
	}
	p, err := h.svc.CreatePass(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, "create pass")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// DeletePass handles DELETE /admin/passes/{id}
func (h *Handler) DeletePass(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeletePass(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "delete pass")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListUserPasses handles GET /admin/users/{id}/passes
func (h *Handler) ListUserPasses(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	passes, err := h.svc.ListPasses(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "list passes")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(passes))
}

// ListPassRequests handles GET /admin/pass-requests
func (h *Handler) ListPassRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.svc.ListPendingPassRequests(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "list pass requests")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(reqs))
}

// ApprovePassRequest handles POST /admin/pass-requests/{id}/approve
func (h *Handler) ApprovePassRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req model.ApprovePassRequest
	if !h.bind(w, r, &req) {
		return
	}
	p, err := h.svc.ApprovePassRequest(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err, "approve pass request")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// RejectPassRequest handles POST /admin/pass-requests/{id}/reject
func (h *Handler) RejectPassRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.RejectPassRequest(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "reject pass request")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
