package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Name         string           `json:"name" validate:"required,max=150"`
	StartTime    time.Time        `json:"start_time" validate:"required"`
	EndTime      time.Time        `json:"end_time" validate:"required,gtfield=StartTime"`
	Capacity     int              `json:"capacity" validate:"required,min=1,max=100000"`
	Color        string           `json:"color" validate:"omitempty,max=20"`
	Price        *decimal.Decimal `json:"price"`
	ImagePath    string           `json:"image_path" validate:"omitempty,max=255"`
	IsFinalEvent bool             `json:"is_final_event"`
}

// SignupRequest is the payload for signing up or joining a waitlist.
type SignupRequest struct {
	RegistrationType RegistrationType `json:"registration_type" validate:"required,oneof=single pass"`
	PassID           *int64           `json:"pass_id" validate:"omitempty,min=1"`
}

// AdminSignupRequest is the payload for an admin adding a member to an event.
type AdminSignupRequest struct {
	UserID int64 `json:"user_id" validate:"required,min=1"`
	SignupRequest
}

// CreateUserRequest is the payload for an admin creating a member.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Email    string `json:"email" validate:"required,email,max=150"`
	Role     Role   `json:"role" validate:"omitempty,oneof=user admin"`
}

// CreatePassRequest is the payload for an admin issuing a pass.
type CreatePassRequest struct {
	UserID    int64     `json:"user_id" validate:"required,min=1"`
	Type      string    `json:"type" validate:"required,max=100"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
	TotalUses int       `json:"total_uses" validate:"required,min=1"`
	Comment   string    `json:"comment" validate:"omitempty,max=255"`
}

// NewPassRequest is the payload for a member requesting a pass.
type NewPassRequest struct {
	Type      string `json:"type" validate:"required,max=100"`
	TotalUses int    `json:"total_uses" validate:"required,min=1"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// EventView is an event as returned to clients.
type EventView struct {
	Event
	SpotsLeft int         `json:"spots_left"`
	Status    EventStatus `json:"status"`
}

// NewEventView derives the client view of e at now.
func NewEventView(e Event, now time.Time) EventView {
	return EventView{Event: e, SpotsLeft: e.SpotsLeft(), Status: e.Status(now)}
}

// ApprovePassRequest is the payload for an admin approving a pass request.
// The approved pass gets the requested type and number of uses.
type ApprovePassRequest struct {
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
	Comment   string    `json:"comment" validate:"omitempty,max=255"`
}
