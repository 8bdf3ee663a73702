package model

import "time"

// RegistrationType tells whether a registration is paid per occasion or
// backed by a pass.
type RegistrationType string

const (
	RegistrationSingle RegistrationType = "single"
	RegistrationPass   RegistrationType = "pass"
)

// Valid reports whether t is a known registration type.
func (t RegistrationType) Valid() bool {
	return t == RegistrationSingle || t == RegistrationPass
}

// RegistrationStatus is the state of an EventRegistration. Cancelled and
// LateCancelled are terminal.
type RegistrationStatus string

const (
	StatusActive        RegistrationStatus = "active"
	StatusCancelled     RegistrationStatus = "cancelled"
	StatusLateCancelled RegistrationStatus = "late_cancelled"
)

// PassLink ties a pass registration to the pass it was booked on.
//
// PassID becomes nil when the pass itself is deleted. UsageID becomes nil
// when the reserved entry is refunded by an on-time cancellation.
type PassLink struct {
	PassID  *int64 `json:"pass_id,omitempty"`
	UsageID *int64 `json:"pass_usage_id,omitempty"`
}

// EventRegistration is one member's relationship to one event.
//
// Pass is nil for single registrations and always set for pass
// registrations, so a pass registration without a booked pass cannot be
// expressed.
type EventRegistration struct {
	ID               int64              `json:"id"`
	EventID          int64              `json:"event_id"`
	UserID           int64              `json:"user_id"`
	Status           RegistrationStatus `json:"status"`
	Pass             *PassLink          `json:"pass,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	CancelledAt      *time.Time         `json:"cancelled_at,omitempty"`
	IsLateCancel     bool               `json:"is_late_cancel"`
	WaitlistPromoted bool               `json:"waitlist_promoted"`

	ReminderSent          bool `json:"reminder_sent"`
	PassDeductionNotified bool `json:"pass_deduction_notified"`
	ThankYouSent          bool `json:"thank_you_sent"`
}

// NewSingleRegistration returns an active registration paid per occasion.
func NewSingleRegistration(eventID, userID int64, now time.Time) *EventRegistration {
	return &EventRegistration{
		EventID:   eventID,
		UserID:    userID,
		Status:    StatusActive,
		CreatedAt: now,
	}
}

// NewPassRegistration returns an active registration holding usageID on passID.
func NewPassRegistration(eventID, userID, passID, usageID int64, now time.Time) *EventRegistration {
	r := NewSingleRegistration(eventID, userID, now)
	r.Pass = &PassLink{PassID: &passID, UsageID: &usageID}
	return r
}

// Type derives the registration type from the pass link.
func (r *EventRegistration) Type() RegistrationType {
	if r.Pass != nil {
		return RegistrationPass
	}
	return RegistrationSingle
}

// IsActive reports whether the registration still holds a spot.
func (r *EventRegistration) IsActive() bool {
	return r.Status == StatusActive
}

// PassID returns the backing pass id, or zero.
func (r *EventRegistration) PassID() int64 {
	if r.Pass == nil || r.Pass.PassID == nil {
		return 0
	}
	return *r.Pass.PassID
}

// UsageID returns the held pass usage id, or zero.
func (r *EventRegistration) UsageID() int64 {
	if r.Pass == nil || r.Pass.UsageID == nil {
		return 0
	}
	return *r.Pass.UsageID
}

// HoldsUsage reports whether a pass entry is currently deducted for this
// registration.
func (r *EventRegistration) HoldsUsage() bool {
	return r.UsageID() != 0
}

// WaitlistEntry is a queued request for a spot on a full event.
type WaitlistEntry struct {
	ID               int64            `json:"id"`
	EventID          int64            `json:"event_id"`
	UserID           int64            `json:"user_id"`
	RegistrationType RegistrationType `json:"registration_type"`
	PassID           *int64           `json:"pass_id,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// PreferredPassID returns the pass the member asked for, or zero.
func (w *WaitlistEntry) PreferredPassID() int64 {
	if w.PassID == nil {
		return 0
	}
	return *w.PassID
}

// Before orders waitlist entries by (created_at, id).
func (w *WaitlistEntry) Before(o *WaitlistEntry) bool {
	if !w.CreatedAt.Equal(o.CreatedAt) {
		return w.CreatedAt.Before(o.CreatedAt)
	}
	return w.ID < o.ID
}

// Attendance bundles a registration with the rows a notification needs.
// Pass is nil when the registration is single or the pass was deleted.
type Attendance struct {
	Registration EventRegistration
	Event        Event
	User         User
	Pass         *Pass
}
