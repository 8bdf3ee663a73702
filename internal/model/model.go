// Package model defines the core domain types for the pass and event
// registration service.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role distinguishes administrators from regular members.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a member of the service. Authentication lives elsewhere; the
// service only needs an address to notify and a role to authorize with.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Pass is a prepaid bundle of TotalUses event entries valid between
// StartDate and EndDate (both inclusive, compared as calendar days).
type Pass struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Type      string    `json:"type"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	TotalUses int       `json:"total_uses"`
	UsedCount int       `json:"used_count"`
	Comment   string    `json:"comment,omitempty"`
}

// Remaining returns the number of entries left on the pass.
func (p *Pass) Remaining() int {
	return p.TotalUses - p.UsedCount
}

// ValidOn reports whether day falls inside the validity window.
func (p *Pass) ValidOn(day time.Time) bool {
	d := dateKey(day)
	return d >= dateKey(p.StartDate) && d <= dateKey(p.EndDate)
}

// Available reports whether the pass can back a new registration on day.
func (p *Pass) Available(day time.Time) bool {
	return p.ValidOn(day) && p.UsedCount < p.TotalUses
}

// PassUsage is one consumed entry of a pass.
type PassUsage struct {
	ID     int64     `json:"id"`
	PassID int64     `json:"pass_id"`
	UsedOn time.Time `json:"used_on"`
}

// PassRequestStatus is the decision state of a PassRequest.
type PassRequestStatus string

const (
	PassRequestPending  PassRequestStatus = "pending"
	PassRequestApproved PassRequestStatus = "approved"
	PassRequestRejected PassRequestStatus = "rejected"
)

// PassRequest is a member's request for a new pass awaiting an admin.
type PassRequest struct {
	ID        int64             `json:"id"`
	UserID    int64             `json:"user_id"`
	Type      string            `json:"type"`
	TotalUses int               `json:"total_uses"`
	Status    PassRequestStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	DecidedAt *time.Time        `json:"decided_at,omitempty"`
}

// EventStatus is derived from the current time and the event window.
type EventStatus string

const (
	EventUpcoming EventStatus = "upcoming"
	EventOngoing  EventStatus = "ongoing"
	EventPast     EventStatus = "past"
)

// Event is a scheduled occurrence members can sign up for.
type Event struct {
	ID           int64            `json:"id"`
	Name         string           `json:"name"`
	StartTime    time.Time        `json:"start_time"`
	EndTime      time.Time        `json:"end_time"`
	Capacity     int              `json:"capacity"`
	Color        string           `json:"color"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	ImagePath    string           `json:"image_path,omitempty"`
	IsFinalEvent bool             `json:"is_final_event"`

	// ActiveCount is the number of active registrations, loaded alongside
	// the event row.
	ActiveCount int `json:"active_count"`
}

// SpotsLeft returns capacity minus active registrations.
func (e *Event) SpotsLeft() int {
	return e.Capacity - e.ActiveCount
}

// Status returns the lifecycle phase of the event at now.
func (e *Event) Status(now time.Time) EventStatus {
	switch {
	case now.Before(e.StartTime):
		return EventUpcoming
	case now.Before(e.EndTime):
		return EventOngoing
	default:
		return EventPast
	}
}

// Started reports whether signups are closed.
func (e *Event) Started(now time.Time) bool {
	return !now.Before(e.StartTime)
}

// dateKey maps t to yyyymmdd in its own location, so a DATE column read as
// UTC midnight compares correctly against a local timestamp.
func dateKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
