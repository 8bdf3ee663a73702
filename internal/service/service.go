// Package service implements the business rules of the pass and event
// registration service: reserving and refunding pass entries, the
// registration lifecycle, waitlist promotion and the scheduled notification
// sweep. Every command runs in one repository transaction; mail goes out
// after commit and never affects the outcome of the command.
package service

import (
	"time"

	"github.com/Shivanand-hulikatti/berletkezelo/internal/model"
	"github.com/Shivanand-hulikatti/berletkezelo/internal/notify"
	"github.com/Shivanand-hulikatti/berletkezelo/internal/repository"
)

const (
	// LateCancelWindow is how close to the start a cancellation counts as
	// late. Late cancellations keep the pass deduction.
	LateCancelWindow = 48 * time.Hour

	// ReminderWindow is how far ahead the sweep reminds attendees.
	ReminderWindow = 24 * time.Hour

	// PostEventWindow is how long after the end the sweep still sends
	// deduction notices and thank-you mails.
	PostEventWindow = 36 * time.Hour

	// DefaultListWindow is the event list span when no range is given.
	DefaultListWindow = 14 * 24 * time.Hour
)

// Service orchestrates every user and admin command.
type Service struct {
	store  repository.Store
	mailer *notify.Mailer
	now    func() time.Time
	loc    *time.Location
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone that decides which calendar day "today" is for
// pass validity.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// New constructs a Service with its dependencies.
func New(store repository.Store, mailer *notify.Mailer, opts ...Option) *Service {
	s := &Service{store: store, mailer: mailer, now: time.Now, loc: time.UTC}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// today is the current calendar day in the service location.
func (s *Service) today() time.Time {
	return model.Day(s.now().In(s.loc))
}

// Now returns the service clock reading.
func (s *Service) Now() time.Time {
	return s.now()
}
