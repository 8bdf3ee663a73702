package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Shivanand-hulikatti/berletkezelo/internal/model"
	"github.com/Shivanand-hulikatti/berletkezelo/internal/repository"
)

// newRegistration builds an active registration of typ for userID,
// reserving a pass entry when typ is pass. Nothing is written when it fails.
func (s *Service) newRegistration(
	ctx context.Context,
	q repository.Queries,
	event *model.Event,
	userID int64,
	typ model.RegistrationType,
	preferredPassID int64,
	now time.Time,
) (*model.EventRegistration, error) {
	switch typ {
	case model.RegistrationSingle:
		return model.NewSingleRegistration(event.ID, userID, now), nil
	case model.RegistrationPass:
		if event.IsFinalEvent {
			return nil, ErrPassNotAllowed
		}
		passID, usageID, err := s.reserve(ctx, q, userID, preferredPassID)
		if err != nil {
			return nil, err
		}
		return model.NewPassRegistration(event.ID, userID, passID, usageID, now), nil
	}
	return nil, fmt.Errorf("%w: registration_type %q", ErrInvalidInput, typ)
}

func ensureNotRegistered(ctx context.Context, q repository.Queries, eventID, userID int64) error {
	_, err := q.GetActiveRegistration(ctx, eventID, userID)
	switch {
	case err == nil:
		return ErrAlreadyRegistered
	case errors.Is(err, repository.ErrNotFound):
		return nil
	}
	return err
}

func preferredPass(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}

// Signup registers userID for eventID.
func (s *Service) Signup(ctx context.Context, userID, eventID int64, req model.SignupRequest) (*model.EventRegistration, error) {
	return s.signup(ctx, userID, eventID, req, false)
}

// AdminAddRegistration registers a member on an administrator's behalf. The
// event may already have started.
func (s *Service) AdminAddRegistration(ctx context.Context, eventID int64, req model.AdminSignupRequest) (*model.EventRegistration, error) {
	return s.signup(ctx, req.UserID, eventID, req.SignupRequest, true)
}

func (s *Service) signup(ctx context.Context, userID, eventID int64, req model.SignupRequest, byAdmin bool) (*model.EventRegistration, error) {
	if !req.RegistrationType.Valid() {
		return nil, fmt.Errorf("%w: registration_type %q", ErrInvalidInput, req.RegistrationType)
	}

	var (
		reg   *model.EventRegistration
		event *model.Event
		user  *model.User
	)
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		var err error
		if user, err = q.GetUser(ctx, userID); err != nil {
			return err
		}
		if event, err = q.LockEvent(ctx, eventID); err != nil {
			return err
		}

		now := s.now()
		if !byAdmin && event.Started(now) {
			return ErrEventAlreadyStarted
		}
		if err := ensureNotRegistered(ctx, q, eventID, userID); err != nil {
			return err
		}
		if event.SpotsLeft() <= 0 {
			return ErrSpotsUnavailable
		}

		reg, err = s.newRegistration(ctx, q, event, userID, req.RegistrationType, preferredPass(req.PassID), now)
		if err != nil {
			return err
		}
		if err := q.InsertRegistration(ctx, reg); err != nil {
			return err
		}

		entry, err := q.FindWaitlistEntry(ctx, eventID, userID)
		switch {
		case err == nil:
			return q.DeleteWaitlistEntry(ctx, entry.ID)
		case errors.Is(err, repository.ErrNotFound):
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if byAdmin {
		s.mailer.SignupAdmin(ctx, *user, *event)
	} else {
		s.mailer.SignupUser(ctx, *user, *event, false)
	}
	return reg, nil
}

// cancelLocked moves an active registration to its terminal state. The
// caller holds the event lock. late is derived from the time left before
// the start unless forceLate overrides it.
func (s *Service) cancelLocked(
	ctx context.Context,
	q repository.Queries,
	reg *model.EventRegistration,
	event *model.Event,
	forceLate *bool,
	now time.Time,
) error {
	if !reg.IsActive() {
		return ErrRegistrationInactive
	}

	late := event.StartTime.Sub(now) <= LateCancelWindow
	if forceLate != nil {
		late = *forceLate
	}

	if late {
		reg.Status = model.StatusLateCancelled
		// IsLateCancel marks a kept pass entry.
		reg.IsLateCancel = reg.Pass != nil
	} else {
		reg.Status = model.StatusCancelled
		if err := s.release(ctx, q, reg); err != nil {
			return err
		}
	}
	reg.CancelledAt = &now
	return q.UpdateRegistration(ctx, reg)
}

type cancellation struct {
	reg   *model.EventRegistration
	event *model.Event
	user  *model.User
}

// cancel runs one cancellation transaction. check, when set, runs under the
// event lock before anything changes.
func (s *Service) cancel(
	ctx context.Context,
	registrationID int64,
	forceLate *bool,
	check func(*model.EventRegistration, *model.Event, time.Time) error,
) (*cancellation, error) {
	var c cancellation
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		first, err := q.GetRegistration(ctx, registrationID)
		if err != nil {
			return err
		}
		if c.event, err = q.LockEvent(ctx, first.EventID); err != nil {
			return err
		}
		// Re-read under the event lock.
		if c.reg, err = q.GetRegistration(ctx, registrationID); err != nil {
			return err
		}
		if c.user, err = q.GetUser(ctx, c.reg.UserID); err != nil {
			return err
		}

		now := s.now()
		if check != nil {
			if err := check(c.reg, c.event, now); err != nil {
				return err
			}
		}
		return s.cancelLocked(ctx, q, c.reg, c.event, forceLate, now)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Cancel withdraws a member from an event they signed up for. Whether the
// pass entry is refunded depends on how long before the start it happens;
// cancelling after the start is always late.
func (s *Service) Cancel(ctx context.Context, userID, registrationID int64) (*model.EventRegistration, error) {
	c, err := s.cancel(ctx, registrationID, nil, func(r *model.EventRegistration, _ *model.Event, _ time.Time) error {
		if r.UserID != userID {
			return ErrForbidden
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.mailer.UnregisterUser(ctx, *c.user, *c.event, *c.reg)
	s.promote(ctx, c.event.ID)
	return c.reg, nil
}

// AdminRemoveRegistration removes a member on an administrator's behalf.
// Admin removals always refund the pass entry.
func (s *Service) AdminRemoveRegistration(ctx context.Context, registrationID int64) (*model.EventRegistration, error) {
	return s.adminRemove(ctx, registrationID, true)
}

func (s *Service) adminRemove(ctx context.Context, registrationID int64, notifyUser bool) (*model.EventRegistration, error) {
	onTime := false
	c, err := s.cancel(ctx, registrationID, &onTime, nil)
	if err != nil {
		return nil, err
	}
	if notifyUser {
		s.mailer.UnregisterAdmin(ctx, *c.user, *c.event)
	}
	s.promote(ctx, c.event.ID)
	return c.reg, nil
}

// ListRegistrations returns a member's registration history.
func (s *Service) ListRegistrations(ctx context.Context, userID int64) ([]model.EventRegistration, error) {
	return s.store.ListRegistrationsByUser(ctx, userID)
}

// ListEventRegistrations returns an event's active registrations.
func (s *Service) ListEventRegistrations(ctx context.Context, eventID int64) ([]model.EventRegistration, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListActiveRegistrations(ctx, eventID)
}

func logCommandError(ctx context.Context, msg string, err error, args ...any) {
	slog.ErrorContext(ctx, msg, append(args, "error", err)...)
}
