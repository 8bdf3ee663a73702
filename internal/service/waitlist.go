package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/berletkezelo/internal/model"
	"github.com/Shivanand-hulikatti/berletkezelo/internal/repository"
)

// JoinWaitlist queues userID for a full event. The pass preference is kept
// and re-evaluated when a spot frees up.
func (s *Service) JoinWaitlist(ctx context.Context, userID, eventID int64, req model.SignupRequest) (*model.WaitlistEntry, error) {
	if !req.RegistrationType.Valid() {
		return nil, fmt.Errorf("%w: registration_type %q", ErrInvalidInput, req.RegistrationType)
	}

	var entry *model.WaitlistEntry
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		if _, err := q.GetUser(ctx, userID); err != nil {
			return err
		}
		event, err := q.LockEvent(ctx, eventID)
		if err != nil {
			return err
		}

		now := s.now()
		if event.Started(now) {
			return ErrEventAlreadyStarted
		}
		if err := ensureNotRegistered(ctx, q, eventID, userID); err != nil {
			return err
		}
		_, err = q.FindWaitlistEntry(ctx, eventID, userID)
		switch {
		case err == nil:
			return ErrAlreadyWaitlisted
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}
		if event.SpotsLeft() > 0 {
			return ErrSpotsAvailable
		}
		if req.RegistrationType == model.RegistrationPass && event.IsFinalEvent {
			return ErrPassNotAllowed
		}

		entry = &model.WaitlistEntry{
			EventID:          eventID,
			UserID:           userID,
			RegistrationType: req.RegistrationType,
			CreatedAt:        now,
		}
		if req.RegistrationType == model.RegistrationPass {
			entry.PassID = req.PassID
		}
		return q.InsertWaitlistEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// LeaveWaitlist removes userID from the event's queue.
func (s *Service) LeaveWaitlist(ctx context.Context, userID, eventID int64) error {
	return s.store.InTx(ctx, func(q repository.Queries) error {
		entry, err := q.FindWaitlistEntry(ctx, eventID, userID)
		if err != nil {
			return err
		}
		return q.DeleteWaitlistEntry(ctx, entry.ID)
	})
}

// ListWaitlist returns an event's queue in promotion order.
func (s *Service) ListWaitlist(ctx context.Context, eventID int64) ([]model.WaitlistEntry, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListWaitlist(ctx, eventID)
}

type promotion struct {
	reg   *model.EventRegistration
	event *model.Event
	user  *model.User
}

// tryPromote turns entry into a registration. The caller holds the event
// lock and has checked capacity. Promotion failures write nothing.
func (s *Service) tryPromote(
	ctx context.Context,
	q repository.Queries,
	event *model.Event,
	entry *model.WaitlistEntry,
	now time.Time,
) (*promotion, error) {
	user, err := q.GetUser(ctx, entry.UserID)
	if err != nil {
		return nil, err
	}
	if err := ensureNotRegistered(ctx, q, event.ID, entry.UserID); err != nil {
		return nil, err
	}
	reg, err := s.newRegistration(ctx, q, event, entry.UserID, entry.RegistrationType, entry.PreferredPassID(), now)
	if err != nil {
		return nil, err
	}
	reg.WaitlistPromoted = true
	if err := q.InsertRegistration(ctx, reg); err != nil {
		return nil, err
	}
	return &promotion{reg: reg, event: event, user: user}, nil
}

// promoteNext handles the head of the queue in its own transaction. done is
// true when there is nothing more to do: no free spot, no entry, or the
// event has started. An entry that cannot be promoted is dropped.
func (s *Service) promoteNext(ctx context.Context, eventID int64) (p *promotion, done bool, err error) {
	err = s.store.InTx(ctx, func(q repository.Queries) error {
		event, err := q.LockEvent(ctx, eventID)
		if err != nil {
			return err
		}
		now := s.now()
		if event.Started(now) || event.SpotsLeft() <= 0 {
			done = true
			return nil
		}
		entry, err := q.NextWaitlistEntry(ctx, eventID)
		if errors.Is(err, repository.ErrNotFound) {
			done = true
			return nil
		}
		if err != nil {
			return err
		}

		p, err = s.tryPromote(ctx, q, event, entry, now)
		if err != nil {
			if !promotionFailure(err) {
				return err
			}
			logCommandError(ctx, "waitlist entry dropped", err,
				"event_id", eventID, "user_id", entry.UserID, "entry_id", entry.ID)
		}
		return q.DeleteWaitlistEntry(ctx, entry.ID)
	})
	return p, done, err
}

// promote fills free spots of an upcoming event from its waitlist until the
// event is full or the queue is empty. Errors are logged; the vacating
// command has already committed.
func (s *Service) promote(ctx context.Context, eventID int64) int {
	promoted := 0
	for {
		p, done, err := s.promoteNext(ctx, eventID)
		if err != nil {
			logCommandError(ctx, "waitlist promotion failed", err, "event_id", eventID)
			return promoted
		}
		if done {
			return promoted
		}
		if p != nil {
			promoted++
			s.mailer.SignupUser(ctx, *p.user, *p.event, true)
		}
	}
}

// PromoteWaitlistEntry promotes one specific entry on an administrator's
// request. Unlike the automatic loop it reports why an entry cannot be
// promoted and leaves it queued.
func (s *Service) PromoteWaitlistEntry(ctx context.Context, entryID int64) (*model.EventRegistration, error) {
	var p *promotion
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		entry, err := q.GetWaitlistEntry(ctx, entryID)
		if err != nil {
			return err
		}
		event, err := q.LockEvent(ctx, entry.EventID)
		if err != nil {
			return err
		}
		now := s.now()
		if event.Started(now) {
			return ErrEventAlreadyStarted
		}
		if event.SpotsLeft() <= 0 {
			return ErrSpotsUnavailable
		}
		if p, err = s.tryPromote(ctx, q, event, entry, now); err != nil {
			return err
		}
		return q.DeleteWaitlistEntry(ctx, entry.ID)
	})
	if err != nil {
		return nil, err
	}
	s.mailer.SignupUser(ctx, *p.user, *p.event, true)
	return p.reg, nil
}
