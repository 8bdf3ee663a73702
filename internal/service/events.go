package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/berletkezelo/internal/model"
	"github.com/Shivanand-hulikatti/berletkezelo/internal/repository"
)

// CreateEvent validates the request and stores the event.
func (s *Service) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("%w: event name is required", ErrInvalidInput)
	}
	if req.Capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be a positive integer", ErrInvalidInput)
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, fmt.Errorf("%w: end_time must be after start_time", ErrInvalidInput)
	}
	if req.Price != nil && req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrInvalidInput)
	}

	e := &model.Event{
		Name:         req.Name,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Capacity:     req.Capacity,
		Color:        req.Color,
		Price:        req.Price,
		ImagePath:    req.ImagePath,
		IsFinalEvent: req.IsFinalEvent,
	}
	if e.Color == "" {
		e.Color = "blue"
	}
	if err := s.store.CreateEvent(ctx, e); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return e, nil
}

// GetEvent returns a single event.
func (s *Service) GetEvent(ctx context.Context, id int64) (*model.Event, error) {
	return s.store.GetEvent(ctx, id)
}

// ListEvents returns events starting in [from, to). A zero from means the
// start of today; a zero to means two weeks after from.
func (s *Service) ListEvents(ctx context.Context, from, to time.Time) ([]model.Event, error) {
	if from.IsZero() {
		from = s.today()
	}
	if to.IsZero() {
		to = from.Add(DefaultListWindow)
	}
	if !to.After(from) {
		return nil, fmt.Errorf("%w: empty range", ErrInvalidInput)
	}
	return s.store.ListEvents(ctx, from, to)
}

// DeleteEvent cancels every active registration, refunding pass entries as
// for an on-time cancellation, and then deletes the event. Nobody is
// promoted. Each removed member is told by mail.
func (s *Service) DeleteEvent(ctx context.Context, eventID int64) error {
	var (
		event   *model.Event
		removed []model.User
	)
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		var err error
		if event, err = q.LockEvent(ctx, eventID); err != nil {
			return err
		}
		regs, err := q.ListActiveRegistrations(ctx, eventID)
		if err != nil {
			return err
		}

		now := s.now()
		onTime := false
		for i := range regs {
			if err := s.cancelLocked(ctx, q, &regs[i], event, &onTime, now); err != nil {
				return fmt.Errorf("cancel registration %d: %w", regs[i].ID, err)
			}
			u, err := q.GetUser(ctx, regs[i].UserID)
			if err != nil {
				return err
			}
			removed = append(removed, *u)
		}
		return q.DeleteEvent(ctx, eventID)
	})
	if err != nil {
		return err
	}

	for _, u := range removed {
		s.mailer.UnregisterAdmin(ctx, u, *event)
	}
	return nil
}
