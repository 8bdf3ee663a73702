package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Shivanand-hulikatti/berletkezelo/internal/model"
	"github.com/Shivanand-hulikatti/berletkezelo/internal/repository"
)

// reserve takes one entry from a pass of userID and returns the pass and the
// new usage id. The preferred pass wins when it is usable; otherwise the
// soonest-expiring available pass is used, lowest id first.
func (s *Service) reserve(ctx context.Context, q repository.Queries, userID, preferredPassID int64) (int64, int64, error) {
	day := s.today()

	if preferredPassID != 0 {
		p, err := q.LockPass(ctx, preferredPassID)
		switch {
		case err == nil && p.UserID == userID && p.Available(day):
			return s.consume(ctx, q, p)
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return 0, 0, err
		}
	}

	passes, err := q.ListAvailablePasses(ctx, userID, day)
	if err != nil {
		return 0, 0, err
	}
	candidates := passes[:0]
	for _, p := range passes {
		if p.Available(day) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return 0, 0, ErrNoAvailablePass
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if !a.EndDate.Equal(b.EndDate) {
			return a.EndDate.Before(b.EndDate)
		}
		return a.ID < b.ID
	})
	return s.consume(ctx, q, &candidates[0])
}

func (s *Service) consume(ctx context.Context, q repository.Queries, p *model.Pass) (int64, int64, error) {
	if p.UsedCount >= p.TotalUses {
		return 0, 0, ErrNoAvailablePass
	}
	if err := q.SetPassUsedCount(ctx, p.ID, p.UsedCount+1); err != nil {
		return 0, 0, err
	}
	usageID, err := q.InsertPassUsage(ctx, p.ID, s.now())
	if err != nil {
		return 0, 0, err
	}
	return p.ID, usageID, nil
}

// release refunds the entry held by r and clears its usage link. The pass
// counter never goes below zero, and a pass that no longer exists only
// loses the usage row.
func (s *Service) release(ctx context.Context, q repository.Queries, r *model.EventRegistration) error {
	if !r.HoldsUsage() {
		return nil
	}
	if passID := r.PassID(); passID != 0 {
		p, err := q.LockPass(ctx, passID)
		switch {
		case err == nil:
			if err := q.SetPassUsedCount(ctx, p.ID, max(p.UsedCount-1, 0)); err != nil {
				return err
			}
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}
	}
	if err := q.DeletePassUsage(ctx, r.UsageID()); err != nil {
		return err
	}
	r.Pass.UsageID = nil
	return nil
}

// CreatePass issues a pass to a member and notifies them.
func (s *Service) CreatePass(ctx context.Context, req model.CreatePassRequest) (*model.Pass, error) {
	req.Type = strings.TrimSpace(req.Type)
	if req.Type == "" || req.TotalUses <= 0 {
		return nil, fmt.Errorf("%w: type and total_uses are required", ErrInvalidInput)
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, fmt.Errorf("%w: end_date before start_date", ErrInvalidInput)
	}

	user, err := s.store.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	p := &model.Pass{
		UserID:    user.ID,
		Type:      req.Type,
		StartDate: model.Day(req.StartDate),
		EndDate:   model.Day(req.EndDate),
		TotalUses: req.TotalUses,
		Comment:   req.Comment,
	}
	if err := s.store.CreatePass(ctx, p); err != nil {
		return nil, fmt.Errorf("create pass: %w", err)
	}
	s.mailer.PassCreated(ctx, *user, *p)
	return p, nil
}

// DeletePass removes a pass. Registrations booked on it keep their usage
// id so the deduction sweep can observe the pass is gone.
func (s *Service) DeletePass(ctx context.Context, passID int64) error {
	var (
		p    *model.Pass
		user *model.User
	)
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		var err error
		if p, err = q.LockPass(ctx, passID); err != nil {
			return err
		}
		if user, err = q.GetUser(ctx, p.UserID); err != nil {
			return err
		}
		return q.DeletePass(ctx, passID)
	})
	if err != nil {
		return err
	}
	s.mailer.PassDeleted(ctx, *user, *p)
	return nil
}

// GetPass returns a pass visible to the caller: its owner or an admin.
func (s *Service) GetPass(ctx context.Context, caller model.User, passID int64) (*model.Pass, error) {
	p, err := s.store.GetPass(ctx, passID)
	if err != nil {
		return nil, err
	}
	if p.UserID != caller.ID && caller.Role != model.RoleAdmin {
		return nil, ErrForbidden
	}
	return p, nil
}

// ListPasses returns every pass a member owns.
func (s *Service) ListPasses(ctx context.Context, userID int64) ([]model.Pass, error) {
	return s.store.ListPassesByUser(ctx, userID)
}

// RequestPass records a member's request and tells the administrator.
func (s *Service) RequestPass(ctx context.Context, userID int64, req model.NewPassRequest) (*model.PassRequest, error) {
	req.Type = strings.TrimSpace(req.Type)
	if req.Type == "" || req.TotalUses <= 0 {
		return nil, fmt.Errorf("%w: type and total_uses are required", ErrInvalidInput)
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	pr := &model.PassRequest{
		UserID:    userID,
		Type:      req.Type,
		TotalUses: req.TotalUses,
		Status:    model.PassRequestPending,
	}
	if err := s.store.CreatePassRequest(ctx, pr); err != nil {
		return nil, fmt.Errorf("create pass request: %w", err)
	}
	s.mailer.PassRequestAdmin(ctx, *user, *pr)
	return pr, nil
}

// ListPendingPassRequests returns undecided requests, oldest first.
func (s *Service) ListPendingPassRequests(ctx context.Context) ([]model.PassRequest, error) {
	return s.store.ListPendingPassRequests(ctx)
}

// ApprovePassRequest issues the requested pass and closes the request.
func (s *Service) ApprovePassRequest(ctx context.Context, requestID int64, req model.ApprovePassRequest) (*model.Pass, error) {
	if req.EndDate.Before(req.StartDate) {
		return nil, fmt.Errorf("%w: end_date before start_date", ErrInvalidInput)
	}

	var (
		p    *model.Pass
		user *model.User
	)
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		pr, err := q.LockPassRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if pr.Status != model.PassRequestPending {
			return ErrPassRequestDecided
		}
		if user, err = q.GetUser(ctx, pr.UserID); err != nil {
			return err
		}
		p = &model.Pass{
			UserID:    pr.UserID,
			Type:      pr.Type,
			StartDate: model.Day(req.StartDate),
			EndDate:   model.Day(req.EndDate),
			TotalUses: pr.TotalUses,
			Comment:   req.Comment,
		}
		if err := q.CreatePass(ctx, p); err != nil {
			return err
		}
		now := s.now()
		pr.Status = model.PassRequestApproved
		pr.DecidedAt = &now
		return q.UpdatePassRequest(ctx, pr)
	})
	if err != nil {
		return nil, err
	}
	s.mailer.PassCreated(ctx, *user, *p)
	return p, nil
}

// RejectPassRequest closes a request without issuing a pass.
func (s *Service) RejectPassRequest(ctx context.Context, requestID int64) error {
	return s.store.InTx(ctx, func(q repository.Queries) error {
		pr, err := q.LockPassRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if pr.Status != model.PassRequestPending {
			return ErrPassRequestDecided
		}
		now := s.now()
		pr.Status = model.PassRequestRejected
		pr.DecidedAt = &now
		return q.UpdatePassRequest(ctx, pr)
	})
}
