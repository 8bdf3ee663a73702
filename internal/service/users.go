package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/berletkezelo/internal/model"
)

// CreateUser adds a member.
func (s *Service) CreateUser(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	u := &model.User{
		Username: strings.TrimSpace(req.Username),
		Email:    strings.TrimSpace(strings.ToLower(req.Email)),
		Role:     req.Role,
	}
	if u.Username == "" || u.Email == "" {
		return nil, fmt.Errorf("%w: username and email are required", ErrInvalidInput)
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// GetUser returns a single member.
func (s *Service) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.store.GetUser(ctx, id)
}

// ListUsers returns all members.
func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.store.ListUsers(ctx)
}

// DeleteUser first frees the member's spots on upcoming events, letting
// the waitlist move up, and then deletes the member with everything they
// own.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	if _, err := s.store.GetUser(ctx, id); err != nil {
		return err
	}
	regs, err := s.store.ListActiveUpcomingByUser(ctx, id, s.now())
	if err != nil {
		return err
	}
	for _, r := range regs {
		if _, err := s.adminRemove(ctx, r.ID, false); err != nil {
			return fmt.Errorf("remove registration %d: %w", r.ID, err)
		}
	}
	return s.store.DeleteUser(ctx, id)
}
