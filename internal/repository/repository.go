// Package repository implements all database queries for the pass and event
// registration service. It uses pgx directly (no ORM).
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/berletkezelo/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyRegistered is returned when a user already holds an active
// registration for the event.
var ErrAlreadyRegistered = errors.New("user already registered for this event")

// ErrAlreadyWaitlisted is returned when a user is already queued for the event.
var ErrAlreadyWaitlisted = errors.New("user already on the waitlist for this event")

// ErrDuplicate is returned when a unique username or email is taken.
var ErrDuplicate = errors.New("already exists")

const uniqueViolation = "23505"

// UserRepository stores members.
type UserRepository interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id int64) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// EventRepository stores events. Loaded events carry their active
// registration count.
type EventRepository interface {
	CreateEvent(ctx context.Context, e *model.Event) error
	GetEvent(ctx context.Context, id int64) (*model.Event, error)
	// LockEvent loads the event row FOR UPDATE. Every unit of work that
	// reads spots left or the active registration set starts here.
	LockEvent(ctx context.Context, id int64) (*model.Event, error)
	ListEvents(ctx context.Context, from, to time.Time) ([]model.Event, error)
	DeleteEvent(ctx context.Context, id int64) error
}

// PassRepository stores passes, their usages and pass requests.
type PassRepository interface {
	CreatePass(ctx context.Context, p *model.Pass) error
	GetPass(ctx context.Context, id int64) (*model.Pass, error)
	LockPass(ctx context.Context, id int64) (*model.Pass, error)
	// ListAvailablePasses returns the user's passes valid on day with uses
	// left, locked FOR UPDATE.
	ListAvailablePasses(ctx context.Context, userID int64, day time.Time) ([]model.Pass, error)
	ListPassesByUser(ctx context.Context, userID int64) ([]model.Pass, error)
	SetPassUsedCount(ctx context.Context, passID int64, usedCount int) error
	DeletePass(ctx context.Context, id int64) error

	InsertPassUsage(ctx context.Context, passID int64, usedOn time.Time) (int64, error)
	DeletePassUsage(ctx context.Context, usageID int64) error

	CreatePassRequest(ctx context.Context, pr *model.PassRequest) error
	LockPassRequest(ctx context.Context, id int64) (*model.PassRequest, error)
	ListPendingPassRequests(ctx context.Context) ([]model.PassRequest, error)
	UpdatePassRequest(ctx context.Context, pr *model.PassRequest) error
}

// RegistrationRepository stores event registrations.
type RegistrationRepository interface {
	InsertRegistration(ctx context.Context, r *model.EventRegistration) error
	GetRegistration(ctx context.Context, id int64) (*model.EventRegistration, error)
	GetActiveRegistration(ctx context.Context, eventID, userID int64) (*model.EventRegistration, error)
	// UpdateRegistration persists status, usage link and cancellation fields.
	UpdateRegistration(ctx context.Context, r *model.EventRegistration) error
	ListActiveRegistrations(ctx context.Context, eventID int64) ([]model.EventRegistration, error)
	ListRegistrationsByUser(ctx context.Context, userID int64) ([]model.EventRegistration, error)
	ListActiveUpcomingByUser(ctx context.Context, userID int64, now time.Time) ([]model.EventRegistration, error)
}

// WaitlistRepository stores per-event FIFO queues ordered by (created_at, id).
type WaitlistRepository interface {
	InsertWaitlistEntry(ctx context.Context, w *model.WaitlistEntry) error
	GetWaitlistEntry(ctx context.Context, id int64) (*model.WaitlistEntry, error)
	FindWaitlistEntry(ctx context.Context, eventID, userID int64) (*model.WaitlistEntry, error)
	NextWaitlistEntry(ctx context.Context, eventID int64) (*model.WaitlistEntry, error)
	ListWaitlist(ctx context.Context, eventID int64) ([]model.WaitlistEntry, error)
	DeleteWaitlistEntry(ctx context.Context, id int64) error
}

// NotificationRepository selects registrations due for a scheduled
// notification and flips their write-once flags.
type NotificationRepository interface {
	// ListReminderDue returns active registrations whose event starts in
	// (from, to] and whose reminder has not been sent.
	ListReminderDue(ctx context.Context, from, to time.Time) ([]model.Attendance, error)
	// ListPassDeductionDue returns registrations holding a pass usage, active
	// or late cancelled, whose event ended in [from, to] and which were not
	// yet notified.
	ListPassDeductionDue(ctx context.Context, from, to time.Time) ([]model.Attendance, error)
	// ListThankYouDue returns active registrations without a pass usage whose
	// event ended in [from, to] and which were not yet thanked.
	ListThankYouDue(ctx context.Context, from, to time.Time) ([]model.Attendance, error)

	// The Mark methods only move a flag from false to true and report whether
	// this call did it.
	MarkReminderSent(ctx context.Context, registrationID int64) (bool, error)
	MarkPassDeductionNotified(ctx context.Context, registrationID int64) (bool, error)
	MarkThankYouSent(ctx context.Context, registrationID int64) (bool, error)
}

// Queries is every statement the service layer runs.
type Queries interface {
	UserRepository
	EventRepository
	PassRepository
	RegistrationRepository
	WaitlistRepository
	NotificationRepository
}

// Store runs Queries either directly or inside a transaction.
type Store interface {
	Queries
	// InTx runs fn in one transaction. Any error from fn rolls back every
	// statement it issued.
	InTx(ctx context.Context, fn func(q Queries) error) error
}

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type queries struct {
	db dbtx
}

// PgStore is the PostgreSQL Store.
type PgStore struct {
	*queries
	pool *pgxpool.Pool
}

// NewPgStore constructs a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{queries: &queries{db: pool}, pool: pool}
}

// InTx begins a transaction, hands fn a Queries bound to it and commits when
// fn succeeds.
func (s *PgStore) InTx(ctx context.Context, fn func(q Queries) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	// Rollback after a successful Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&queries{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", what, err)
}

func expectOne(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
