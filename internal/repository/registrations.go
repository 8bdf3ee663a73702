package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/berletkezelo/internal/model"
)

const registrationColumns = `r.id, r.event_id, r.user_id, r.registration_type, r.status,
	r.pass_id, r.pass_usage_id, r.created_at, r.cancelled_at, r.is_late_cancel,
	r.waitlist_promoted, r.reminder_sent, r.pass_deduction_notified, r.thank_you_sent`

// registrationScan holds the destinations for registrationColumns until the
// pass link can be assembled.
type registrationScan struct {
	reg     model.EventRegistration
	regType model.RegistrationType
	passID  *int64
	usageID *int64
}

func (s *registrationScan) dest() []any {
	r := &s.reg
	return []any{
		&r.ID, &r.EventID, &r.UserID, &s.regType, &r.Status,
		&s.passID, &s.usageID, &r.CreatedAt, &r.CancelledAt, &r.IsLateCancel,
		&r.WaitlistPromoted, &r.ReminderSent, &r.PassDeductionNotified, &r.ThankYouSent,
	}
}

func (s *registrationScan) result() *model.EventRegistration {
	if s.regType == model.RegistrationPass {
		s.reg.Pass = &model.PassLink{PassID: s.passID, UsageID: s.usageID}
	}
	return &s.reg
}

func scanRegistration(row pgx.Row) (*model.EventRegistration, error) {
	var s registrationScan
	if err := row.Scan(s.dest()...); err != nil {
		return nil, err
	}
	return s.result(), nil
}

func collectRegistrations(rows pgx.Rows) ([]model.EventRegistration, error) {
	defer rows.Close()
	var regs []model.EventRegistration
	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, *r)
	}
	return regs, rows.Err()
}

// InsertRegistration creates the row and fills in its id. A second active
// row for the same (event, user) trips the partial unique index and is
// reported as ErrAlreadyRegistered.
func (q *queries) InsertRegistration(ctx context.Context, r *model.EventRegistration) error {
	var passID, usageID *int64
	if r.Pass != nil {
		passID, usageID = r.Pass.PassID, r.Pass.UsageID
	}
	err := q.db.QueryRow(ctx,
		`INSERT INTO event_registrations
		   (event_id, user_id, registration_type, status, pass_id, pass_usage_id, created_at, waitlist_promoted)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		r.EventID, r.UserID, r.Type(), r.Status, passID, usageID, r.CreatedAt, r.WaitlistPromoted,
	).Scan(&r.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyRegistered
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

// GetRegistration returns a single registration or ErrNotFound.
func (q *queries) GetRegistration(ctx context.Context, id int64) (*model.EventRegistration, error) {
	r, err := scanRegistration(q.db.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM event_registrations r WHERE r.id = $1`, id))
	if err != nil {
		return nil, notFound(err, "get registration")
	}
	return r, nil
}

// GetActiveRegistration returns the user's active registration for the
// event or ErrNotFound.
func (q *queries) GetActiveRegistration(ctx context.Context, eventID, userID int64) (*model.EventRegistration, error) {
	r, err := scanRegistration(q.db.QueryRow(ctx,
		`SELECT `+registrationColumns+`
		 FROM event_registrations r
		 WHERE r.event_id = $1 AND r.user_id = $2 AND r.status = 'active'`,
		eventID, userID,
	))
	if err != nil {
		return nil, notFound(err, "get active registration")
	}
	return r, nil
}

// UpdateRegistration writes back the mutable lifecycle fields.
func (q *queries) UpdateRegistration(ctx context.Context, r *model.EventRegistration) error {
	var usageID *int64
	if r.Pass != nil {
		usageID = r.Pass.UsageID
	}
	tag, err := q.db.Exec(ctx,
		`UPDATE event_registrations
		 SET status = $2, pass_usage_id = $3, cancelled_at = $4, is_late_cancel = $5
		 WHERE id = $1`,
		r.ID, r.Status, usageID, r.CancelledAt, r.IsLateCancel,
	)
	if err != nil {
		return fmt.Errorf("update registration: %w", err)
	}
	return expectOne(tag)
}

// ListActiveRegistrations returns the event's active registrations in
// signup order.
func (q *queries) ListActiveRegistrations(ctx context.Context, eventID int64) ([]model.EventRegistration, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+registrationColumns+`
		 FROM event_registrations r
		 WHERE r.event_id = $1 AND r.status = 'active'
		 ORDER BY r.created_at, r.id`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list active registrations: %w", err)
	}
	return collectRegistrations(rows)
}

// ListRegistrationsByUser returns the user's full registration history,
// newest first.
func (q *queries) ListRegistrationsByUser(ctx context.Context, userID int64) ([]model.EventRegistration, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+registrationColumns+`
		 FROM event_registrations r
		 WHERE r.user_id = $1
		 ORDER BY r.created_at DESC, r.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list user registrations: %w", err)
	}
	return collectRegistrations(rows)
}

// ListActiveUpcomingByUser returns active registrations for events that
// have not started at now.
func (q *queries) ListActiveUpcomingByUser(ctx context.Context, userID int64, now time.Time) ([]model.EventRegistration, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+registrationColumns+`
		 FROM event_registrations r
		 JOIN events e ON e.id = r.event_id
		 WHERE r.user_id = $1 AND r.status = 'active' AND e.start_time > $2
		 ORDER BY e.start_time, r.id`,
		userID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("list upcoming registrations: %w", err)
	}
	return collectRegistrations(rows)
}
