package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/berletkezelo/internal/model"
)

const waitlistColumns = `id, event_id, user_id, registration_type, pass_id, created_at`

func scanWaitlistEntry(row pgx.Row) (*model.WaitlistEntry, error) {
	var w model.WaitlistEntry
	if err := row.Scan(&w.ID, &w.EventID, &w.UserID, &w.RegistrationType, &w.PassID, &w.CreatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

// InsertWaitlistEntry queues w and fills in id and creation time.
func (q *queries) InsertWaitlistEntry(ctx context.Context, w *model.WaitlistEntry) error {
	err := q.db.QueryRow(ctx,
		`INSERT INTO event_waitlist (event_id, user_id, registration_type, pass_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		w.EventID, w.UserID, w.RegistrationType, w.PassID, w.CreatedAt,
	).Scan(&w.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyWaitlisted
		}
		return fmt.Errorf("insert waitlist entry: %w", err)
	}
	return nil
}

// GetWaitlistEntry returns a single entry or ErrNotFound.
func (q *queries) GetWaitlistEntry(ctx context.Context, id int64) (*model.WaitlistEntry, error) {
	w, err := scanWaitlistEntry(q.db.QueryRow(ctx,
		`SELECT `+waitlistColumns+` FROM event_waitlist WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "get waitlist entry")
	}
	return w, nil
}

// FindWaitlistEntry returns the user's entry for the event or ErrNotFound.
func (q *queries) FindWaitlistEntry(ctx context.Context, eventID, userID int64) (*model.WaitlistEntry, error) {
	w, err := scanWaitlistEntry(q.db.QueryRow(ctx,
		`SELECT `+waitlistColumns+` FROM event_waitlist WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	))
	if err != nil {
		return nil, notFound(err, "find waitlist entry")
	}
	return w, nil
}

// NextWaitlistEntry returns the oldest entry for the event or ErrNotFound.
func (q *queries) NextWaitlistEntry(ctx context.Context, eventID int64) (*model.WaitlistEntry, error) {
	w, err := scanWaitlistEntry(q.db.QueryRow(ctx,
		`SELECT `+waitlistColumns+`
		 FROM event_waitlist
		 WHERE event_id = $1
		 ORDER BY created_at, id
		 LIMIT 1`,
		eventID,
	))
	if err != nil {
		return nil, notFound(err, "next waitlist entry")
	}
	return w, nil
}

// ListWaitlist returns the event's queue in promotion order.
func (q *queries) ListWaitlist(ctx context.Context, eventID int64) ([]model.WaitlistEntry, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+waitlistColumns+` FROM event_waitlist WHERE event_id = $1 ORDER BY created_at, id`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
	}
	defer rows.Close()

	var out []model.WaitlistEntry
	for rows.Next() {
		w, err := scanWaitlistEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan waitlist entry: %w", err)
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

// DeleteWaitlistEntry removes an entry.
func (q *queries) DeleteWaitlistEntry(ctx context.Context, id int64) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM event_waitlist WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete waitlist entry: %w", err)
	}
	return expectOne(tag)
}
