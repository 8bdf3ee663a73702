package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Shivanand-hulikatti/berletkezelo/internal/model"
)

const eventColumns = `e.id, e.name, e.start_time, e.end_time, e.capacity, e.color,
	e.price::text, e.image_path, e.is_final_event`

const activeCount = `(SELECT COUNT(*) FROM event_registrations r
	WHERE r.event_id = e.id AND r.status = 'active')`

// scanEvent reads eventColumns into e. price travels as text so the decimal
// keeps its exact value.
func scanEvent(row pgx.Row, e *model.Event, extra ...any) error {
	var price *string
	dest := append([]any{
		&e.ID, &e.Name, &e.StartTime, &e.EndTime, &e.Capacity, &e.Color,
		&price, &e.ImagePath, &e.IsFinalEvent,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	if price != nil {
		d, err := decimal.NewFromString(*price)
		if err != nil {
			return fmt.Errorf("parse price %q: %w", *price, err)
		}
		e.Price = &d
	}
	return nil
}

func priceArg(p *decimal.Decimal) *string {
	if p == nil {
		return nil
	}
	s := p.String()
	return &s
}

// CreateEvent inserts e and fills in its id.
func (q *queries) CreateEvent(ctx context.Context, e *model.Event) error {
	err := q.db.QueryRow(ctx,
		`INSERT INTO events (name, start_time, end_time, capacity, color, price, image_path, is_final_event)
		 VALUES ($1, $2, $3, $4, $5, $6::text::numeric, $7, $8)
		 RETURNING id`,
		e.Name, e.StartTime, e.EndTime, e.Capacity, e.Color, priceArg(e.Price), e.ImagePath, e.IsFinalEvent,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetEvent returns a single event with its active count, or ErrNotFound.
func (q *queries) GetEvent(ctx context.Context, id int64) (*model.Event, error) {
	var e model.Event
	err := scanEvent(q.db.QueryRow(ctx,
		`SELECT `+eventColumns+`, `+activeCount+` FROM events e WHERE e.id = $1`,
		id,
	), &e, &e.ActiveCount)
	if err != nil {
		return nil, notFound(err, "get event")
	}
	return &e, nil
}

// LockEvent acquires an exclusive row lock on the event and then counts its
// active registrations. Concurrent signups, cancellations and promotions for
// the same event queue up behind this lock until the holder commits.
func (q *queries) LockEvent(ctx context.Context, id int64) (*model.Event, error) {
	var e model.Event
	err := scanEvent(q.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events e WHERE e.id = $1 FOR UPDATE`,
		id,
	), &e)
	if err != nil {
		return nil, notFound(err, "lock event row")
	}

	err = q.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM event_registrations WHERE event_id = $1 AND status = 'active'`,
		id,
	).Scan(&e.ActiveCount)
	if err != nil {
		return nil, fmt.Errorf("count active registrations: %w", err)
	}
	return &e, nil
}

// ListEvents returns events starting in [from, to) ordered by start time.
func (q *queries) ListEvents(ctx context.Context, from, to time.Time) ([]model.Event, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+eventColumns+`, `+activeCount+`
		 FROM events e
		 WHERE e.start_time >= $1 AND e.start_time < $2
		 ORDER BY e.start_time, e.id`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := scanEvent(rows, &e, &e.ActiveCount); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// DeleteEvent removes the event together with its registrations and
// waitlist.
func (q *queries) DeleteEvent(ctx context.Context, id int64) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return expectOne(tag)
}
