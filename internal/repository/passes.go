package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/berletkezelo/internal/model"
)

const passColumns = `id, user_id, type, start_date, end_date, total_uses, used_count, comment`

func scanPass(row pgx.Row) (*model.Pass, error) {
	var p model.Pass
	err := row.Scan(&p.ID, &p.UserID, &p.Type, &p.StartDate, &p.EndDate, &p.TotalUses, &p.UsedCount, &p.Comment)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPasses(rows pgx.Rows) ([]model.Pass, error) {
	defer rows.Close()
	var passes []model.Pass
	for rows.Next() {
		p, err := scanPass(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pass: %w", err)
		}
		passes = append(passes, *p)
	}
	return passes, rows.Err()
}

// CreatePass inserts p and fills in its id.
func (q *queries) CreatePass(ctx context.Context, p *model.Pass) error {
	err := q.db.QueryRow(ctx,
		`INSERT INTO passes (user_id, type, start_date, end_date, total_uses, used_count, comment)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		p.UserID, p.Type, p.StartDate, p.EndDate, p.TotalUses, p.UsedCount, p.Comment,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert pass: %w", err)
	}
	return nil
}

// GetPass returns a single pass or ErrNotFound.
func (q *queries) GetPass(ctx context.Context, id int64) (*model.Pass, error) {
	p, err := scanPass(q.db.QueryRow(ctx, `SELECT `+passColumns+` FROM passes WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "get pass")
	}
	return p, nil
}

// LockPass returns the pass locked FOR UPDATE.
func (q *queries) LockPass(ctx context.Context, id int64) (*model.Pass, error) {
	p, err := scanPass(q.db.QueryRow(ctx, `SELECT `+passColumns+` FROM passes WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "lock pass")
	}
	return p, nil
}

// ListAvailablePasses returns usable passes soonest-expiring first.
func (q *queries) ListAvailablePasses(ctx context.Context, userID int64, day time.Time) ([]model.Pass, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+passColumns+`
		 FROM passes
		 WHERE user_id = $1
		   AND start_date <= $2::date AND end_date >= $2::date
		   AND used_count < total_uses
		 ORDER BY end_date, id
		 FOR UPDATE`,
		userID, day,
	)
	if err != nil {
		return nil, fmt.Errorf("list available passes: %w", err)
	}
	return collectPasses(rows)
}

// ListPassesByUser returns every pass the user owns, newest first.
func (q *queries) ListPassesByUser(ctx context.Context, userID int64) ([]model.Pass, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+passColumns+` FROM passes WHERE user_id = $1 ORDER BY end_date DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list passes: %w", err)
	}
	return collectPasses(rows)
}

// SetPassUsedCount overwrites the consumed counter.
func (q *queries) SetPassUsedCount(ctx context.Context, passID int64, usedCount int) error {
	tag, err := q.db.Exec(ctx, `UPDATE passes SET used_count = $2 WHERE id = $1`, passID, usedCount)
	if err != nil {
		return fmt.Errorf("update used_count: %w", err)
	}
	return expectOne(tag)
}

// DeletePass removes the pass and its usages. Registrations keep their
// usage id and lose the pass id.
func (q *queries) DeletePass(ctx context.Context, id int64) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM passes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete pass: %w", err)
	}
	return expectOne(tag)
}

// InsertPassUsage records one consumed entry and returns its id.
func (q *queries) InsertPassUsage(ctx context.Context, passID int64, usedOn time.Time) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx,
		`INSERT INTO pass_usages (pass_id, used_on) VALUES ($1, $2) RETURNING id`,
		passID, usedOn,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert pass usage: %w", err)
	}
	return id, nil
}

// DeletePassUsage removes a usage row. A row already gone with its pass is
// not an error.
func (q *queries) DeletePassUsage(ctx context.Context, usageID int64) error {
	if _, err := q.db.Exec(ctx, `DELETE FROM pass_usages WHERE id = $1`, usageID); err != nil {
		return fmt.Errorf("delete pass usage: %w", err)
	}
	return nil
}

const passRequestColumns = `id, user_id, type, total_uses, status, created_at, decided_at`

func scanPassRequest(row pgx.Row) (*model.PassRequest, error) {
	var pr model.PassRequest
	err := row.Scan(&pr.ID, &pr.UserID, &pr.Type, &pr.TotalUses, &pr.Status, &pr.CreatedAt, &pr.DecidedAt)
	if err != nil {
		return nil, err
	}
	return &pr, nil
}

// CreatePassRequest inserts a pending request and fills in id and time.
func (q *queries) CreatePassRequest(ctx context.Context, pr *model.PassRequest) error {
	err := q.db.QueryRow(ctx,
		`INSERT INTO pass_requests (user_id, type, total_uses, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		pr.UserID, pr.Type, pr.TotalUses, pr.Status,
	).Scan(&pr.ID, &pr.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert pass request: %w", err)
	}
	return nil
}

// LockPassRequest returns the request locked FOR UPDATE.
func (q *queries) LockPassRequest(ctx context.Context, id int64) (*model.PassRequest, error) {
	pr, err := scanPassRequest(q.db.QueryRow(ctx,
		`SELECT `+passRequestColumns+` FROM pass_requests WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "lock pass request")
	}
	return pr, nil
}

// ListPendingPassRequests returns undecided requests, oldest first.
func (q *queries) ListPendingPassRequests(ctx context.Context) ([]model.PassRequest, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+passRequestColumns+` FROM pass_requests WHERE status = 'pending' ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list pass requests: %w", err)
	}
	defer rows.Close()

	var out []model.PassRequest
	for rows.Next() {
		pr, err := scanPassRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pass request: %w", err)
		}
		out = append(out, *pr)
	}
	return out, rows.Err()
}

// UpdatePassRequest stores the decision.
func (q *queries) UpdatePassRequest(ctx context.Context, pr *model.PassRequest) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE pass_requests SET status = $2, decided_at = $3 WHERE id = $1`,
		pr.ID, pr.Status, pr.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("update pass request: %w", err)
	}
	return expectOne(tag)
}
