package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Shivanand-hulikatti/berletkezelo/internal/model"
)

const attendanceSelect = `SELECT ` + registrationColumns + `, ` + eventColumns + `,
	u.id, u.username, u.email, u.role, u.created_at,
	p.id, p.user_id, p.type, p.start_date, p.end_date, p.total_uses, p.used_count, p.comment
FROM event_registrations r
JOIN events e ON e.id = r.event_id
JOIN users u ON u.id = r.user_id
LEFT JOIN passes p ON p.id = r.pass_id `

// nullablePass receives the LEFT JOINed pass columns.
type nullablePass struct {
	id, userID           *int64
	typ, comment         *string
	startDate, endDate   *time.Time
	totalUses, usedCount *int
}

func (n *nullablePass) dest() []any {
	return []any{&n.id, &n.userID, &n.typ, &n.startDate, &n.endDate, &n.totalUses, &n.usedCount, &n.comment}
}

func (n *nullablePass) pass() *model.Pass {
	if n.id == nil {
		return nil
	}
	return &model.Pass{
		ID:        *n.id,
		UserID:    *n.userID,
		Type:      *n.typ,
		StartDate: *n.startDate,
		EndDate:   *n.endDate,
		TotalUses: *n.totalUses,
		UsedCount: *n.usedCount,
		Comment:   *n.comment,
	}
}

func (q *queries) listAttendance(ctx context.Context, where string, args ...any) ([]model.Attendance, error) {
	rows, err := q.db.Query(ctx, attendanceSelect+where+` ORDER BY r.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()

	var out []model.Attendance
	for rows.Next() {
		var (
			a     model.Attendance
			reg   registrationScan
			np    nullablePass
			price *string
		)
		dest := reg.dest()
		dest = append(dest,
			&a.Event.ID, &a.Event.Name, &a.Event.StartTime, &a.Event.EndTime, &a.Event.Capacity,
			&a.Event.Color, &price, &a.Event.ImagePath, &a.Event.IsFinalEvent,
			&a.User.ID, &a.User.Username, &a.User.Email, &a.User.Role, &a.User.CreatedAt,
		)
		dest = append(dest, np.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		if price != nil {
			d, err := decimal.NewFromString(*price)
			if err != nil {
				return nil, fmt.Errorf("parse price %q: %w", *price, err)
			}
			a.Event.Price = &d
		}
		a.Registration = *reg.result()
		a.Pass = np.pass()
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListReminderDue implements NotificationRepository.
func (q *queries) ListReminderDue(ctx context.Context, from, to time.Time) ([]model.Attendance, error) {
	return q.listAttendance(ctx,
		`WHERE r.status = 'active' AND r.reminder_sent = false
		   AND e.start_time > $1 AND e.start_time <= $2`,
		from, to,
	)
}

// ListPassDeductionDue implements NotificationRepository.
func (q *queries) ListPassDeductionDue(ctx context.Context, from, to time.Time) ([]model.Attendance, error) {
	return q.listAttendance(ctx,
		`WHERE r.pass_usage_id IS NOT NULL
		   AND r.status IN ('active', 'late_cancelled')
		   AND r.pass_deduction_notified = false
		   AND e.end_time >= $1 AND e.end_time <= $2`,
		from, to,
	)
}

// ListThankYouDue implements NotificationRepository.
func (q *queries) ListThankYouDue(ctx context.Context, from, to time.Time) ([]model.Attendance, error) {
	return q.listAttendance(ctx,
		`WHERE r.status = 'active' AND r.pass_usage_id IS NULL
		   AND r.thank_you_sent = false
		   AND e.end_time >= $1 AND e.end_time <= $2`,
		from, to,
	)
}

func (q *queries) markFlag(ctx context.Context, column string, id int64) (bool, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE event_registrations SET `+column+` = true WHERE id = $1 AND `+column+` = false`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("mark %s: %w", column, err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkReminderSent implements NotificationRepository.
func (q *queries) MarkReminderSent(ctx context.Context, id int64) (bool, error) {
	return q.markFlag(ctx, "reminder_sent", id)
}

// MarkPassDeductionNotified implements NotificationRepository.
func (q *queries) MarkPassDeductionNotified(ctx context.Context, id int64) (bool, error) {
	return q.markFlag(ctx, "pass_deduction_notified", id)
}

// MarkThankYouSent implements NotificationRepository.
func (q *queries) MarkThankYouSent(ctx context.Context, id int64) (bool, error) {
	return q.markFlag(ctx, "thank_you_sent", id)
}
