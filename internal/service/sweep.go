package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Shivanand-hulikatti/berletkezelo/internal/model"
	"github.com/Shivanand-hulikatti/berletkezelo/internal/notify"
	"github.com/Shivanand-hulikatti/berletkezelo/internal/repository"
)

// SweepResult counts the mails confirmed in one sweep run.
type SweepResult struct {
	Reminders      int `json:"reminders"`
	PassDeductions int `json:"pass_deductions"`
	ThankYous      int `json:"thank_yous"`
}

// Sweeper sends the scheduled notifications. Each registration gets each
// kind at most once: the flag is set only after confirmed delivery, so a
// failed send is retried on the next run while the window lasts.
type Sweeper struct {
	store  repository.NotificationRepository
	mailer *notify.Mailer
}

// NewSweeper constructs a Sweeper.
func NewSweeper(store repository.NotificationRepository, mailer *notify.Mailer) *Sweeper {
	return &Sweeper{store: store, mailer: mailer}
}

// Run performs one sweep as of now. It stops early when ctx is done.
func (s *Sweeper) Run(ctx context.Context, now time.Time) (SweepResult, error) {
	var (
		res SweepResult
		err error
	)
	start := time.Now()

	if res.Reminders, err = s.reminders(ctx, now); err != nil {
		return res, err
	}
	if res.PassDeductions, err = s.passDeductions(ctx, now); err != nil {
		return res, err
	}
	if res.ThankYous, err = s.thankYous(ctx, now); err != nil {
		return res, err
	}

	slog.InfoContext(ctx, "notification sweep finished",
		"reminders", res.Reminders,
		"pass_deductions", res.PassDeductions,
		"thank_yous", res.ThankYous,
		"duration", time.Since(start),
	)
	return res, nil
}

func (s *Sweeper) enabled(ctx context.Context, kind model.NotificationKind) bool {
	if !s.mailer.Enabled(kind) {
		slog.InfoContext(ctx, "notification kind disabled, skipping", "kind", kind)
		return false
	}
	return true
}

// deliver walks due attendances, calls send for each and marks the ones
// send confirmed.
func deliver(
	ctx context.Context,
	due []model.Attendance,
	send func(model.Attendance) bool,
	mark func(context.Context, int64) (bool, error),
) (int, error) {
	sent := 0
	for _, a := range due {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if a.User.Email == "" {
			continue
		}
		if !send(a) {
			continue
		}
		flipped, err := mark(ctx, a.Registration.ID)
		if err != nil {
			return sent, err
		}
		if flipped {
			sent++
		}
	}
	return sent, nil
}

func (s *Sweeper) reminders(ctx context.Context, now time.Time) (int, error) {
	if !s.enabled(ctx, model.KindEventReminder) {
		return 0, nil
	}
	due, err := s.store.ListReminderDue(ctx, now, now.Add(ReminderWindow))
	if err != nil {
		return 0, err
	}
	return deliver(ctx, due, func(a model.Attendance) bool {
		return s.mailer.Reminder(ctx, a.User, a.Event)
	}, s.store.MarkReminderSent)
}

func (s *Sweeper) passDeductions(ctx context.Context, now time.Time) (int, error) {
	if !s.enabled(ctx, model.KindPassUsed) {
		return 0, nil
	}
	due, err := s.store.ListPassDeductionDue(ctx, now.Add(-PostEventWindow), now)
	if err != nil {
		return 0, err
	}

	// A deleted pass cannot be reported on; close those out silently.
	live := due[:0]
	for _, a := range due {
		if a.Pass != nil {
			live = append(live, a)
			continue
		}
		if _, err := s.store.MarkPassDeductionNotified(ctx, a.Registration.ID); err != nil {
			return 0, err
		}
	}

	return deliver(ctx, live, func(a model.Attendance) bool {
		return s.mailer.PassUsed(ctx, a.User, *a.Pass, a.Event)
	}, s.store.MarkPassDeductionNotified)
}

func (s *Sweeper) thankYous(ctx context.Context, now time.Time) (int, error) {
	if !s.enabled(ctx, model.KindEventThankYou) {
		return 0, nil
	}
	due, err := s.store.ListThankYouDue(ctx, now.Add(-PostEventWindow), now)
	if err != nil {
		return 0, err
	}
	return deliver(ctx, due, func(a model.Attendance) bool {
		return s.mailer.ThankYou(ctx, a.User, a.Event)
	}, s.store.MarkThankYouSent)
}
