package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/berletkezelo/internal/logger"
	"github.com/Shivanand-hulikatti/berletkezelo/internal/model"
	"github.com/Shivanand-hulikatti/berletkezelo/internal/notify"
)

type mail struct {
	kind      model.NotificationKind
	recipient string
	body      string
}

type recordingSender struct {
	ok   bool
	sent []mail
}

func (s *recordingSender) Send(_ context.Context, kind model.NotificationKind, _, body, recipient string) bool {
	s.sent = append(s.sent, mail{kind: kind, recipient: recipient, body: body})
	return s.ok
}

func (s *recordingSender) kinds() []model.NotificationKind {
	var out []model.NotificationKind
	for _, m := range s.sent {
		out = append(out, m.kind)
	}
	return out
}

func (s *recordingSender) reset() { s.sent = nil }

type fixture struct {
	ctx    context.Context
	store  *memStore
	sender *recordingSender
	svc    *Service
	now    time.Time
}

var (
	baseNow   = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	passStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	passEnd   = time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger.Silence(io.Discard)

	f := &fixture{
		ctx:    context.Background(),
		store:  newMemStore(),
		sender: &recordingSender{ok: true},
		now:    baseNow,
	}
	mailer := notify.NewMailer(f.sender, model.AllNotifications("admin@example.com"), time.UTC)
	f.svc = New(f.store, mailer, WithClock(func() time.Time { return f.now }))
	return f
}

func (f *fixture) user(t *testing.T, name string) model.User {
	t.Helper()
	u, err := f.svc.CreateUser(f.ctx, model.CreateUserRequest{Username: name, Email: name + "@example.com"})
	require.NoError(t, err)
	return *u
}

func (f *fixture) event(t *testing.T, startIn time.Duration, capacity int) model.Event {
	t.Helper()
	start := f.now.Add(startIn)
	e, err := f.svc.CreateEvent(f.ctx, model.CreateEventRequest{
		Name:      "Jóga",
		StartTime: start,
		EndTime:   start.Add(90 * time.Minute),
		Capacity:  capacity,
	})
	require.NoError(t, err)
	return *e
}

func (f *fixture) markFinal(eventID int64) {
	e := f.store.events[eventID]
	e.IsFinalEvent = true
	f.store.events[eventID] = e
}

func (f *fixture) pass(t *testing.T, userID int64, total, used int, end time.Time) model.Pass {
	t.Helper()
	p := &model.Pass{
		UserID:    userID,
		Type:      "10 alkalmas",
		StartDate: passStart,
		EndDate:   end,
		TotalUses: total,
		UsedCount: used,
	}
	require.NoError(t, f.store.CreatePass(f.ctx, p))
	return *p
}

func (f *fixture) passUsed(t *testing.T, id int64) int {
	t.Helper()
	p, err := f.store.GetPass(f.ctx, id)
	require.NoError(t, err)
	return p.UsedCount
}

func (f *fixture) reg(t *testing.T, id int64) model.EventRegistration {
	t.Helper()
	r, err := f.store.GetRegistration(f.ctx, id)
	require.NoError(t, err)
	return *r
}

func (f *fixture) spotsLeft(t *testing.T, eventID int64) int {
	t.Helper()
	e, err := f.store.GetEvent(f.ctx, eventID)
	require.NoError(t, err)
	return e.SpotsLeft()
}

var (
	single = model.SignupRequest{RegistrationType: model.RegistrationSingle}
	byPass = model.SignupRequest{RegistrationType: model.RegistrationPass}
)

func withPass(id int64) model.SignupRequest {
	return model.SignupRequest{RegistrationType: model.RegistrationPass, PassID: &id}
}
