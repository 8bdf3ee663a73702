package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/berletkezelo/internal/model"
)

func TestSignup_ExhaustedPassIsRejected(t *testing.T) {
	f := newFixture(t)
	anna := f.user(t, "anna")
	ev := f.event(t, 72*time.Hour, 10)
	p := f.pass(t, anna.ID, 4, 4, passEnd)

	_, err := f.svc.Signup(f.ctx, anna.ID, ev.ID, byPass)

	assert.ErrorIs(t, err, ErrNoAvailablePass)
	assert.Equal(t, 4, f.passUsed(t, p.ID))
	assert.Empty(t, f.store.regs)
	assert.Empty(t, f.store.usages)
}

func TestSignup_PassSelection(t *testing.T) {
	april := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		preferred func(later, sooner, sooner2 model.Pass) *int64
		want      func(later, sooner, sooner2 model.Pass) int64
	}{
		{
			name:      "soonest expiring, lowest id on ties",
			preferred: func(_, _, _ model.Pass) *int64 { return nil },
			want:      func(_, sooner, _ model.Pass) int64 { return sooner.ID },
		},
		{
			name:      "preferred pass wins when usable",
			preferred: func(later, _, _ model.Pass) *int64 { return &later.ID },
			want:      func(later, _, _ model.Pass) int64 { return later.ID },
		},
		{
			name: "unknown preferred pass falls back",
			preferred: func(_, _, _ model.Pass) *int64 {
				id := int64(9999)
				return &id
			},
			want: func(_, sooner, _ model.Pass) int64 { return sooner.ID },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			anna := f.user(t, "anna")
			ev := f.event(t, 72*time.Hour, 10)
			later := f.pass(t, anna.ID, 10, 0, passEnd)
			sooner := f.pass(t, anna.ID, 10, 0, april)
			sooner2 := f.pass(t, anna.ID, 10, 0, april)

			req := model.SignupRequest{RegistrationType: model.RegistrationPass, PassID: tt.preferred(later, sooner, sooner2)}
			reg, err := f.svc.Signup(f.ctx, anna.ID, ev.ID, req)
			require.NoError(t, err)

			want := tt.want(later, sooner, sooner2)
			assert.Equal(t, want, reg.PassID())
			assert.True(t, reg.HoldsUsage())
			assert.Equal(t, 1, f.passUsed(t, want))
		})
	}
}

func TestSignup_IgnoresForeignAndExpiredPasses(t *testing.T) {
	f := newFixture(t)
	anna := f.user(t, "anna")
	bela := f.user(t, "bela")
	ev := f.event(t, 72*time.Hour, 10)
	foreign := f.pass(t, bela.ID, 10, 0, passEnd)
	expired := f.pass(t, anna.ID, 10, 0, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC))

	_, err := f.svc.Signup(f.ctx, anna.ID, ev.ID, withPass(foreign.ID))
	assert.ErrorIs(t, err, ErrNoAvailablePass)

	_, err = f.svc.Signup(f.ctx, anna.ID, ev.ID, withPass(expired.ID))
	assert.ErrorIs(t, err, ErrNoAvailablePass)

	assert.Equal(t, 0, f.passUsed(t, foreign.ID))
	assert.Equal(t, 0, f.passUsed(t, expired.ID))
}

func TestSignup_PassValidOnLastDay(t *testing.T) {
	f := newFixture(t)
	anna := f.user(t, "anna")
	ev := f.event(t, 72*time.Hour, 10)
	p := f.pass(t, anna.ID, 10, 0, model.Day(baseNow))

	reg, err := f.svc.Signup(f.ctx, anna.ID, ev.ID, byPass)
	require.NoError(t, err)
	assert.Equal(t, p.ID, reg.PassID())
}

func TestSignup_Rejections(t *testing.T) {
	f := newFixture(t)
	anna := f.user(t, "anna")
	bela := f.user(t, "bela")

	started := f.event(t, -time.Minute, 10)
	full := f.event(t, 72*time.Hour, 1)
	open := f.event(t, 72*time.Hour, 10)
	final := f.event(t, 72*time.Hour, 10)
	f.markFinal(final.ID)
	f.pass(t, anna.ID, 10, 0, passEnd)

	_, err := f.svc.Signup(f.ctx, bela.ID, full.ID, single)
	require.NoError(t, err)
	_, err = f.svc.Signup(f.ctx, anna.ID, open.ID, single)
	require.NoError(t, err)

	tests := []struct {
		name    string
		eventID int64
		req     model.SignupRequest
		want    error
	}{
		{"event started", started.ID, single, ErrEventAlreadyStarted},
		{"already registered", open.ID, single, ErrAlreadyRegistered},
		{"no spots", full.ID, single, ErrSpotsUnavailable},
		{"pass on final event", final.ID, byPass, ErrPassNotAllowed},
		{"unknown type", open.ID, model.SignupRequest{RegistrationType: "free"}, ErrInvalidInput},
		{"unknown event", 424242, single, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Signup(f.ctx, anna.ID, tt.eventID, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("single on final event is fine", func(t *testing.T) {
		_, err := f.svc.Signup(f.ctx, anna.ID, final.ID, single)
		assert.NoError(t, err)
	})
}

func TestSignup_RollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	anna := f.user(t, "anna")
	ev := f.event(t, 72*time.Hour, 10)
	p := f.pass(t, anna.ID, 10, 3, passEnd)
	f.store.fail["InsertRegistration"] = errBoom

	_, err := f.svc.Signup(f.ctx, anna.ID, ev.ID, byPass)

	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 3, f.passUsed(t, p.ID))
	assert.Empty(t, f.store.usages)
	assert.Empty(t, f.store.regs)
	assert.Empty(t, f.sender.sent)
}

func TestSignup_RemovesOwnWaitlistEntry(t *testing.T) {
	f := newFixture(t)
	anna := f.user(t, "anna")
	ev := f.event(t, 72*time.Hour, 10)
	require.NoError(t, f.store.InsertWaitlistEntry(f.ctx, &model.WaitlistEntry{
		EventID: ev.ID, UserID: anna.ID, RegistrationType: model.RegistrationSingle, CreatedAt: f.now,
	}))

	_, err := f.svc.Signup(f.ctx, anna.ID, ev.ID, single)
	require.NoError(t, err)
	assert.Empty(t, f.store.waitlist)
	assert.Equal(t, []model.NotificationKind{model.KindEventSignupUser}, f.sender.kinds())
}

func TestCancel_OnTimeRefundsPass(t *testing.T) {
	f := newFixture(t)
	anna := f.user(t, "anna")
	ev := f.event(t, 72*time.Hour, 10)
	p := f.pass(t, anna.ID, 10, 2, passEnd)

	reg, err := f.svc.Signup(f.ctx, anna.ID, ev.ID, byPass)
	require.NoError(t, err)
	require.Equal(t, 3, f.passUsed(t, p.ID))

	got, err := f.svc.Cancel(f.ctx, anna.ID, reg.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, f.passUsed(t, p.ID))
	assert.Empty(t, f.store.usages)
	stored := f.reg(t, reg.ID)
	assert.Equal(t, model.StatusCancelled, stored.Status)
	assert.False(t, stored.IsLateCancel)
	assert.False(t, stored.HoldsUsage())
	assert.Equal(t, p.ID, stored.PassID())
	assert.NotNil(t, stored.CancelledAt)
	assert.Equal(t, model.StatusCancelled, got.Status)
	assert.Contains(t, f.sender.sent[len(f.sender.sent)-1].body, "48 órán kívül")
}

func TestCancel_LateKeepsDeduction(t *testing.T) {
	f := newFixture(t)
	anna := f.user(t, "anna")
	ev := f.event(t, 10*time.Hour, 10)
	p := f.pass(t, anna.ID, 10, 0, passEnd)

	reg, err := f.svc.Signup(f.ctx, anna.ID, ev.ID, byPass)
	require.NoError(t, err)

	_, err = f.svc.Cancel(f.ctx, anna.ID, reg.ID)
	require.NoError(t, err)

	stored := f.reg(t, reg.ID)
	assert.Equal(t, model.StatusLateCancelled, stored.Status)
	assert.True(t, stored.IsLateCancel)
	assert.True(t, stored.HoldsUsage())
	assert.Equal(t, 1, f.passUsed(t, p.ID))
	assert.Len(t, f.store.usages, 1)
}

func TestCancel_BoundaryAtExactly48Hours(t *testing.T) {
	f := newFixture(t)
	anna := f.user(t, "anna")
	ev := f.event(t, LateCancelWindow, 10)
	f.pass(t, anna.ID, 10, 0, passEnd)

	reg, err := f.svc.Signup(f.ctx, anna.ID, ev.ID, byPass)
	require.NoError(t, err)
	_, err = f.svc.Cancel(f.ctx, anna.ID, reg.ID)
	require.NoError(t, err)

	assert.Equal(t, model.StatusLateCancelled, f.reg(t, reg.ID).Status)
}

func TestCancel_Rejections(t *testing.T) {
	f := newFixture(t)
	anna := f.user(t, "anna")
	bela := f.user(t, "bela")
	ev := f.event(t, 72*time.Hour, 10)

	reg, err := f.svc.Signup(f.ctx, anna.ID, ev.ID, single)
	require.NoError(t, err)

	_, err = f.svc.Cancel(f.ctx, bela.ID, reg.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Cancel(f.ctx, anna.ID, reg.ID)
	require.NoError(t, err)
	_, err = f.svc.Cancel(f.ctx, anna.ID, reg.ID)
	assert.ErrorIs(t, err, ErrRegistrationInactive)

	_, err = f.svc.Cancel(f.ctx, anna.ID, 424242)
	assert.ErrorIs(t, err, ErrNotFound)

	again, err := f.svc.Signup(f.ctx, anna.ID, ev.ID, single)
	require.NoError(t, err, "re-registration creates a new row")
	f.now = ev.StartTime.Add(time.Minute)
	_, err = f.svc.Cancel(f.ctx, anna.ID, again.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusLateCancelled, f.reg(t, again.ID).Status)
}

func TestCancel_DuringEventIsLate(t *testing.T) {
	f := newFixture(t)
	anna := f.user(t, "anna")
	ev := f.event(t, 72*time.Hour, 10)
	p := f.pass(t, anna.ID, 10, 0, passEnd)

	reg, err := f.svc.Signup(f.ctx, anna.ID, ev.ID, byPass)
	require.NoError(t, err)

	f.now = ev.StartTime.Add(10 * time.Minute)
	got, err := f.svc.Cancel(f.ctx, anna.ID, reg.ID)
	require.NoError(t, err)

	assert.Equal(t, model.StatusLateCancelled, got.Status)
	assert.True(t, got.IsLateCancel)
	assert.True(t, got.HoldsUsage())
	assert.Equal(t, 1, f.passUsed(t, p.ID))
}

func TestCancel_LateSingleIsNotFlagged(t *testing.T) {
	f := newFixture(t)
	anna := f.user(t, "anna")
	ev := f.event(t, 10*time.Hour, 10)

	reg, err := f.svc.Signup(f.ctx, anna.ID, ev.ID, single)
	require.NoError(t, err)
	_, err = f.svc.Cancel(f.ctx, anna.ID, reg.ID)
	require.NoError(t, err)

	stored := f.reg(t, reg.ID)
	assert.Equal(t, model.StatusLateCancelled, stored.Status)
	assert.False(t, stored.IsLateCancel)
	assert.NotNil(t, stored.CancelledAt)
}

func TestAdminRegistration(t *testing.T) {
	f := newFixture(t)
	anna := f.user(t, "anna")
	ev := f.event(t, 5*time.Hour, 10)
	p := f.pass(t, anna.ID, 10, 0, passEnd)

	reg, err := f.svc.AdminAddRegistration(f.ctx, ev.ID, model.AdminSignupRequest{UserID: anna.ID, SignupRequest: byPass})
	require.NoError(t, err)
	assert.Equal(t, 1, f.passUsed(t, p.ID))

	// Inside the late window an admin removal still refunds.
	_, err = f.svc.AdminRemoveRegistration(f.ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, f.passUsed(t, p.ID))
	assert.Equal(t, model.StatusCancelled, f.reg(t, reg.ID).Status)

	f.now = ev.StartTime.Add(10 * time.Minute)
	_, err = f.svc.AdminAddRegistration(f.ctx, ev.ID, model.AdminSignupRequest{UserID: anna.ID, SignupRequest: single})
	require.NoError(t, err, "admins can add members to a started event")

	assert.Equal(t, []model.NotificationKind{
		model.KindEventSignupAdmin,
		model.KindEventUnregisterAdm,
		model.KindEventSignupAdmin,
	}, f.sender.kinds())
}

func TestPassInvariant_HoldsThroughRandomishSequence(t *testing.T) {
	f := newFixture(t)
	anna := f.user(t, "anna")
	p := f.pass(t, anna.ID, 2, 0, passEnd)

	var events []model.Event
	for i := 0; i < 4; i++ {
		events = append(events, f.event(t, time.Duration(60+i)*time.Hour, 5))
	}

	var regs []*model.EventRegistration
	for _, ev := range events {
		reg, err := f.svc.Signup(f.ctx, anna.ID, ev.ID, byPass)
		if err != nil {
			assert.ErrorIs(t, err, ErrNoAvailablePass)
			continue
		}
		regs = append(regs, reg)
	}
	require.Len(t, regs, 2)
	assert.Equal(t, 2, f.passUsed(t, p.ID))

	for _, r := range regs {
		_, err := f.svc.Cancel(f.ctx, anna.ID, r.ID)
		require.NoError(t, err)
		used := f.passUsed(t, p.ID)
		assert.GreaterOrEqual(t, used, 0)
		assert.LessOrEqual(t, used, 2)
	}
	assert.Equal(t, 0, f.passUsed(t, p.ID))
}

func TestRelease_FloorsAtZero(t *testing.T) {
	f := newFixture(t)
	anna := f.user(t, "anna")
	ev := f.event(t, 72*time.Hour, 10)
	p := f.pass(t, anna.ID, 10, 0, passEnd)

	reg, err := f.svc.Signup(f.ctx, anna.ID, ev.ID, byPass)
	require.NoError(t, err)
	require.NoError(t, f.store.SetPassUsedCount(f.ctx, p.ID, 0))

	_, err = f.svc.Cancel(f.ctx, anna.ID, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, f.passUsed(t, p.ID))
}

func TestCancel_AfterPassDeleted(t *testing.T) {
	f := newFixture(t)
	anna := f.user(t, "anna")
	ev := f.event(t, 72*time.Hour, 10)
	p := f.pass(t, anna.ID, 10, 0, passEnd)

	reg, err := f.svc.Signup(f.ctx, anna.ID, ev.ID, byPass)
	require.NoError(t, err)
	require.NoError(t, f.svc.DeletePass(f.ctx, p.ID))

	stored := f.reg(t, reg.ID)
	assert.Equal(t, int64(0), stored.PassID())
	assert.True(t, stored.HoldsUsage(), "usage id survives pass deletion")

	_, err = f.svc.Cancel(f.ctx, anna.ID, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, f.reg(t, reg.ID).Status)
}
