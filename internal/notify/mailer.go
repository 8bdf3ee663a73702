package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/Shivanand-hulikatti/berletkezelo/internal/model"
)

const (
	timeLayout = "2006-01-02 15:04"
	dateLayout = "2006-01-02"
)

// Mailer turns domain changes into mails. Every method returns true only
// if the kind is enabled, the recipient has an address and the Sender
// confirmed delivery.
type Mailer struct {
	sender   Sender
	settings model.NotificationSettings
	loc      *time.Location
}

// NewMailer constructs a Mailer. Times in mails are shown in loc.
func NewMailer(sender Sender, settings model.NotificationSettings, loc *time.Location) *Mailer {
	if loc == nil {
		loc = time.UTC
	}
	return &Mailer{sender: sender, settings: settings, loc: loc}
}

// Enabled reports whether kind is switched on.
func (m *Mailer) Enabled(kind model.NotificationKind) bool {
	return m.settings.Enabled(kind)
}

func (m *Mailer) event(e model.Event) *eventView {
	return &eventView{Name: e.Name, When: e.StartTime.In(m.loc).Format(timeLayout)}
}

func passViewOf(p model.Pass) *passView {
	return &passView{
		Type:      p.Type,
		Start:     p.StartDate.Format(dateLayout),
		End:       p.EndDate.Format(dateLayout),
		Used:      p.UsedCount,
		Total:     p.TotalUses,
		Remaining: p.Remaining(),
		Comment:   p.Comment,
	}
}

func (m *Mailer) send(ctx context.Context, kind model.NotificationKind, recipient string, data mailData) bool {
	if !m.settings.Enabled(kind) {
		return false
	}
	if recipient == "" {
		slog.WarnContext(ctx, "mail skipped: no recipient", "kind", kind)
		return false
	}
	subject, body, err := render(kind, data)
	if err != nil {
		slog.ErrorContext(ctx, "mail render failed", "kind", kind, "error", err)
		return false
	}
	ok := m.sender.Send(ctx, kind, subject, body, recipient)
	if !ok {
		slog.WarnContext(ctx, "mail delivery failed", "kind", kind, "recipient", recipient)
	}
	return ok
}

// PassCreated tells the owner about a new pass.
func (m *Mailer) PassCreated(ctx context.Context, u model.User, p model.Pass) bool {
	return m.send(ctx, model.KindPassCreated, u.Email, mailData{Username: u.Username, Pass: passViewOf(p)})
}

// PassDeleted tells the owner a pass was removed.
func (m *Mailer) PassDeleted(ctx context.Context, u model.User, p model.Pass) bool {
	return m.send(ctx, model.KindPassDeleted, u.Email, mailData{Username: u.Username, Pass: passViewOf(p)})
}

// PassUsed tells the owner an entry was deducted for a finished event.
func (m *Mailer) PassUsed(ctx context.Context, u model.User, p model.Pass, e model.Event) bool {
	return m.send(ctx, model.KindPassUsed, u.Email, mailData{
		Username: u.Username,
		Pass:     passViewOf(p),
		Event:    m.event(e),
	})
}

// PassRequestAdmin tells the administrator about a new pass request.
func (m *Mailer) PassRequestAdmin(ctx context.Context, u model.User, pr model.PassRequest) bool {
	return m.send(ctx, model.KindPassRequestAdmin, m.settings.AdminEmail, mailData{
		Username:    u.Username,
		Email:       u.Email,
		RequestType: pr.Type,
		RequestedAt: pr.CreatedAt.In(m.loc).Format(timeLayout),
	})
}

// SignupUser confirms a signup, with different wording after a waitlist
// promotion.
func (m *Mailer) SignupUser(ctx context.Context, u model.User, e model.Event, fromWaitlist bool) bool {
	return m.send(ctx, model.KindEventSignupUser, u.Email, mailData{
		Username:     u.Username,
		Event:        m.event(e),
		FromWaitlist: fromWaitlist,
	})
}

// SignupAdmin tells a member an administrator signed them up.
func (m *Mailer) SignupAdmin(ctx context.Context, u model.User, e model.Event) bool {
	return m.send(ctx, model.KindEventSignupAdmin, u.Email, mailData{Username: u.Username, Event: m.event(e)})
}

// UnregisterUser confirms a cancellation and explains what happened to the
// pass entry.
func (m *Mailer) UnregisterUser(ctx context.Context, u model.User, e model.Event, r model.EventRegistration) bool {
	return m.send(ctx, model.KindEventUnregisterUser, u.Email, mailData{
		Username:      u.Username,
		Event:         m.event(e),
		UsedPass:      r.Type() == model.RegistrationPass,
		Late:          r.Status == model.StatusLateCancelled,
		DeductionKept: r.HoldsUsage(),
	})
}

// UnregisterAdmin tells a member an administrator removed them.
func (m *Mailer) UnregisterAdmin(ctx context.Context, u model.User, e model.Event) bool {
	return m.send(ctx, model.KindEventUnregisterAdm, u.Email, mailData{Username: u.Username, Event: m.event(e)})
}

// Reminder announces an event starting within a day.
func (m *Mailer) Reminder(ctx context.Context, u model.User, e model.Event) bool {
	return m.send(ctx, model.KindEventReminder, u.Email, mailData{Username: u.Username, Event: m.event(e)})
}

// ThankYou thanks an attendee after the event.
func (m *Mailer) ThankYou(ctx context.Context, u model.User, e model.Event) bool {
	return m.send(ctx, model.KindEventThankYou, u.Email, mailData{Username: u.Username, Event: m.event(e)})
}
