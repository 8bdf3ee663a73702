package model

// NotificationKind names one kind of outgoing message. The value is also the
// routing key used when the message is published.
type NotificationKind string

const (
	KindPassCreated         NotificationKind = "pass_created"
	KindPassDeleted         NotificationKind = "pass_deleted"
	KindPassUsed            NotificationKind = "pass_used"
	KindPassRequestAdmin    NotificationKind = "pass_request_admin"
	KindEventSignupUser     NotificationKind = "event_signup_user"
	KindEventSignupAdmin    NotificationKind = "event_signup_admin"
	KindEventUnregisterUser NotificationKind = "event_unregister_user"
	KindEventUnregisterAdm  NotificationKind = "event_unregister_admin"
	KindEventReminder       NotificationKind = "event_reminder"
	KindEventThankYou       NotificationKind = "event_thank_you"
)

// NotificationSettings switches each notification kind on or off. It is
// built once from configuration and passed to whoever sends mail.
type NotificationSettings struct {
	PassCreated         bool
	PassDeleted         bool
	PassUsed            bool
	PassRequestAdmin    bool
	EventSignupUser     bool
	EventSignupAdmin    bool
	EventUnregisterUser bool
	EventUnregisterAdm  bool
	EventReminder       bool
	EventThankYou       bool

	// AdminEmail receives pass request notices.
	AdminEmail string
}

// Enabled reports whether kind may be sent.
func (s NotificationSettings) Enabled(kind NotificationKind) bool {
	switch kind {
	case KindPassCreated:
		return s.PassCreated
	case KindPassDeleted:
		return s.PassDeleted
	case KindPassUsed:
		return s.PassUsed
	case KindPassRequestAdmin:
		return s.PassRequestAdmin && s.AdminEmail != ""
	case KindEventSignupUser:
		return s.EventSignupUser
	case KindEventSignupAdmin:
		return s.EventSignupAdmin
	case KindEventUnregisterUser:
		return s.EventUnregisterUser
	case KindEventUnregisterAdm:
		return s.EventUnregisterAdm
	case KindEventReminder:
		return s.EventReminder
	case KindEventThankYou:
		return s.EventThankYou
	}
	return false
}

// AllNotifications enables every kind. Used by tests and local setups.
func AllNotifications(adminEmail string) NotificationSettings {
	return NotificationSettings{
		PassCreated:         true,
		PassDeleted:         true,
		PassUsed:            true,
		PassRequestAdmin:    true,
		EventSignupUser:     true,
		EventSignupAdmin:    true,
		EventUnregisterUser: true,
		EventUnregisterAdm:  true,
		EventReminder:       true,
		EventThankYou:       true,
		AdminEmail:          adminEmail,
	}
}
