// Package notify renders and dispatches outgoing mail. Actual delivery is
// somebody else's job: messages are handed to a broker, and a Sender reports
// whether the hand-off was confirmed.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/Shivanand-hulikatti/berletkezelo/internal/model"
)

// Sender hands one message to the delivery system. It returns true only
// when delivery was confirmed; callers treat false as "try again later".
type Sender interface {
	Send(ctx context.Context, kind model.NotificationKind, subject, body, recipient string) bool
}

// Message is the payload published for a mail worker.
type Message struct {
	ID        string                 `json:"id"`
	Kind      model.NotificationKind `json:"kind"`
	Subject   string                 `json:"subject"`
	Body      string                 `json:"body"`
	Recipient string                 `json:"recipient"`
	CreatedAt time.Time              `json:"created_at"`
}

// LogSender logs messages instead of delivering them. Used when running
// locally without a broker.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender constructs a LogSender writing to logger.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send always succeeds.
func (s *LogSender) Send(ctx context.Context, kind model.NotificationKind, subject, body, recipient string) bool {
	s.logger.InfoContext(ctx, "mail",
		"kind", kind,
		"recipient", recipient,
		"subject", subject,
		"body_bytes", len(body),
	)
	return true
}
