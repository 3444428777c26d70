// Package notify delivers scheduled nudges. Delivery is best effort: a
// failed send is logged and counted, never propagated into the decision
// pipeline.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/gmsas95/quitcoach/internal/scheduler"
)

// Notification is a scheduled nudge ready for delivery.
type Notification struct {
	Content  string
	Priority scheduler.Priority
}

// Notifier delivers notifications to the user.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// LogNotifier writes nudges to the log. Default when no channel is
// configured; also handy in development.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, msg Notification) error {
	n.logger.Info("Nudge",
		zap.String("priority", string(msg.Priority)),
		zap.String("content", msg.Content),
	)
	return nil
}
