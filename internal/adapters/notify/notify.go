// Package notify delivers quality notifications of finished executions.
package notify

import (
	"context"
	"log/slog"

	"github.com/example/ara/internal/ports/secondary"
)

// LogNotifier writes notifications to the log instead of mailing them.
// It is used when no SMTP host is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier logging through logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send logs one line per notification.
func (n *LogNotifier) Send(ctx context.Context, msg secondary.Notification) error {
	n.logger.InfoContext(ctx, "quality notification",
		"notification_id", msg.ID,
		"project_id", msg.ProjectID,
		"execution_id", msg.ExecutionID,
		"subject", msg.Subject,
		"success", msg.Counts.Success,
		"handled", msg.Counts.Handled,
		"unhandled", msg.Counts.Unhandled,
		"problems", len(msg.Problems),
	)
	return nil
}

var _ secondary.Notifier = (*LogNotifier)(nil)
