package notifier

import (
	"context"
	"log/slog"

	"tradeerp/internal/core/ports"
)

// LogNotifier writes notifications to the log. It is used when no message
// broker is configured.
type LogNotifier struct {
	logger *slog.Logger
}

var _ ports.Notifier = (*LogNotifier)(nil)

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "log_notifier")}
}

func (n *LogNotifier) Notify(ctx context.Context, notification ports.TransitionNotification) error {
	m := newMessage(notification)
	n.logger.InfoContext(ctx, "Order status changed",
		"roles", m.Roles,
		"order_id", m.OrderID,
		"order_number", m.OrderNumber,
		"from", m.FromStatus,
		"to", m.ToStatus,
		"reason", m.Reason,
	)
	return nil
}
