// internal/notify/notify.go
package notify

import (
	"context"

	"go.uber.org/zap"
)

// Notifier delivers a message to a holder. Calls are fire-and-forget
// from the engine's point of view: failures are logged by the caller,
// never surfaced, and never block a reservation.
type Notifier interface {
	Notify(ctx context.Context, holderID, subject, body string) error
}

// LogNotifier writes notifications to the structured log. It stands in
// for email/SMS/push channels, which all collapse to the same narrow
// contract.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n *LogNotifier) Notify(ctx context.Context, holderID, subject, body string) error {
	n.Logger.Info("notification",
		zap.String("holder_id", holderID),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}
