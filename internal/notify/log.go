package notify

import (
	"context"

	"go.uber.org/zap"
)

// Log writes alerts to the structured log instead of an external channel.
// Used when no transport credentials are configured.
type Log struct {
	Logger *zap.Logger
}

func (l Log) Send(ctx context.Context, a Alert) error {
	l.Logger.Warn("alert",
		zap.String("kind", string(a.Kind)),
		zap.String("title", a.Title),
		zap.String("subject", a.Subject),
		zap.String("detail", a.Detail),
	)
	return nil
}
