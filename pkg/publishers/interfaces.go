package publishers

import (
	"context"

	"github.com/samvad-hq/item-relay/internal/logger"
)

// Publisher sends call events to a downstream sink (HTTP, SQS, SNS, Pub/Sub, journal).
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
	Close() error
}

func orNop(log logger.Logger) logger.Logger {
	if log == nil {
		return logger.NopLogger{}
	}
	return log
}
