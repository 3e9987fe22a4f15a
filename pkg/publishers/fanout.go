package publishers

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/item-relay/internal/logger"
)

// Fanout hands every call event to all configured sinks.
type Fanout struct {
	sinks []Publisher
	log   logger.Logger
}

// NewFanout drops nil sinks and keeps the rest in order.
func NewFanout(sinks []Publisher, log logger.Logger) *Fanout {
	kept := make([]Publisher, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &Fanout{sinks: kept, log: orNop(log)}
}

// Publish delivers evt to each sink and returns how many accepted it.
// Every sink is attempted; failures are logged per sink and joined into the returned error.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f == nil || len(f.sinks) == 0 {
		return 0, nil
	}

	var errs []error
	delivered := 0
	for _, s := range f.sinks {
		if err := s.Publish(ctx, evt); err != nil {
			f.log.ErrorObj("call event not delivered", "call_event_sink", map[string]any{
				"sink_id":   s.ID(),
				"sink_type": s.Type(),
				"event_id":  evt.ID,
				"operation": evt.Operation,
				"error":     err.Error(),
			})
			errs = append(errs, fmt.Errorf("%s sink %q: %w", s.Type(), s.ID(), err))
			continue
		}
		delivered++
	}

	if delivered == len(f.sinks) {
		f.log.DebugObj("call event delivered", "call_event", map[string]any{
			"event_id":  evt.ID,
			"operation": evt.Operation,
			"sinks":     delivered,
		})
	}
	return delivered, errors.Join(errs...)
}

// Size returns the number of sinks.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.sinks)
}

// Close closes every sink and joins their errors.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	return closeAll(f.sinks)
}
