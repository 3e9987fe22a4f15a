package publishers

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Event describes one completed relay operation and is published to call-event sinks.
type Event struct {
	ID         string    `json:"id"`
	Operation  string    `json:"operation"`
	Method     string    `json:"method"`
	URI        string    `json:"uri"`
	Status     int       `json:"status"`
	ItemCount  int       `json:"item_count"`
	Error      string    `json:"error,omitempty"`
	ElapsedMs  int64     `json:"elapsed_ms"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Routing attribute keys carried next to the payload by every sink.
const (
	AttrEventID   = "event_id"
	AttrOperation = "operation"
	AttrOutcome   = "outcome"
	AttrStatus    = "status"
)

// NewEvent constructs an Event with a fresh id, stamped with the current UTC time.
func NewEvent(operation, method, uri string, status, itemCount int, elapsed time.Duration, err error) Event {
	evt := Event{
		ID:         uuid.NewString(),
		Operation:  operation,
		Method:     method,
		URI:        uri,
		Status:     status,
		ItemCount:  itemCount,
		ElapsedMs:  elapsed.Milliseconds(),
		OccurredAt: time.Now().UTC(),
	}
	if err != nil {
		evt.Error = err.Error()
	}
	return evt
}

// Outcome is a short label used for routing by queue and topic subscribers.
func (e Event) Outcome() string {
	if e.Error != "" {
		return "failure"
	}
	return "success"
}

// Attributes returns the routing attributes for e. Empty values are omitted.
func (e Event) Attributes() map[string]string {
	attrs := map[string]string{
		AttrOutcome: e.Outcome(),
		AttrStatus:  strconv.Itoa(e.Status),
	}
	if e.ID != "" {
		attrs[AttrEventID] = e.ID
	}
	if e.Operation != "" {
		attrs[AttrOperation] = e.Operation
	}
	return attrs
}
