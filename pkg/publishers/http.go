package publishers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/samvad-hq/item-relay/internal/logger"
	"github.com/samvad-hq/item-relay/pkg/httpclient"
)

// Headers set on every webhook delivery. The event id doubles as an idempotency key so
// receivers can drop redeliveries.
const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderOperation      = "X-Relay-Operation"
	HeaderOutcome        = "X-Relay-Outcome"
	HeaderStatus         = "X-Relay-Upstream-Status"
)

// webhookPublisher posts call events as JSON to an HTTP endpoint.
type webhookPublisher struct {
	id      string
	method  string
	url     string
	headers map[string]string
	client  httpclient.Client
	log     logger.Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	return &webhookPublisher{
		id:      cfg.ID,
		method:  cfg.HTTP.Method,
		url:     cfg.HTTP.URL,
		headers: cfg.HTTP.Headers,
		client:  httpclient.NewRestyClient(time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second),
		log:     orNop(log),
	}, nil
}

func (w *webhookPublisher) ID() string   { return w.id }
func (w *webhookPublisher) Type() string { return TypeHTTP }
func (w *webhookPublisher) Close() error { return nil }

// Publish sends evt with the configured headers plus the event routing headers.
// Event headers win over configured ones with the same name.
func (w *webhookPublisher) Publish(ctx context.Context, evt Event) error {
	resp, err := w.client.Execute(ctx, w.method, w.url, w.deliveryHeaders(evt), evt)
	if err != nil {
		return fmt.Errorf("deliver to %s: %w", w.url, err)
	}

	status := resp.StatusCode()
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook %s answered %d: %s", w.url, status, httpclient.BodySnippet(resp.Body()))
	}
	w.log.DebugObj("webhook delivered call event", "publisher_http_delivery", map[string]any{
		"publisher_id": w.id,
		"event_id":     evt.ID,
		"status_code":  status,
	})
	return nil
}

func (w *webhookPublisher) deliveryHeaders(evt Event) map[string]string {
	headers := make(map[string]string, len(w.headers)+4)
	for k, v := range w.headers {
		headers[k] = v
	}
	attrs := evt.Attributes()
	if id := attrs[AttrEventID]; id != "" {
		headers[HeaderIdempotencyKey] = id
	}
	if op := attrs[AttrOperation]; op != "" {
		headers[HeaderOperation] = op
	}
	headers[HeaderOutcome] = attrs[AttrOutcome]
	headers[HeaderStatus] = attrs[AttrStatus]
	return headers
}
