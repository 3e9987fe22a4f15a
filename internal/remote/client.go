// Package remote dispatches requests to the remote item server.
package remote

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/samvad-hq/item-relay/internal/domain"
	"github.com/samvad-hq/item-relay/internal/logger"
	"github.com/samvad-hq/item-relay/pkg/httpclient"
	"github.com/samvad-hq/item-relay/pkg/itemjson"
)

// Operation names used in logs and metrics.
const (
	OpGetObject  = "get_object"
	OpGetRaw     = "get_raw"
	OpPostObject = "post_object"
	OpExchange   = "exchange"
)

// Result carries the remote status code alongside the decoded or raw body.
type Result[T any] struct {
	Status int
	Body   T
}

// Recorder receives one observation per outbound call.
type Recorder interface {
	RecordOutboundCall(operation string, status int, durationMs float64)
}

type nopRecorder struct{}

func (nopRecorder) RecordOutboundCall(string, int, float64) {}

// Client issues the four dispatch operations against absolute URIs.
type Client struct {
	http    httpclient.Client
	log     logger.Logger
	metrics Recorder
}

// NewClient wraps a shared transport. The transport is expected to be built once per process.
func NewClient(transport httpclient.Client, log logger.Logger, rec Recorder) *Client {
	if log == nil {
		log = logger.NopLogger{}
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Client{http: transport, log: log, metrics: rec}
}

// GetObject performs GET and decodes a single item.
func (c *Client) GetObject(ctx context.Context, uri string) (Result[domain.Item], error) {
	resp, err := c.do(ctx, OpGetObject, http.MethodGet, uri, nil, nil)
	if err != nil {
		return Result[domain.Item]{Status: statusOf(err)}, err
	}
	item, err := itemjson.DecodeItem(resp.Body())
	if err != nil {
		return Result[domain.Item]{Status: resp.StatusCode()}, err
	}
	return Result[domain.Item]{Status: resp.StatusCode(), Body: item}, nil
}

// GetRaw performs GET and returns the body untouched.
func (c *Client) GetRaw(ctx context.Context, uri string) (Result[string], error) {
	resp, err := c.do(ctx, OpGetRaw, http.MethodGet, uri, nil, nil)
	if err != nil {
		return Result[string]{Status: statusOf(err)}, err
	}
	return Result[string]{Status: resp.StatusCode(), Body: string(resp.Body())}, nil
}

// PostObject performs POST with body serialized as JSON and decodes a single item.
func (c *Client) PostObject(ctx context.Context, uri string, body any) (Result[domain.Item], error) {
	resp, err := c.do(ctx, OpPostObject, http.MethodPost, uri, nil, body)
	if err != nil {
		return Result[domain.Item]{Status: statusOf(err)}, err
	}
	item, err := itemjson.DecodeItem(resp.Body())
	if err != nil {
		return Result[domain.Item]{Status: resp.StatusCode()}, err
	}
	return Result[domain.Item]{Status: resp.StatusCode(), Body: item}, nil
}

// Exchange performs an arbitrary method with custom headers and a JSON body, returning the raw body.
func (c *Client) Exchange(ctx context.Context, uri, method string, headers map[string]string, body any) (Result[string], error) {
	resp, err := c.do(ctx, OpExchange, method, uri, headers, body)
	if err != nil {
		return Result[string]{Status: statusOf(err)}, err
	}
	return Result[string]{Status: resp.StatusCode(), Body: string(resp.Body())}, nil
}

func (c *Client) do(ctx context.Context, op, method, uri string, headers map[string]string, body any) (httpclient.Response, error) {
	c.log.InfoObj("dispatch request", "dispatch", map[string]any{
		"operation": op,
		"method":    method,
		"uri":       uri,
	})

	start := time.Now()
	resp, err := c.send(ctx, method, uri, headers, body)
	elapsed := time.Since(start)

	if err != nil {
		c.metrics.RecordOutboundCall(op, 0, float64(elapsed.Milliseconds()))
		c.log.ErrorObj("dispatch failed", "dispatch", map[string]any{
			"operation":  op,
			"uri":        uri,
			"error":      err.Error(),
			"elapsed_ms": elapsed.Milliseconds(),
		})
		return nil, &DispatchError{Method: method, URI: uri, Err: err}
	}

	status := resp.StatusCode()
	c.metrics.RecordOutboundCall(op, status, float64(elapsed.Milliseconds()))
	c.log.InfoObj("dispatch response", "dispatch", map[string]any{
		"operation":   op,
		"uri":         uri,
		"status_code": status,
		"elapsed_ms":  elapsed.Milliseconds(),
	})

	if status < 200 || status > 299 {
		return nil, &DispatchError{Method: method, URI: uri, Status: status, Body: httpclient.BodySnippet(resp.Body())}
	}
	return resp, nil
}

// send uses the plain GET path for bodiless GETs and Execute for everything else.
func (c *Client) send(ctx context.Context, method, uri string, headers map[string]string, body any) (httpclient.Response, error) {
	if method == http.MethodGet && body == nil {
		return c.http.Get(ctx, uri, headers)
	}
	return c.http.Execute(ctx, method, uri, headers, body)
}

func statusOf(err error) int {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Status
	}
	return 0
}
