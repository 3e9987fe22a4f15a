// Package relay implements the four relay operations: build the remote URI, dispatch, decode.
package relay

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/samvad-hq/item-relay/internal/domain"
	"github.com/samvad-hq/item-relay/internal/logger"
	"github.com/samvad-hq/item-relay/internal/remote"
	"github.com/samvad-hq/item-relay/pkg/endpoints"
	"github.com/samvad-hq/item-relay/pkg/itemjson"
	"github.com/samvad-hq/item-relay/pkg/publishers"
	"github.com/samvad-hq/item-relay/pkg/uri"
)

// Operation names carried by call events.
const (
	OpGetCallObject = "get_call_obj"
	OpGetCallList   = "get_call_list"
	OpPostCall      = "post_call"
	OpExchangeCall  = "exchange_call"
)

// Dispatcher is the subset of remote.Client the service relies on.
type Dispatcher interface {
	GetObject(ctx context.Context, uri string) (remote.Result[domain.Item], error)
	GetRaw(ctx context.Context, uri string) (remote.Result[string], error)
	PostObject(ctx context.Context, uri string, body any) (remote.Result[domain.Item], error)
	Exchange(ctx context.Context, uri, method string, headers map[string]string, body any) (remote.Result[string], error)
}

// EventPublisher receives one event per completed operation.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Options configures a Service.
type Options struct {
	BaseURL            string
	Catalog            *endpoints.Catalog
	Credential         domain.Credential
	ExchangeAuthHeader string
}

// Service relays inbound calls to the remote item server.
type Service struct {
	baseURL    string
	catalog    *endpoints.Catalog
	credential domain.Credential
	authHeader string
	dispatch   Dispatcher
	events     EventPublisher
	log        logger.Logger
}

// NewService validates options and wires the service.
func NewService(opts Options, dispatch Dispatcher, events EventPublisher, log logger.Logger) (*Service, error) {
	if dispatch == nil {
		return nil, fmt.Errorf("dispatcher must not be nil")
	}
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, fmt.Errorf("remote base url must not be empty")
	}
	if opts.Catalog == nil {
		opts.Catalog = endpoints.DefaultCatalog()
	}
	if strings.TrimSpace(opts.ExchangeAuthHeader) == "" {
		opts.ExchangeAuthHeader = "X-Authorization"
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Service{
		baseURL:    opts.BaseURL,
		catalog:    opts.Catalog,
		credential: opts.Credential,
		authHeader: opts.ExchangeAuthHeader,
		dispatch:   dispatch,
		events:     events,
		log:        log,
	}, nil
}

// GetCallObject fetches a single item matching query.
func (s *Service) GetCallObject(ctx context.Context, query string) (domain.Item, error) {
	if err := requireValue("query", query); err != nil {
		return domain.Item{}, err
	}
	ep, target, err := s.target(endpoints.GetCallObject, url.Values{"query": {query}})
	if err != nil {
		return domain.Item{}, err
	}

	start := time.Now()
	res, err := s.dispatch.GetObject(ctx, target)
	s.emit(ctx, OpGetCallObject, ep.Method, target, res.Status, countOne(err), start, err)
	if err != nil {
		return domain.Item{}, err
	}
	return res.Body, nil
}

// GetCallList fetches the remote item list.
func (s *Service) GetCallList(ctx context.Context) ([]domain.Item, error) {
	ep, target, err := s.target(endpoints.GetCallList, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := s.dispatch.GetRaw(ctx, target)
	var items []domain.Item
	if err == nil {
		items, err = itemjson.DecodeItemList([]byte(res.Body))
	}
	s.emit(ctx, OpGetCallList, ep.Method, target, res.Status, len(items), start, err)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// PostCall posts the placeholder credential to the path filled with query.
func (s *Service) PostCall(ctx context.Context, query string) (domain.Item, error) {
	ep, target, err := s.target(endpoints.PostCall, nil, query)
	if err != nil {
		return domain.Item{}, err
	}

	start := time.Now()
	res, err := s.dispatch.PostObject(ctx, target, s.credential)
	s.emit(ctx, OpPostCall, ep.Method, target, res.Status, countOne(err), start, err)
	if err != nil {
		return domain.Item{}, err
	}
	return res.Body, nil
}

// ExchangeCall forwards token as the outbound auth header with the placeholder credential body.
func (s *Service) ExchangeCall(ctx context.Context, token string) ([]domain.Item, error) {
	if err := requireValue("Authorization", token); err != nil {
		return nil, err
	}
	ep, target, err := s.target(endpoints.ExchangeCall, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := s.dispatch.Exchange(ctx, target, ep.Method, map[string]string{s.authHeader: token}, s.credential)
	var items []domain.Item
	if err == nil {
		items, err = itemjson.DecodeItemList([]byte(res.Body))
	}
	s.emit(ctx, OpExchangeCall, ep.Method, target, res.Status, len(items), start, err)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Service) target(id string, query url.Values, vars ...string) (endpoints.Endpoint, string, error) {
	ep, err := s.catalog.Lookup(id)
	if err != nil {
		return endpoints.Endpoint{}, "", err
	}
	target, err := uri.Build(s.baseURL, ep.Path, query, vars...)
	if err != nil {
		return endpoints.Endpoint{}, "", err
	}
	return ep, target, nil
}

// emit hands the call event to the sinks. Sink failures never change the result.
func (s *Service) emit(ctx context.Context, op, method, target string, status, count int, start time.Time, callErr error) {
	if s.events == nil {
		return
	}
	evt := publishers.NewEvent(op, method, target, status, count, time.Since(start), callErr)
	if delivered, err := s.events.Publish(ctx, evt); err != nil {
		s.log.WarnObj("call event partially delivered", "call_event", map[string]any{
			"event_id":  evt.ID,
			"operation": op,
			"delivered": delivered,
		})
	}
}

func requireValue(param, value string) error {
	if strings.TrimSpace(value) == "" {
		return &uri.CallerInputError{Param: param, Err: uri.ErrEmptyValue}
	}
	return nil
}

func countOne(err error) int {
	if err != nil {
		return 0
	}
	return 1
}
