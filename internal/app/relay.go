package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/samvad-hq/item-relay/internal/api"
	"github.com/samvad-hq/item-relay/internal/config"
	"github.com/samvad-hq/item-relay/internal/domain"
	"github.com/samvad-hq/item-relay/internal/journal"
	"github.com/samvad-hq/item-relay/internal/logger"
	"github.com/samvad-hq/item-relay/internal/relay"
	"github.com/samvad-hq/item-relay/internal/remote"
	"github.com/samvad-hq/item-relay/pkg/endpoints"
	"github.com/samvad-hq/item-relay/pkg/httpclient"
	"github.com/samvad-hq/item-relay/pkg/metrics"
	"github.com/samvad-hq/item-relay/pkg/publishers"
)

// Relay represents the relay runtime. It owns the HTTP server, the shared outbound
// client and the call-event sinks.
type Relay struct {
	cfg    *config.Config
	server *http.Server
	fanout *publishers.Fanout
	log    logger.Logger
}

// NewRelay builds a relay runtime from config.
func NewRelay(ctx context.Context, cfg *config.Config, log logger.Logger) (*Relay, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	catalog, err := endpoints.LoadCatalog(cfg.EndpointsFile)
	if err != nil {
		return nil, fmt.Errorf("load endpoints catalog: %w", err)
	}
	log.InfoObj("endpoints catalog loaded", "endpoints", catalog.All())

	sinks, err := buildSinks(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	callJournal, err := journal.Open(cfg.JournalType, cfg.JournalPath, journal.Options{TTL: cfg.JournalTTL})
	if err != nil {
		_ = publishers.NewFanout(sinks, log).Close()
		return nil, fmt.Errorf("open call journal: %w", err)
	}
	if journal.Enabled(callJournal) {
		log.InfoObj("call journal opened", "journal", map[string]any{
			"type":      cfg.JournalType,
			"path":      cfg.JournalPath,
			"ttl_hours": cfg.JournalTTLHours,
		})
		sinks = append(sinks, callJournal)
	}
	fanout := publishers.NewFanout(sinks, log)

	m := metrics.NewManager(metrics.WithNamespace(cfg.MetricsNamespace), metrics.WithRuntimeCollectors())
	dispatcher := remote.NewClient(httpclient.NewRestyClient(cfg.RemoteTimeout), log, m)

	svc, err := relay.NewService(relay.Options{
		BaseURL:            cfg.RemoteBaseURL,
		Catalog:            catalog,
		Credential:         domain.Credential{Username: cfg.CredentialUsername, Password: cfg.CredentialPassword},
		ExchangeAuthHeader: cfg.ExchangeAuthHeader,
	}, dispatcher, fanout, log)
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init relay service: %w", err)
	}

	router := api.NewRouter(svc, m, log)
	if journal.Enabled(callJournal) {
		api.RegisterJournalRoutes(router, callJournal)
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Relay{
		cfg:    cfg,
		server: server,
		fanout: fanout,
		log:    log,
	}, nil
}

// buildSinks loads the optional remote call-event sinks.
func buildSinks(ctx context.Context, cfg *config.Config, log logger.Logger) ([]publishers.Publisher, error) {
	if cfg.PublishersFile == "" {
		log.InfoObj("no publishers file configured; remote call-event sinks disabled", "publishers_file", "")
		return nil, nil
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabled := publisherReg.Enabled()
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return pubClients, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (r *Relay) Handler() http.Handler {
	return r.server.Handler
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (r *Relay) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", r.cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", r.cfg.HTTPAddr, err)
	}
	return r.Serve(ctx, ln)
}

// Serve serves on an existing listener until the context is cancelled.
func (r *Relay) Serve(ctx context.Context, ln net.Listener) error {
	if r == nil || r.server == nil {
		return fmt.Errorf("relay is not initialized")
	}
	defer r.closeFanout()

	r.log.InfoObj("relay listening", "relay_state", map[string]any{
		"addr":            ln.Addr().String(),
		"remote_base_url": r.cfg.RemoteBaseURL,
		"sinks_count":     r.fanout.Size(),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
		r.log.InfoObj("relay shutting down", "reason", ctx.Err())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), r.cfg.ShutdownTimeout)
	defer cancel()
	if err := r.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http: %w", err)
	}
	return nil
}

// closeFanout releases the call-event sinks, logging any errors encountered.
func (r *Relay) closeFanout() {
	if err := r.fanout.Close(); err != nil {
		r.log.ErrorObj("publishers close failed", "error", err)
	}
}
