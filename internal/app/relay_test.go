package app

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/item-relay/internal/config"
)

func testConfig(remoteURL string) *config.Config {
	return &config.Config{
		AppName:            "item-relay",
		HTTPAddr:           "127.0.0.1:0",
		ShutdownTimeout:    time.Second,
		RemoteBaseURL:      remoteURL,
		RemoteTimeout:      time.Second,
		ExchangeAuthHeader: "X-Authorization",
		CredentialUsername: "Robbie",
		CredentialPassword: "1234",
	}
}

func TestNewRelayRejectsNilConfig(t *testing.T) {
	if _, err := NewRelay(context.Background(), nil, nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestNewRelayRejectsBadEndpointsFile(t *testing.T) {
	cfg := testConfig("http://localhost:7070")
	cfg.EndpointsFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := NewRelay(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for missing endpoints file")
	}
}

func TestNewRelayLoadsHTTPSink(t *testing.T) {
	events := make(chan struct{}, 1)
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		events <- struct{}{}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer sink.Close()

	remoteSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	defer remoteSrv.Close()

	path := filepath.Join(t.TempDir(), "publishers.yaml")
	content := "publishers:\n  - id: hook\n    type: http\n    http:\n      url: " + sink.URL + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write publishers file: %v", err)
	}

	cfg := testConfig(remoteSrv.URL)
	cfg.PublishersFile = path
	r, err := NewRelay(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewRelay: %v", err)
	}
	if r.fanout.Size() != 1 {
		t.Fatalf("expected 1 sink, got %d", r.fanout.Size())
	}

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/client/get-call-list", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "[]" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	select {
	case <-events:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected call event at sink")
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	r, err := NewRelay(context.Background(), testConfig("http://localhost:7070"), nil)
	if err != nil {
		t.Fatalf("NewRelay: %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected health status %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("Serve did not return after cancel")
	}
}

func TestNewRelayJournalsCalls(t *testing.T) {
	remoteSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"items":[{"title":"Mac","price":2000}]}`))
	}))
	defer remoteSrv.Close()

	cfg := testConfig(remoteSrv.URL)
	cfg.JournalType = "bbolt"
	cfg.JournalPath = filepath.Join(t.TempDir(), "journal.db")
	cfg.JournalTTL = time.Hour

	r, err := NewRelay(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewRelay: %v", err)
	}
	defer r.closeFanout()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/client/get-call-list", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/journal/recent", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected journal status %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"operation":"get_call_list"`) || !strings.Contains(rec.Body.String(), `"item_count":1`) {
		t.Fatalf("journal missing call event: %s", rec.Body.String())
	}
}
