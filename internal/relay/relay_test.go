package relay

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/flemzord/dashgram/internal/config"
	"github.com/flemzord/dashgram/modules/integration/webhook"
	"github.com/flemzord/dashgram/pkg/dashgram"
	"github.com/prometheus/client_golang/prometheus"
)

type recordingTracker struct {
	mu     sync.Mutex
	events []any
}

func (r *recordingTracker) TrackEventAsync(_ context.Context, event any, _ ...dashgram.CallOption) *dashgram.Pending {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	return nil
}

func (r *recordingTracker) Logger() *slog.Logger { return discardLogger() }

func (r *recordingTracker) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const update = `{"update_id":1,"message":{"message_id":1,"text":"Hello, world!"}}`

func testRelayConfig() config.RelayConfig {
	return config.RelayConfig{
		Bind:            "127.0.0.1:0",
		WebhookPath:     "/telegram/webhook",
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: time.Second,
	}
}

func newHandler(t *testing.T, cfg config.RelayConfig, tr dashgram.Tracker, g prometheus.Gatherer) http.Handler {
	t.Helper()
	h, err := New(cfg, tr, g, discardLogger()).Handler()
	if err != nil {
		t.Fatalf("Handler() error: %v", err)
	}
	return h
}

func TestWebhook_Acknowledge(t *testing.T) {
	t.Parallel()

	tr := &recordingTracker{}
	h := newHandler(t, testRelayConfig(), tr, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(update)))

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if rr.Body.String() != `{"ok":true}` {
		t.Errorf("body = %q", rr.Body.String())
	}
	if tr.count() != 1 {
		t.Errorf("tracked = %d, want 1", tr.count())
	}
}

func TestWebhook_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	tr := &recordingTracker{}
	h := newHandler(t, testRelayConfig(), tr, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/telegram/webhook", nil))

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusMethodNotAllowed)
	}
	if tr.count() != 0 {
		t.Errorf("tracked = %d, want 0", tr.count())
	}
}

func TestWebhook_SecretToken(t *testing.T) {
	t.Parallel()

	cfg := testRelayConfig()
	cfg.SecretToken = "s3cret"
	tr := &recordingTracker{}
	h := newHandler(t, cfg, tr, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(update)))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}

	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(update))
	req.Header.Set(webhook.SecretTokenHeader, "s3cret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if tr.count() != 1 {
		t.Errorf("tracked = %d, want 1", tr.count())
	}
}

func TestWebhook_Forward(t *testing.T) {
	t.Parallel()

	type forwarded struct {
		path string
		body string
	}
	got := make(chan forwarded, 1)
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		got <- forwarded{path: r.URL.Path, body: string(data)}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"method":"sendMessage"}`))
	}))
	defer backend.Close()

	cfg := testRelayConfig()
	cfg.ForwardURL = backend.URL + "/bot/updates"
	tr := &recordingTracker{}
	h := newHandler(t, cfg, tr, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(update)))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if rr.Body.String() != `{"method":"sendMessage"}` {
		t.Errorf("body = %q, want backend response", rr.Body.String())
	}
	f := <-got
	if f.path != "/bot/updates" {
		t.Errorf("forwarded path = %q, want /bot/updates", f.path)
	}
	if f.body != update {
		t.Errorf("forwarded body = %q, want %q", f.body, update)
	}
	if tr.count() != 1 {
		t.Errorf("tracked = %d, want 1", tr.count())
	}
}

func TestWebhook_ForwardUnreachable(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.NotFoundHandler())
	backend.Close()

	cfg := testRelayConfig()
	cfg.ForwardURL = backend.URL
	h := newHandler(t, cfg, &recordingTracker{}, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(update)))

	if rr.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadGateway)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	h := newHandler(t, testRelayConfig(), &recordingTracker{}, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
}

func TestMetricsRoute(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "relay_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	h := newHandler(t, testRelayConfig(), &recordingTracker{}, reg)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), "relay_test_total 1") {
		t.Errorf("metrics output missing counter:\n%s", rr.Body.String())
	}
}

func TestMetricsRoute_Disabled(t *testing.T) {
	t.Parallel()

	h := newHandler(t, testRelayConfig(), &recordingTracker{}, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestStartStop(t *testing.T) {
	t.Parallel()

	tr := &recordingTracker{}
	s := New(testRelayConfig(), tr, nil, discardLogger())
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	resp, err := http.Post("http://"+s.Addr().String()+"/telegram/webhook", "application/json", strings.NewReader(update))
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if tr.count() != 1 {
		t.Errorf("tracked = %d, want 1", tr.count())
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop() error: %v", err)
	}
}

func TestStop_NotStarted(t *testing.T) {
	t.Parallel()

	s := New(testRelayConfig(), &recordingTracker{}, nil, discardLogger())
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop() error: %v", err)
	}
}

func TestReload_SwapsRoutes(t *testing.T) {
	t.Parallel()

	tr := &recordingTracker{}
	s := New(testRelayConfig(), tr, nil, discardLogger())
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer func() { _ = s.Stop(context.Background()) }()

	cfg := testRelayConfig()
	cfg.WebhookPath = "/hook/v2"
	cfg.SecretToken = "s3cret"
	cfg.Bind = "127.0.0.1:1"
	if err := s.Reload(cfg); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}

	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(update)))
	if rr.Code != http.StatusNotFound {
		t.Errorf("old path status = %d, want %d", rr.Code, http.StatusNotFound)
	}

	req := httptest.NewRequest(http.MethodPost, "/hook/v2", strings.NewReader(update))
	req.Header.Set(webhook.SecretTokenHeader, "s3cret")
	rr = httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("new path status = %d, want %d", rr.Code, http.StatusOK)
	}

	resp, err := http.Post("http://"+s.Addr().String()+"/hook/v2", "application/json", strings.NewReader(update))
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("listener status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestServeHTTP_NotStarted(t *testing.T) {
	t.Parallel()

	s := New(testRelayConfig(), &recordingTracker{}, nil, discardLogger())
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}
