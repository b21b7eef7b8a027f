// Package relay runs the HTTP server behind `dashgram serve`: a Telegram
// webhook endpoint that tracks every update before forwarding it to the
// bot backend.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flemzord/dashgram/internal/config"
	"github.com/flemzord/dashgram/modules/integration/webhook"
	"github.com/flemzord/dashgram/pkg/dashgram"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the webhook relay.
type Server struct {
	mu        sync.Mutex
	config    config.RelayConfig
	tracker   dashgram.Tracker
	gatherer  prometheus.Gatherer
	logger    *slog.Logger
	handler   atomic.Pointer[http.Handler]
	server    *http.Server
	startedAt time.Time
	addr      net.Addr
}

// New creates a relay. gatherer may be nil, in which case /metrics is not
// mounted.
func New(cfg config.RelayConfig, tracker dashgram.Tracker, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	return &Server{
		config:   cfg,
		tracker:  tracker,
		gatherer: gatherer,
		logger:   logger.With("component", "relay"),
	}
}

// Handler builds the chi router with all routes wired.
func (s *Server) Handler() (http.Handler, error) {
	forward, err := s.forwardHandler()
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Get("/health", s.handleHealth())
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	r.With(webhook.Middleware(s.tracker, webhook.Config{
		SecretToken: s.config.SecretToken,
	})).Post(s.config.WebhookPath, forward.ServeHTTP)

	return r, nil
}

// forwardHandler proxies tracked updates to the bot backend, or
// acknowledges them when no backend is configured.
func (s *Server) forwardHandler() (http.Handler, error) {
	if s.config.ForwardURL == "" {
		return webhook.Acknowledge(), nil
	}
	target, err := url.Parse(s.config.ForwardURL)
	if err != nil {
		return nil, fmt.Errorf("relay: invalid forward_url: %w", err)
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.Out.URL.Path = target.Path
			pr.Out.URL.RawPath = target.RawPath
		},
		ErrorHandler: func(w http.ResponseWriter, _ *http.Request, err error) {
			s.logger.Error("forwarding update failed", "error", err)
			http.Error(w, "bad gateway", http.StatusBadGateway)
		},
	}
	return proxy, nil
}

// Reload swaps in the routes built from cfg. The webhook path, secret token
// and forward URL take effect for the next request; listener settings are
// kept until restart.
func (s *Server) Reload(cfg config.RelayConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg.Bind != s.config.Bind || cfg.ReadTimeout != s.config.ReadTimeout || cfg.WriteTimeout != s.config.WriteTimeout {
		s.logger.Warn("relay listener settings changed, restart to apply", "bind", cfg.Bind)
		cfg.Bind = s.config.Bind
		cfg.ReadTimeout, cfg.WriteTimeout = s.config.ReadTimeout, s.config.WriteTimeout
	}

	prev := s.config
	s.config = cfg
	handler, err := s.Handler()
	if err != nil {
		s.config = prev
		return err
	}
	s.handler.Store(&handler)
	s.logger.Info("relay routes reloaded", "webhook_path", cfg.WebhookPath, "forwarding", cfg.ForwardURL != "")
	return nil
}

// ServeHTTP serves the current routes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h := s.handler.Load(); h != nil {
		(*h).ServeHTTP(w, r)
		return
	}
	http.Error(w, "relay not started", http.StatusServiceUnavailable)
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	handler, err := s.Handler()
	if err != nil {
		return err
	}
	s.handler.Store(&handler)

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", s.config.Bind)
	if err != nil {
		return fmt.Errorf("relay: listen failed: %w", err)
	}

	server := &http.Server{
		Handler:      s,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	s.server = server
	s.addr = ln.Addr()
	s.startedAt = time.Now()

	s.logger.Info("relay listening", "addr", s.addr.String(), "webhook_path", s.config.WebhookPath)
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("relay serve error", "error", err)
		}
	}()
	return nil
}

// Addr returns the listening address once Start has succeeded.
func (s *Server) Addr() net.Addr { return s.addr }

// Stop shuts the server down gracefully within the configured timeout.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	server, timeout := s.server, s.config.ShutdownTimeout
	s.mu.Unlock()
	if server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.logger.Info("relay shutting down")
	return server.Shutdown(shutdownCtx)
}
