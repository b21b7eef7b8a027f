package dashgram

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Client.
type Option func(*Client)

// WithAPIURL overrides the collector base URL. The project id is appended
// as the last path segment.
func WithAPIURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithOrigin overrides the auto-detected origin string.
func WithOrigin(origin string) Option {
	return func(c *Client) { c.origin = origin }
}

// WithHTTPClient sets the underlying HTTP client. Its transport is wrapped,
// the client itself is not modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.baseHTTP = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger used for suppressed failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics registers request counters and latency histograms on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) { c.metrics = newMetrics(reg) }
}

// WithTracerProvider sets the provider used for request spans. The global
// provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tracer = tp.Tracer(instrumentationName) }
}

// WithMaxInFlight bounds the number of concurrent asynchronous requests.
// Calls submitted beyond the limit wait for a slot in their own goroutine;
// that backlog is unbounded, so a stalled collector holds one goroutine
// per pending call until its request times out.
func WithMaxInFlight(n int) Option {
	return func(c *Client) { c.maxInFlight = n }
}

// CallOption configures a single tracking call.
type CallOption func(*callConfig)

type callConfig struct {
	kind      HandlerKind
	framework Framework
	strict    bool
}

// AsKind supplies the handler kind for a bare payload.
func AsKind(kind HandlerKind) CallOption {
	return func(cc *callConfig) { cc.kind = kind }
}

// FromFramework converts the event with the given framework's adapter
// instead of recognizing its package.
func FromFramework(fw Framework) CallOption {
	return func(cc *callConfig) { cc.framework = fw }
}

// Strict disables suppression: failures are returned instead of being
// logged as warnings.
func Strict() CallOption {
	return func(cc *callConfig) { cc.strict = true }
}

func buildCallConfig(opts []CallOption) callConfig {
	var cc callConfig
	for _, o := range opts {
		o(&cc)
	}
	return cc
}
