package dashgram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultAPIURL is the public collector endpoint.
	DefaultAPIURL = "https://api.dashgram.io/v1"

	defaultTimeout     = 30 * time.Second
	defaultMaxInFlight = 64

	endpointTrack     = "track"
	endpointInvitedBy = "invited_by"
)

// Compile-time interface guard.
var _ Tracker = (*Client)(nil)

// Client sends tracking requests to the collector API. It is safe for
// concurrent use.
type Client struct {
	projectID string
	accessKey string
	baseURL   string
	apiURL    string
	origin    string

	baseHTTP    *http.Client
	http        *http.Client
	timeout     time.Duration
	logger      *slog.Logger
	metrics     *metrics
	tracer      trace.Tracer
	maxInFlight int

	execOnce sync.Once
	exec     *executor

	closeMu sync.RWMutex
	closed  bool
}

// trackRequest is the body of POST /track.
type trackRequest struct {
	Origin  string  `json:"origin"`
	Updates []Event `json:"updates"`
}

// invitedByRequest is the body of POST /invited_by.
type invitedByRequest struct {
	UserID    int64  `json:"user_id"`
	InvitedBy int64  `json:"invited_by"`
	Origin    string `json:"origin"`
}

// New creates a client for the given project.
func New(projectID, accessKey string, opts ...Option) *Client {
	c := &Client{
		projectID:   projectID,
		accessKey:   accessKey,
		baseURL:     DefaultAPIURL,
		timeout:     defaultTimeout,
		maxInFlight: defaultMaxInFlight,
	}
	for _, o := range opts {
		o(c)
	}

	c.apiURL = strings.TrimSuffix(c.baseURL, "/") + "/" + projectID
	if c.origin == "" {
		c.origin = DefaultOrigin()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(instrumentationName)
	}
	if c.maxInFlight <= 0 {
		c.maxInFlight = defaultMaxInFlight
	}
	c.http = newHTTPClient(c.baseHTTP, c.timeout, accessKey)
	c.logger = c.logger.With("component", "dashgram")
	return c
}

// DefaultOrigin returns the origin used when none is configured:
// "Go + Dashgram SDK v<version>", followed by " + <framework>" when an
// adapter is linked.
func DefaultOrigin() string {
	origin := "Go + Dashgram SDK v" + Version
	if fw := ResolveActiveFramework(); fw != "" {
		origin += " + " + fw
	}
	return origin
}

// ProjectID returns the configured project id.
func (c *Client) ProjectID() string { return c.projectID }

// APIURL returns the project scoped collector URL.
func (c *Client) APIURL() string { return c.apiURL }

// Origin returns the origin sent with every request.
func (c *Client) Origin() string { return c.origin }

// Logger implements Tracker.
func (c *Client) Logger() *slog.Logger { return c.logger }

// TrackEvent normalizes event and sends it to the collector. It returns
// true on confirmed success. Failures are logged and reported as false
// unless Strict is given.
func (c *Client) TrackEvent(ctx context.Context, event any, opts ...CallOption) (bool, error) {
	cc := buildCallConfig(opts)
	return c.finish(endpointTrack, c.trackEvent(ctx, event, cc), cc.strict)
}

// InvitedBy records that userID joined through invitedBy's referral.
func (c *Client) InvitedBy(ctx context.Context, userID, invitedBy int64, opts ...CallOption) (bool, error) {
	cc := buildCallConfig(opts)
	return c.finish(endpointInvitedBy, c.invitedBy(ctx, userID, invitedBy), cc.strict)
}

// TrackEventAsync is the non-blocking form of TrackEvent. Normalization
// happens before it returns; the request runs on the client's executor.
func (c *Client) TrackEventAsync(ctx context.Context, event any, opts ...CallOption) *Pending {
	cc := buildCallConfig(opts)
	if err := c.checkOpen(); err != nil {
		return resolved(c.finish(endpointTrack, err, cc.strict))
	}
	e, err := c.normalize(event, cc)
	if err != nil {
		return resolved(c.finish(endpointTrack, err, cc.strict))
	}
	return c.executor().submit(c.logger, func() (bool, error) {
		return c.finish(endpointTrack, c.send(ctx, endpointTrack, trackRequest{
			Origin:  c.origin,
			Updates: []Event{e},
		}), cc.strict)
	})
}

// InvitedByAsync is the non-blocking form of InvitedBy.
func (c *Client) InvitedByAsync(ctx context.Context, userID, invitedBy int64, opts ...CallOption) *Pending {
	cc := buildCallConfig(opts)
	if err := c.checkOpen(); err != nil {
		return resolved(c.finish(endpointInvitedBy, err, cc.strict))
	}
	return c.executor().submit(c.logger, func() (bool, error) {
		return c.finish(endpointInvitedBy, c.invitedBy(ctx, userID, invitedBy), cc.strict)
	})
}

// Bind installs a tracking observer into target using the adapter for fw.
// It returns ErrAdapterUnavailable when that adapter is not linked.
func (c *Client) Bind(fw Framework, target any) error {
	a, ok := GetAdapter(fw)
	if !ok {
		return fmt.Errorf("%w: %s", ErrAdapterUnavailable, fw)
	}
	return a.Bind(c, target)
}

// BindTelegramBotAPI tees a *tgbotapi.UpdatesChannel through the tracker.
func (c *Client) BindTelegramBotAPI(updates any) error {
	return c.Bind(FrameworkTelegramBotAPI, updates)
}

// BindGoTelegram appends a tracking middleware to a *[]bot.Option.
func (c *Client) BindGoTelegram(options any) error {
	return c.Bind(FrameworkGoTelegram, options)
}

// BindTelebot wraps the poller of a *tele.Bot.
func (c *Client) BindTelebot(b any) error {
	return c.Bind(FrameworkTelebot, b)
}

// Close waits for in-flight asynchronous calls, then releases idle
// connections. Calls made after Close fail with ErrClosed.
func (c *Client) Close() error {
	c.closeMu.Lock()
	if c.closed {
		c.closeMu.Unlock()
		return nil
	}
	c.closed = true
	c.closeMu.Unlock()

	// An executor that was never used is created closed so that a racing
	// async call observes ErrClosed.
	c.execOnce.Do(func() { c.exec = newExecutor(1) })
	c.exec.close()
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) trackEvent(ctx context.Context, event any, cc callConfig) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	e, err := c.normalize(event, cc)
	if err != nil {
		return err
	}
	return c.send(ctx, endpointTrack, trackRequest{Origin: c.origin, Updates: []Event{e}})
}

func (c *Client) invitedBy(ctx context.Context, userID, invitedBy int64) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.send(ctx, endpointInvitedBy, invitedByRequest{
		UserID:    userID,
		InvitedBy: invitedBy,
		Origin:    c.origin,
	})
}

func (c *Client) normalize(event any, cc callConfig) (Event, error) {
	if cc.framework != "" {
		return NormalizeFrom(cc.framework, event, cc.kind)
	}
	return Normalize(event, cc.kind)
}

// finish applies the suppression policy to the outcome of a call.
func (c *Client) finish(endpoint string, err error, strict bool) (bool, error) {
	if err == nil {
		return true, nil
	}
	if strict || alwaysPropagates(err) {
		return false, err
	}

	attrs := []any{"endpoint", endpoint, "error", err}
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		attrs = append(attrs, "request_id", reqErr.requestID)
	}
	c.logger.Warn("tracking failed", attrs...)
	return false, nil
}

func (c *Client) checkOpen() error {
	c.closeMu.RLock()
	defer c.closeMu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}

func (c *Client) executor() *executor {
	c.execOnce.Do(func() {
		c.exec = newExecutor(c.maxInFlight)
	})
	return c.exec
}
