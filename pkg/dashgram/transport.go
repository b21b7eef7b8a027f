package dashgram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	maxResponseBytes = 1 << 20 // 1 MiB
	maxDetailsLength = 512

	statusSuccess = "success"
)

// apiResponse is the envelope returned by the collector.
type apiResponse struct {
	Status  string          `json:"status"`
	Details json.RawMessage `json:"details,omitempty"`
}

// requestError attaches the request id to a failed call.
type requestError struct {
	requestID string
	err       error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

// authTransport sets the headers shared by every request.
type authTransport struct {
	base          http.RoundTripper
	authorization string
	userAgent     string
}

// RoundTrip implements http.RoundTripper.
func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", t.authorization)
	r.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(r)
}

// newHTTPClient returns the persistent, authenticated HTTP client. A
// caller-supplied client is copied, never mutated.
func newHTTPClient(base *http.Client, timeout time.Duration, accessKey string) *http.Client {
	var hc http.Client
	if base != nil {
		hc = *base
	} else {
		hc.Timeout = timeout
	}
	rt := hc.Transport
	if rt == nil {
		rt = http.DefaultTransport.(*http.Transport).Clone()
	}
	hc.Transport = &authTransport{
		base:          rt,
		authorization: "Bearer " + accessKey,
		userAgent:     "dashgram-go/" + Version,
	}
	return &hc
}

// send POSTs payload to endpoint and interprets the response.
func (c *Client) send(ctx context.Context, endpoint string, payload any) (err error) {
	requestID := uuid.NewString()
	start := time.Now()

	ctx, span := c.tracer.Start(ctx, "dashgram."+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("dashgram.endpoint", endpoint),
			attribute.String("dashgram.project_id", c.projectID),
			attribute.String("dashgram.request_id", requestID),
		),
	)
	defer func() {
		c.metrics.observe(endpoint, err, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			err = &requestError{requestID: requestID, err: err}
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("dashgram: marshal %s request: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/"+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("dashgram: create %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("dashgram: %s request failed: %w", endpoint, err)
	}
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
	if err != nil {
		return fmt.Errorf("dashgram: read %s response: %w", endpoint, err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	return interpretResponse(endpoint, resp.StatusCode, respBody)
}

// interpretResponse maps a collector response onto the error taxonomy.
func interpretResponse(endpoint string, status int, body []byte) error {
	if status == http.StatusForbidden {
		return ErrInvalidCredentials
	}

	var r apiResponse
	decodeErr := json.Unmarshal(body, &r)

	if status != http.StatusOK {
		details := detailsText(r.Details)
		if decodeErr != nil {
			details = truncate(strings.TrimSpace(string(body)))
		}
		return &APIError{StatusCode: status, Details: details}
	}
	if decodeErr != nil {
		return fmt.Errorf("dashgram: decode %s response: %w", endpoint, decodeErr)
	}
	if r.Status != statusSuccess {
		return &APIError{StatusCode: status, Details: detailsText(r.Details)}
	}
	return nil
}

// detailsText renders the details field, which is usually a string but is
// not guaranteed to be one.
func detailsText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return truncate(string(raw))
}

func truncate(s string) string {
	if len(s) <= maxDetailsLength {
		return s
	}
	return s[:maxDetailsLength] + "..."
}
