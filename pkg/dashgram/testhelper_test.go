package dashgram

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
)

const testOrigin = "Go + Dashgram SDK"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func bufferLogger() (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return slog.New(slog.NewTextHandler(buf, nil)), buf
}

// fakeUpdate and fakeMessage stand in for a bot library's object model.
type fakeUpdate struct {
	UpdateID int          `json:"update_id"`
	Message  *fakeMessage `json:"message,omitempty"`
}

type fakeMessage struct {
	MessageID int    `json:"message_id"`
	Text      string `json:"text"`
}

const fakeFramework Framework = "fake"

type fakeAdapter struct {
	tracker Tracker
	targets []any
}

func (a *fakeAdapter) AdapterInfo() AdapterInfo {
	return AdapterInfo{
		Framework: fakeFramework,
		Label:     "fakegram",
		Packages:  []string{reflect.TypeOf(fakeUpdate{}).PkgPath()},
	}
}

func (a *fakeAdapter) Convert(obj any, kind HandlerKind) (Event, error) {
	switch obj.(type) {
	case fakeUpdate, *fakeUpdate:
		return FromNative(obj, true, kind)
	default:
		return FromNative(obj, false, kind)
	}
}

func (a *fakeAdapter) Bind(t Tracker, target any) error {
	a.tracker = t
	a.targets = append(a.targets, target)
	return nil
}

// withEmptyRegistry clears the adapter registry for the duration of t.
func withEmptyRegistry(t *testing.T) {
	t.Helper()
	resetRegistry()
	t.Cleanup(resetRegistry)
}

// withFakeAdapter registers a fakeAdapter for the duration of t.
func withFakeAdapter(t *testing.T) *fakeAdapter {
	t.Helper()
	withEmptyRegistry(t)
	a := &fakeAdapter{}
	RegisterAdapter(a)
	return a
}

type recordedRequest struct {
	method string
	path   string
	header http.Header
	body   []byte
}

// newCollector starts a server answering every request with status and
// body, recording what it receives.
func newCollector(t *testing.T, status int, body string) (*httptest.Server, <-chan recordedRequest) {
	t.Helper()
	reqs := make(chan recordedRequest, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		reqs <- recordedRequest{method: r.Method, path: r.URL.Path, header: r.Header.Clone(), body: data}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, reqs
}

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	base := []Option{
		WithAPIURL(srv.URL),
		WithOrigin(testOrigin),
		WithLogger(discardLogger()),
	}
	c := New("test_project", "test_key", append(base, opts...)...)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func receive(t *testing.T, reqs <-chan recordedRequest) recordedRequest {
	t.Helper()
	select {
	case r := <-reqs:
		return r
	default:
		t.Fatal("no request received")
		return recordedRequest{}
	}
}

func assertJSONEqual(t *testing.T, got []byte, want string) {
	t.Helper()
	var g, w any
	if err := json.Unmarshal(got, &g); err != nil {
		t.Fatalf("unmarshal got %s: %v", got, err)
	}
	if err := json.Unmarshal([]byte(want), &w); err != nil {
		t.Fatalf("unmarshal want %s: %v", want, err)
	}
	if !reflect.DeepEqual(g, w) {
		t.Errorf("JSON = %s, want %s", got, want)
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

const (
	successBody = `{"status":"success","details":"Event tracked successfully"}`
	errorBody   = `{"status":"error","details":"Invalid request"}`
	sampleEvent = `{"update_id":123456,"message":{"message_id":1,"from":{"id":123,"first_name":"Test","is_bot":false},"chat":{"id":456,"type":"private"},"date":1640995200,"text":"Hello, world!"}}`
	sampleMsg   = `{"message_id":1,"from":{"id":123,"first_name":"Test","is_bot":false},"chat":{"id":456,"type":"private"},"date":1640995200,"text":"Hello, world!"}`
)
