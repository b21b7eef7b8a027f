package dashgram

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the client and the adapters.
var (
	// ErrInvalidCredentials indicates the collector rejected the project id
	// or access key (HTTP 403).
	ErrInvalidCredentials = errors.New("dashgram: invalid project_id or access_key")

	// ErrAmbiguousEnvelope indicates a bare payload mapping was given without
	// an update_id and without a handler kind to wrap it under.
	ErrAmbiguousEnvelope = errors.New("dashgram: event has no update_id and no handler kind")

	// ErrHandlerKindRequired indicates a framework payload object (not an
	// Update) was given without a handler kind.
	ErrHandlerKindRequired = errors.New("dashgram: handler kind required for non-update object")

	// ErrAdapterUnavailable indicates the requested framework adapter is not
	// linked into the binary.
	ErrAdapterUnavailable = errors.New("dashgram: framework adapter unavailable")

	// ErrBindTarget indicates Bind was given a value that is not the
	// adapter's dispatch extension point.
	ErrBindTarget = errors.New("dashgram: unsupported bind target")

	// ErrClosed indicates the client was used after Close.
	ErrClosed = errors.New("dashgram: client closed")
)

// APIError is returned when the collector answers with anything other than
// a 200 response carrying {"status": "success"}.
type APIError struct {
	StatusCode int
	Details    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("dashgram: %s - status code: %d", e.Details, e.StatusCode)
}

// alwaysPropagates reports whether err is a setup error that is returned to
// the caller even when suppression is enabled.
func alwaysPropagates(err error) bool {
	return errors.Is(err, ErrAdapterUnavailable) || errors.Is(err, ErrClosed)
}
