package dashgram

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const instrumentationName = "github.com/flemzord/dashgram"

// Request outcomes used as metric label values.
const (
	OutcomeSuccess            = "success"
	OutcomeAPIError           = "api_error"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeTransportError     = "transport_error"
)

// metrics holds the client's Prometheus collectors. A nil *metrics records
// nothing.
type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashgram_requests_total",
			Help: "Total number of collector requests, labelled by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashgram_request_duration_seconds",
			Help:    "Collector request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

func (m *metrics) observe(endpoint string, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(endpoint, outcome(err)).Inc()
	m.duration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// outcome classifies a request error.
func outcome(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrInvalidCredentials):
		return OutcomeInvalidCredentials
	case errors.As(err, &apiErr):
		return OutcomeAPIError
	default:
		return OutcomeTransportError
	}
}
