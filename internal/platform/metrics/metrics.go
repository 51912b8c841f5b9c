package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the HTTP-level Prometheus metrics shared by every handler.
type Metrics struct {
	Requests       *prometheus.CounterVec
	RequestLatency *prometheus.HistogramVec
	IdempotentHits prometheus.Counter
}

// New creates and registers the HTTP metrics on reg. A nil reg leaves them
// unregistered, which keeps tests independent of the default registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "boxoffice_http_requests_total",
			Help: "HTTP requests by route pattern, method and status",
		}, []string{"route", "method", "status"}),
		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "boxoffice_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		IdempotentHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "boxoffice_http_idempotent_replays_total",
			Help: "Responses replayed for a repeated Idempotency-Key",
		}),
	}
}

// ObserveRequest records one finished request.
func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.RequestLatency.WithLabelValues(route, method).Observe(d.Seconds())
}

// IncrementIdempotentReplays counts a replayed response.
func (m *Metrics) IncrementIdempotentReplays() {
	if m == nil {
		return
	}
	m.IdempotentHits.Inc()
}
