package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var durationBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

// Metrics provides observability for the boxoffice module.
// Tracks sales, pass lifecycle outcomes, money moved and operation latency.
type Metrics struct {
	ShowsCreated      prometheus.Counter
	ShowsTerminated   prometheus.Counter
	PassesSold        *prometheus.CounterVec
	PassOutcomes      *prometheus.CounterVec
	AmountMoved       *prometheus.CounterVec
	OperationFailures *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

// New registers the boxoffice metrics with reg. A nil reg creates
// unregistered collectors, which tests use to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ShowsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "boxoffice_shows_created_total",
			Help: "Total number of shows created",
		}),
		ShowsTerminated: factory.NewCounter(prometheus.CounterOpts{
			Name: "boxoffice_shows_terminated_total",
			Help: "Total number of shows terminated by their host",
		}),
		PassesSold: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "boxoffice_passes_sold_total",
			Help: "Total number of passes sold, by protection",
		}, []string{"protected"}),
		PassOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "boxoffice_pass_outcomes_total",
			Help: "Pass lifecycle transitions (transferred, scanned, refunded, protection_claimed)",
		}, []string{"outcome"}),
		AmountMoved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "boxoffice_amount_moved_total",
			Help: "Value moved through the ledger in minor units, by purpose",
		}, []string{"purpose"}),
		OperationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "boxoffice_operation_failures_total",
			Help: "Rejected or failed operations, by operation and error code",
		}, []string{"operation", "code"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "boxoffice_operation_duration_seconds",
			Help:    "Duration of boxoffice operations including the transaction",
			Buckets: durationBuckets,
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementShowsCreated() {
	m.ShowsCreated.Inc()
}

func (m *Metrics) IncrementShowsTerminated() {
	m.ShowsTerminated.Inc()
}

func (m *Metrics) IncrementPassesSold(protected bool) {
	label := "false"
	if protected {
		label = "true"
	}
	m.PassesSold.WithLabelValues(label).Inc()
}

func (m *Metrics) IncrementPassOutcome(outcome string) {
	m.PassOutcomes.WithLabelValues(outcome).Inc()
}

// AddAmountMoved records value moved for purpose (admission, premium, refund, claim).
func (m *Metrics) AddAmountMoved(purpose string, amount uint64) {
	m.AmountMoved.WithLabelValues(purpose).Add(float64(amount))
}

func (m *Metrics) IncrementFailure(operation, code string) {
	m.OperationFailures.WithLabelValues(operation, code).Inc()
}

// ObserveOperation records the duration of operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
