package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the bid module.
type Metrics struct {
	// Accepted bids by auction
	Accepted prometheus.Counter

	// Rejected bids by reason
	Rejected *prometheus.CounterVec

	// Placement latency including store commit
	PlaceLatency prometheus.Histogram
}

// New creates a new Metrics instance with all bid module metrics registered.
func New() *Metrics {
	return &Metrics{
		Accepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bidhall_bids_accepted_total",
			Help: "Total bids accepted",
		}),

		Rejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bidhall_bids_rejected_total",
			Help: "Total bids rejected by reason",
		}, []string{"reason"}), // reason: "forbidden", "ended", "amount_too_low", "not_found"

		PlaceLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "bidhall_bid_place_duration_seconds",
			Help:    "Duration of bid placement including persistence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementAccepted records an accepted bid.
func (m *Metrics) IncrementAccepted() {
	if m != nil {
		m.Accepted.Inc()
	}
}

// IncrementRejected records a rejected bid with its reason.
func (m *Metrics) IncrementRejected(reason string) {
	if m != nil {
		m.Rejected.WithLabelValues(reason).Inc()
	}
}

// ObservePlaceLatency records the duration of a placement attempt.
func (m *Metrics) ObservePlaceLatency(d time.Duration) {
	if m != nil {
		m.PlaceLatency.Observe(d.Seconds())
	}
}
