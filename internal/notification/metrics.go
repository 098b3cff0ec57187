package notification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks fan-out volume per notification kind.
type Metrics struct {
	Created *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		Created: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bidhall_notifications_created_total",
			Help: "Total in-app notifications created, by kind",
		}, []string{"kind"}),
	}
}

func (m *Metrics) IncrementCreated(kind Kind) {
	if m != nil {
		m.Created.WithLabelValues(string(kind)).Inc()
	}
}
