package application

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ericfisherdev/invoice2erpnext/internal/domain/model"
)

// Metrics records credit fetch outcomes. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	fetches  *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics creates the fetch collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invoice2erpnext",
			Name:      "credit_fetch_total",
			Help:      "Credit balance fetches by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "invoice2erpnext",
			Name:      "credit_fetch_duration_seconds",
			Help:      "Duration of credit balance fetches that reached the billing API.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.fetches, m.duration)
	return m
}

func (m *Metrics) observeOutcome(outcome model.FetchOutcome) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(string(outcome)).Inc()
}

func (m *Metrics) observeDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.duration.Observe(d.Seconds())
}
