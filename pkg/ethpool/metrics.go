package ethpool

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors a Client reports to.
type Metrics struct {
	// Calls counts dispatched calls by category and outcome code.
	Calls *prometheus.CounterVec
	// Rejected counts calls that failed before any I/O, by error code.
	Rejected *prometheus.CounterVec
	// Duration observes dispatched call latency by category.
	Duration *prometheus.HistogramVec
}

// NewMetrics registers the client collectors with reg, or with the default
// registerer when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		Calls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ethpool_calls_total",
				Help: "The total number of dispatched pool API calls",
			},
			[]string{"category", "code"},
		),
		Rejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ethpool_calls_rejected_total",
				Help: "The total number of calls rejected before dispatch",
			},
			[]string{"code"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ethpool_call_duration_seconds",
				Help:    "Latency of dispatched pool API calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"category"},
		),
	}
}

const codeOK = "OK"

func (m *Metrics) observe(cat Category, err error, d time.Duration) {
	if m == nil {
		return
	}
	code := codeOK
	if err != nil {
		code = string(ErrorCodeOf(err))
	}
	m.Calls.WithLabelValues(cat.String(), code).Inc()
	m.Duration.WithLabelValues(cat.String()).Observe(d.Seconds())
}

func (m *Metrics) reject(err error) {
	if m == nil {
		return
	}
	m.Rejected.WithLabelValues(string(ErrorCodeOf(err))).Inc()
}
