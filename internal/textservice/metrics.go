package textservice

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Requests *prometheus.CounterVec
	Latency  prometheus.Histogram
}

func NewMetrics() *Metrics {
	return &Metrics{
		Requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "azadi_text_service_requests_total",
			Help: "Translation requests by outcome",
		}, []string{"outcome"}),
		Latency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "azadi_text_service_request_duration_seconds",
			Help:    "Translation request latency",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) observe(start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.Requests.WithLabelValues(outcome).Inc()
	m.Latency.Observe(time.Since(start).Seconds())
}
