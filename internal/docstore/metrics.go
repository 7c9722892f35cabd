package docstore

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		Requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "azadi_docstore_requests_total",
			Help: "Document store calls by driver, operation and outcome",
		}, []string{"driver", "op", "outcome"}),
		Latency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "azadi_docstore_request_duration_seconds",
			Help:    "Document store call latency",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 15},
		}, []string{"driver", "op"}),
	}
}

func (m *Metrics) observe(driver Driver, op Op, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	var te *TransportError
	switch {
	case err == nil:
	case errors.As(err, &te):
		outcome = "transport_error"
	case errors.Is(err, ErrShape):
		outcome = "shape_error"
	default:
		outcome = "error"
	}
	m.Requests.WithLabelValues(string(driver), string(op), outcome).Inc()
	m.Latency.WithLabelValues(string(driver), string(op)).Observe(time.Since(start).Seconds())
}

// Instrument wraps client so every call is counted and timed.
func Instrument(client Client, m *Metrics) Client {
	if m == nil {
		return client
	}
	return &instrumented{next: client, metrics: m}
}

type instrumented struct {
	next    Client
	metrics *Metrics
}

func (i *instrumented) Driver() Driver { return i.next.Driver() }

func (i *instrumented) Fetch(ctx context.Context, path string) (Value, error) {
	start := time.Now()
	v, err := i.next.Fetch(ctx, path)
	i.metrics.observe(i.next.Driver(), OpFetch, start, err)
	return v, err
}

func (i *instrumented) Put(ctx context.Context, path string, value any) error {
	start := time.Now()
	err := i.next.Put(ctx, path, value)
	i.metrics.observe(i.next.Driver(), OpPut, start, err)
	return err
}

func (i *instrumented) Patch(ctx context.Context, path string, fields map[string]any) error {
	start := time.Now()
	err := i.next.Patch(ctx, path, fields)
	i.metrics.observe(i.next.Driver(), OpPatch, start, err)
	return err
}

func (i *instrumented) Delete(ctx context.Context, path string) error {
	start := time.Now()
	err := i.next.Delete(ctx, path)
	i.metrics.observe(i.next.Driver(), OpDelete, start, err)
	return err
}
