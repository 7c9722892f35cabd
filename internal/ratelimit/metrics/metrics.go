package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RequestsRejected *prometheus.CounterVec
	AuthFailures     prometheus.Counter
	AuthLockouts     prometheus.Counter
}

// New registers the rate limit metrics on reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		RequestsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "azadi_ratelimit_requests_rejected_total",
			Help: "Requests rejected by a rate limit, by endpoint class",
		}, []string{"class"}),
		AuthFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "azadi_ratelimit_auth_failures_recorded_total",
			Help: "Failed admin logins recorded for lockout",
		}),
		AuthLockouts: f.NewCounter(prometheus.CounterOpts{
			Name: "azadi_ratelimit_auth_lockouts_total",
			Help: "Hard lockouts applied after repeated failed logins",
		}),
	}
}

func (m *Metrics) RecordRejected(class string) {
	if m == nil {
		return
	}
	m.RequestsRejected.WithLabelValues(class).Inc()
}

func (m *Metrics) IncrementAuthFailures() {
	if m == nil {
		return
	}
	m.AuthFailures.Inc()
}

func (m *Metrics) IncrementAuthLockouts() {
	if m == nil {
		return
	}
	m.AuthLockouts.Inc()
}
