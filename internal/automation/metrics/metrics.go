package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the maintenance engine.
type Metrics struct {
	// Runs by outcome: success, error, skipped
	Runs *prometheus.CounterVec

	TaskFailures *prometheus.CounterVec

	RunDuration prometheus.Histogram

	BrokenLinks         prometheus.Gauge
	MissingTranslations prometheus.Gauge
	StorageUsage        prometheus.Gauge

	ProfilesFixed prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Runs: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "azadi_automation_runs_total",
			Help: "Maintenance runs by outcome",
		}, []string{"outcome"}),

		TaskFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "azadi_automation_task_failures_total",
			Help: "Failed maintenance tasks by task name",
		}, []string{"task"}),

		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "azadi_automation_run_duration_seconds",
			Help:    "Duration of a full maintenance run",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),

		BrokenLinks: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "azadi_automation_broken_links",
			Help: "Broken image references found by the last scan",
		}),

		MissingTranslations: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "azadi_automation_missing_translations",
			Help: "One-sided localized fields left after the last scan",
		}),

		StorageUsage: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "azadi_automation_storage_usage_percent",
			Help: "Estimated storage usage as a percentage of the quota",
		}),

		ProfilesFixed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "azadi_automation_profiles_fixed_total",
			Help: "Leader profiles repaired by translation backfill",
		}),
	}
}

func (m *Metrics) IncrementRun(outcome string) {
	if m != nil {
		m.Runs.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncrementTaskFailure(task string) {
	if m != nil {
		m.TaskFailures.WithLabelValues(task).Inc()
	}
}

func (m *Metrics) ObserveRunDuration(d time.Duration) {
	if m != nil {
		m.RunDuration.Observe(d.Seconds())
	}
}

// RecordScan publishes the counts of a finished scan.
func (m *Metrics) RecordScan(broken, missing int, usage float64) {
	if m != nil {
		m.BrokenLinks.Set(float64(broken))
		m.MissingTranslations.Set(float64(missing))
		m.StorageUsage.Set(usage)
	}
}

func (m *Metrics) AddProfilesFixed(n int) {
	if m != nil && n > 0 {
		m.ProfilesFixed.Add(float64(n))
	}
}
