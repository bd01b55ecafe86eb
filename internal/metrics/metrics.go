// Package metrics exposes check and queue counters in the Prometheus
// format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "eden"

// Names of the metrics
const (
	ChecksTotal        = "monitor_checks_total"
	CheckDuration      = "monitor_check_duration_seconds"
	ScheduledTaskTotal = "scheduled_tasks_total"
	ActiveJobs         = "monitor_active_jobs"
)

// labels
const (
	FunctionLabel = "function"
	StatusLabel   = "status"
	OutcomeLabel  = "outcome"
)

// Metrics holds the service collectors on a private registry. A nil
// *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	checks     *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	scheduled  *prometheus.CounterVec
	activeJobs prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      ChecksTotal,
			Help:      "Monitor check runs by function and resulting status",
		}, []string{FunctionLabel, StatusLabel}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      CheckDuration,
			Help:      "Wall time of monitor check runs",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{FunctionLabel}),
		scheduled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      ScheduledTaskTotal,
			Help:      "Executed scheduled tasks by function and outcome",
		}, []string{FunctionLabel, OutcomeLabel}),
		activeJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      ActiveJobs,
			Help:      "Recurring monitor tasks currently scheduled",
		}),
	}

	m.registry.MustRegister(
		m.checks,
		m.duration,
		m.scheduled,
		m.activeJobs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) ObserveCheck(function, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.checks.WithLabelValues(function, status).Inc()
	m.duration.WithLabelValues(function).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveScheduledTask(function, outcome string) {
	if m == nil {
		return
	}
	m.scheduled.WithLabelValues(function, outcome).Inc()
}

func (m *Metrics) SetActiveJobs(n int) {
	if m == nil {
		return
	}
	m.activeJobs.Set(float64(n))
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
