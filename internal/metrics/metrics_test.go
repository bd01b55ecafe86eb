package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveCheck(t *testing.T) {
	m := New()

	m.ObserveCheck("ping", "critical", 20*time.Millisecond)
	m.ObserveCheck("ping", "critical", 30*time.Millisecond)
	m.ObserveCheck("eden", "ok", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.checks.WithLabelValues("ping", "critical")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checks.WithLabelValues("eden", "ok")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveScheduledTask("setup_monitor_check_email_reply", "completed")
	m.SetActiveJobs(4)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `eden_scheduled_tasks_total{function="setup_monitor_check_email_reply",outcome="completed"} 1`)
	assert.Contains(t, rec.Body.String(), "eden_monitor_active_jobs 4")
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveCheck("ping", "ok", time.Second)
		m.ObserveScheduledTask("x", "failed")
		m.SetActiveJobs(1)
	})
}
