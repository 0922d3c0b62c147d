package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	historyLoadDuration   prometheus.Histogram
	historySaveDuration   prometheus.Histogram
	historyPersistErrors  *prometheus.CounterVec
	historyRecords        prometheus.Gauge
	sessionCleanupTotal   *prometheus.CounterVec
	sessionCleanupLatency prometheus.Histogram
	lifecycleTriggers     *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			historyLoadDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "recap_history_load_duration_seconds",
					Help:    "History load duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			historySaveDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "recap_history_save_duration_seconds",
					Help:    "History save duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			historyPersistErrors: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "recap_history_persist_errors_total",
					Help: "Total absorbed history persistence failures by operation.",
				},
				[]string{"op"},
			),
			historyRecords: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "recap_history_records",
					Help: "Current number of in-memory history records.",
				},
			),
			sessionCleanupTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "recap_session_cleanup_total",
					Help: "Total session cleanup notifications by status.",
				},
				[]string{"status"},
			),
			sessionCleanupLatency: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "recap_session_cleanup_duration_seconds",
					Help:    "Session cleanup notification round trip in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			lifecycleTriggers: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "recap_lifecycle_triggers_total",
					Help: "Total lifecycle triggers fired by event.",
				},
				[]string{"event"},
			),
		}

		prometheus.MustRegister(
			m.historyLoadDuration,
			m.historySaveDuration,
			m.historyPersistErrors,
			m.historyRecords,
			m.sessionCleanupTotal,
			m.sessionCleanupLatency,
			m.lifecycleTriggers,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

func RecordHistoryLoad(duration time.Duration) {
	m := getMetrics()
	m.historyLoadDuration.Observe(duration.Seconds())
}

func RecordHistorySave(duration time.Duration) {
	m := getMetrics()
	m.historySaveDuration.Observe(duration.Seconds())
}

// RecordHistoryPersistError counts a persistence failure that was logged and
// absorbed. op is one of load, save, clear.
func RecordHistoryPersistError(op string) {
	m := getMetrics()
	m.historyPersistErrors.WithLabelValues(op).Inc()
}

func SetHistoryRecords(count int) {
	m := getMetrics()
	m.historyRecords.Set(float64(count))
}

func RecordSessionCleanup(duration time.Duration, success bool) {
	m := getMetrics()
	status := "error"
	if success {
		status = "success"
	}
	m.sessionCleanupTotal.WithLabelValues(status).Inc()
	m.sessionCleanupLatency.Observe(duration.Seconds())
}

// RecordSessionCleanupSkipped counts cleanup requests made before any session
// id existed.
func RecordSessionCleanupSkipped() {
	m := getMetrics()
	m.sessionCleanupTotal.WithLabelValues("skipped").Inc()
}

func RecordLifecycleTrigger(event string) {
	m := getMetrics()
	m.lifecycleTriggers.WithLabelValues(event).Inc()
}
