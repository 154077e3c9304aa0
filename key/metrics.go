package key

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	sharedMetricsInstance *Metrics
	sharedMetricsOnce     sync.Once
)

// GetSharedMetrics returns the singleton key metrics instance. Processes
// managing several keys should pass this shared instance to each of them
// so a single registry serves all of their series.
func GetSharedMetrics() *Metrics {
	sharedMetricsOnce.Do(func() {
		sharedMetricsInstance = NewMetrics("relevai")
	})
	return sharedMetricsInstance
}

// Metrics holds Prometheus metrics for credential lifecycle operations.
// Series are labeled by key name and grant type so one instance can serve
// any number of keys.
type Metrics struct {
	renewalsTotal        *prometheus.CounterVec
	renewalDuration      *prometheus.HistogramVec
	hookInvocationsTotal *prometheus.CounterVec
	refresherRestarts    *prometheus.CounterVec
	refresherRunning     *prometheus.GaugeVec
	tokenExpiryGauge     *prometheus.GaugeVec
	registry             *prometheus.Registry
}

// NewMetrics creates a new Metrics instance with its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "relevai"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.renewalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "key",
			Name:      "renewals_total",
			Help:      "Total number of token renewal attempts",
		},
		[]string{"name", "grant", "trigger", "status"},
	)

	m.renewalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "key",
			Name:      "renewal_duration_seconds",
			Help:      "Token renewal duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"name", "grant", "trigger"},
	)

	m.hookInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "key",
			Name:      "hook_invocations_total",
			Help:      "Total number of renewal hook invocations",
		},
		[]string{"name", "grant", "status"},
	)

	m.refresherRestarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "key",
			Name:      "refresher_restarts_total",
			Help:      "Total number of background refresher starts",
		},
		[]string{"name", "grant"},
	)

	m.refresherRunning = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "key",
			Name:      "refresher_running",
			Help:      "Whether the background refresher is running (1) or not (0)",
		},
		[]string{"name", "grant"},
	)

	m.tokenExpiryGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "key",
			Name:      "token_expiry_seconds",
			Help:      "Token expiry timestamp in seconds since epoch",
		},
		[]string{"name", "grant"},
	)

	m.registry.MustRegister(
		m.renewalsTotal,
		m.renewalDuration,
		m.hookInvocationsTotal,
		m.refresherRestarts,
		m.refresherRunning,
		m.tokenExpiryGauge,
	)

	return m
}

// Init pre-populates common label combinations with zero values so that
// Vec metrics appear in scrape output immediately after startup. Idempotent.
func (m *Metrics) Init(name, grant string) {
	for _, trigger := range []string{TriggerInitial, TriggerAccess, TriggerBackground, TriggerManual} {
		for _, status := range []string{"success", "error"} {
			m.renewalsTotal.WithLabelValues(name, grant, trigger, status)
		}
	}
	m.refresherRestarts.WithLabelValues(name, grant)
	m.refresherRunning.WithLabelValues(name, grant)
}

// RecordRenewal records a renewal attempt.
func (m *Metrics) RecordRenewal(name, grant, trigger, status string, duration time.Duration) {
	m.renewalsTotal.WithLabelValues(name, grant, trigger, status).Inc()
	m.renewalDuration.WithLabelValues(name, grant, trigger).Observe(duration.Seconds())
}

// RecordHookInvocation records one renewal hook invocation.
func (m *Metrics) RecordHookInvocation(name, grant, status string) {
	m.hookInvocationsTotal.WithLabelValues(name, grant, status).Inc()
}

// RecordRefresherRestart records a background refresher start.
func (m *Metrics) RecordRefresherRestart(name, grant string) {
	m.refresherRestarts.WithLabelValues(name, grant).Inc()
}

// SetRefresherRunning records background refresher liveness.
func (m *Metrics) SetRefresherRunning(name, grant string, running bool) {
	value := 0.0
	if running {
		value = 1.0
	}
	m.refresherRunning.WithLabelValues(name, grant).Set(value)
}

// SetTokenExpiry sets the token expiry timestamp.
func (m *Metrics) SetTokenExpiry(name, grant string, expiry time.Time) {
	m.tokenExpiryGauge.WithLabelValues(name, grant).Set(float64(expiry.Unix()))
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// MustRegister registers the metrics with the given registry.
func (m *Metrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(
		m.renewalsTotal,
		m.renewalDuration,
		m.hookInvocationsTotal,
		m.refresherRestarts,
		m.refresherRunning,
		m.tokenExpiryGauge,
	)
}

// NopMetrics returns a metrics instance backed by a registry nothing
// scrapes, for keys that do not report metrics.
func NopMetrics() *Metrics {
	return NewMetrics("nop")
}
