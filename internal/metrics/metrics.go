package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the pipeline's Prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	decisionsTotal    *prometheus.CounterVec
	suppressionsTotal *prometheus.CounterVec
	riskScore         prometheus.Histogram
	signalFailures    *prometheus.CounterVec
	notificationsSent *prometheus.CounterVec
	analysisRuns      prometheus.Counter
	insightsDetected  prometheus.Gauge
	eventsLogged      prometheus.Counter
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Default returns the process-wide metrics instance
func Default() *Metrics {
	once.Do(func() {
		defaultMetrics = New()
	})
	return defaultMetrics
}

// New creates a metrics instance with its own registry
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		decisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quitcoach_decisions_total",
			Help: "Decision cycles by outcome (nudge, suppressed, error).",
		}, []string{"outcome"}),
		suppressionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quitcoach_suppressions_total",
			Help: "Suppressed decisions by reason.",
		}, []string{"reason"}),
		riskScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quitcoach_risk_score",
			Help:    "Risk scores produced per decision cycle.",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		signalFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quitcoach_signal_failures_total",
			Help: "Signal provider failures recovered via defaults.",
		}, []string{"signal"}),
		notificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quitcoach_notifications_sent_total",
			Help: "Nudge notifications handed to delivery, by priority.",
		}, []string{"priority"}),
		analysisRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quitcoach_analysis_runs_total",
			Help: "Behavioral pattern analysis runs.",
		}),
		insightsDetected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quitcoach_insights_detected",
			Help: "Insights retained by the most recent analysis run.",
		}),
		eventsLogged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quitcoach_events_logged_total",
			Help: "Smoking events logged.",
		}),
	}

	registry.MustRegister(
		m.decisionsTotal,
		m.suppressionsTotal,
		m.riskScore,
		m.signalFailures,
		m.notificationsSent,
		m.analysisRuns,
		m.insightsDetected,
		m.eventsLogged,
		collectors.NewGoCollector(),
	)

	return m
}

// Registry exposes the underlying registry for the /metrics handler
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordDecision(outcome string) {
	m.decisionsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordSuppression(reason string) {
	m.suppressionsTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordRiskScore(score float64) {
	m.riskScore.Observe(score)
}

func (m *Metrics) RecordSignalFailure(signal string) {
	m.signalFailures.WithLabelValues(signal).Inc()
}

func (m *Metrics) RecordNotification(priority string) {
	m.notificationsSent.WithLabelValues(priority).Inc()
}

func (m *Metrics) RecordAnalysisRun(insights int) {
	m.analysisRuns.Inc()
	m.insightsDetected.Set(float64(insights))
}

func (m *Metrics) RecordEventLogged() {
	m.eventsLogged.Inc()
}
