package metrics

import "github.com/prometheus/client_golang/prometheus"

// RoutingMetrics exposes counters/histograms for the routing pipeline.
type RoutingMetrics struct {
	decisionsTotal        *prometheus.CounterVec
	escalationsTotal      *prometheus.CounterVec
	policyLatency         *prometheus.HistogramVec
	scriptMutationsTotal  prometheus.Counter
	auditFailuresTotal    prometheus.Counter
	classifierDegradedTotal prometheus.Counter
}

func NewRoutingMetrics(reg prometheus.Registerer) *RoutingMetrics {
	m := &RoutingMetrics{
		decisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "havenmind",
			Subsystem: "routing",
			Name:      "decisions_total",
			Help:      "Total routing decisions by tier and reason",
		}, []string{"tier", "reason"}),
		escalationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "havenmind",
			Subsystem: "routing",
			Name:      "escalations_total",
			Help:      "Total mid-conversation tier escalations",
		}, []string{"from", "to"}),
		policyLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "havenmind",
			Subsystem: "policy",
			Name:      "latency_seconds",
			Help:      "Latency of tier policy response generation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"policy"}),
		scriptMutationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "havenmind",
			Subsystem: "safety",
			Name:      "script_mutation_attempts_total",
			Help:      "Attempts by downstream filters to alter the fixed safety script",
		}),
		auditFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "havenmind",
			Subsystem: "audit",
			Name:      "save_failures_total",
			Help:      "Audit record writes that failed and were swallowed",
		}),
		classifierDegradedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "havenmind",
			Subsystem: "perception",
			Name:      "classifier_degraded_total",
			Help:      "Classifier calls that failed and degraded to a zero score",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.decisionsTotal,
		m.escalationsTotal,
		m.policyLatency,
		m.scriptMutationsTotal,
		m.auditFailuresTotal,
		m.classifierDegradedTotal,
	)
	return m
}

func (m *RoutingMetrics) ObserveDecision(tier, reason string) {
	if m == nil {
		return
	}
	m.decisionsTotal.WithLabelValues(tier, reason).Inc()
}

func (m *RoutingMetrics) ObserveEscalation(from, to string) {
	if m == nil {
		return
	}
	m.escalationsTotal.WithLabelValues(from, to).Inc()
}

func (m *RoutingMetrics) ObservePolicyLatency(policy string, seconds float64) {
	if m == nil {
		return
	}
	m.policyLatency.WithLabelValues(policy).Observe(seconds)
}

func (m *RoutingMetrics) ObserveScriptMutationAttempt() {
	if m == nil {
		return
	}
	m.scriptMutationsTotal.Inc()
}

func (m *RoutingMetrics) ObserveAuditFailure() {
	if m == nil {
		return
	}
	m.auditFailuresTotal.Inc()
}

func (m *RoutingMetrics) ObserveClassifierDegraded() {
	if m == nil {
		return
	}
	m.classifierDegradedTotal.Inc()
}
