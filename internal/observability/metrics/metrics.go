package metrics

import "github.com/prometheus/client_golang/prometheus"

// ReviewMetrics exposes counters/histograms for the review workflow.
type ReviewMetrics struct {
	decisionsTotal   *prometheus.CounterVec
	assessmentsTotal *prometheus.CounterVec
	decisionLatency  *prometheus.HistogramVec
	queueDepth       *prometheus.GaugeVec
	expiredTotal     prometheus.Counter
}

func NewReviewMetrics(reg prometheus.Registerer) *ReviewMetrics {
	m := &ReviewMetrics{
		decisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "haven",
			Subsystem: "review",
			Name:      "decisions_total",
			Help:      "Total counselor decisions by action type",
		}, []string{"action"}),
		assessmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "haven",
			Subsystem: "risk",
			Name:      "assessments_total",
			Help:      "Total risk assessments by level and assessment path",
		}, []string{"level", "path"}),
		decisionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "haven",
			Subsystem: "review",
			Name:      "time_to_decision_seconds",
			Help:      "Time from queueing a pending response to its decision",
			Buckets:   []float64{30, 60, 300, 900, 1800, 3600, 7200, 14400, 43200, 86400},
		}, []string{"action"}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "haven",
			Subsystem: "review",
			Name:      "queue_depth",
			Help:      "Pending responses currently awaiting disposition",
		}, []string{"priority"}),
		expiredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "haven",
			Subsystem: "review",
			Name:      "auto_approved_expired_total",
			Help:      "Pending responses auto-approved by the expiry sweep",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.decisionsTotal, m.assessmentsTotal, m.decisionLatency, m.queueDepth, m.expiredTotal)
	return m
}

func (m *ReviewMetrics) ObserveDecision(action string, timeToDecisionSeconds float64) {
	if m == nil {
		return
	}
	m.decisionsTotal.WithLabelValues(action).Inc()
	m.decisionLatency.WithLabelValues(action).Observe(timeToDecisionSeconds)
}

func (m *ReviewMetrics) ObserveAssessment(level, path string) {
	if m == nil {
		return
	}
	m.assessmentsTotal.WithLabelValues(level, path).Inc()
}

func (m *ReviewMetrics) SetQueueDepth(priority string, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(priority).Set(float64(depth))
}

func (m *ReviewMetrics) ObserveExpired(count int) {
	if m == nil {
		return
	}
	m.expiredTotal.Add(float64(count))
}
