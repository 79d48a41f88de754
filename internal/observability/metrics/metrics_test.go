package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestReviewMetricsObserve(t *testing.T) {
	m := NewReviewMetrics(prometheus.NewRegistry())
	m.ObserveDecision("approve", 120)
	m.ObserveAssessment("critical", "llm")
	m.SetQueueDepth("urgent", 3)
	m.ObserveExpired(2)
}

func TestReviewMetricsCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReviewMetrics(reg)
	m.ObserveDecision("reject", 45)
}

func TestReviewMetricsNilSafe(t *testing.T) {
	var m *ReviewMetrics
	m.ObserveDecision("approve", 1)
	m.ObserveAssessment("low", "fallback")
	m.SetQueueDepth("normal", 0)
	m.ObserveExpired(0)
}
