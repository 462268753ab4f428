// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "travelai"

var (
	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "turns_total",
		Help:      "Completed turns by outcome (ok, degraded, reasoning_error, aborted, corrupt).",
	}, []string{"outcome"})

	turnIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "turn_iterations",
		Help:      "Reasoning calls per turn.",
		Buckets:   []float64{1, 2, 3, 4, 5, 6, 7, 8, 12, 16},
	})

	toolCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tool_calls_total",
		Help:      "Tool calls by tool and outcome (ok, provider_error, invalid).",
	}, []string{"tool", "outcome"})

	providerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "provider_request_duration_seconds",
		Help:      "Upstream provider request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider", "outcome"})

	reasoningLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "reasoning_request_duration_seconds",
		Help:      "Language model call latency.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	}, []string{"outcome"})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Sessions currently held by the conversation store.",
	})

	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_emitted_total",
		Help:      "Outbound events by type.",
	}, []string{"type"})

	droppedInbound = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "inbound_dropped_total",
		Help:      "Inbound transport messages dropped without a response.",
	}, []string{"reason"})
)

// RecordTurn counts a finished turn and its reasoning iterations.
func RecordTurn(outcome string, iterations int) {
	turnsTotal.WithLabelValues(outcome).Inc()
	if iterations > 0 {
		turnIterations.Observe(float64(iterations))
	}
}

func RecordToolCall(tool, outcome string) {
	toolCallsTotal.WithLabelValues(tool, outcome).Inc()
}

func ObserveProvider(provider, outcome string, d time.Duration) {
	providerLatency.WithLabelValues(provider, outcome).Observe(d.Seconds())
}

func ObserveReasoning(outcome string, d time.Duration) {
	reasoningLatency.WithLabelValues(outcome).Observe(d.Seconds())
}

func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

func RecordEvent(eventType string) {
	eventsTotal.WithLabelValues(eventType).Inc()
}

func RecordDroppedInbound(reason string) {
	droppedInbound.WithLabelValues(reason).Inc()
}
