// Package metrics provides Prometheus metrics recording for internal packages.
// This package exists to avoid import cycles between service and middleware
// packages.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// stageInvocations tracks pipeline stage outcomes
	stageInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datamorph_stage_invocations_total",
			Help: "Total number of pipeline stage invocations",
		},
		[]string{"stage", "outcome"},
	)

	// modelCallDuration tracks model call latency in seconds
	modelCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datamorph_model_call_duration_seconds",
			Help:    "Chat completion call latency in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)

	// tokensUsed tracks prompt and completion token consumption
	tokensUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datamorph_tokens_used_total",
			Help: "Total number of tokens consumed",
		},
		[]string{"model", "kind"},
	)
)

// RecordStage records the outcome of one pipeline stage invocation.
func RecordStage(stage, outcome string) {
	stageInvocations.WithLabelValues(stage, outcome).Inc()
}

// RecordModelCall records the latency of one chat completion call.
func RecordModelCall(stage string, duration time.Duration) {
	modelCallDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordTokenUsage records the token counters of one completed model call.
func RecordTokenUsage(model string, promptTokens, completionTokens int) {
	tokensUsed.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	tokensUsed.WithLabelValues(model, "completion").Add(float64(completionTokens))
}
