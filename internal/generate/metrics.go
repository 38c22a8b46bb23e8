package generate

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	promptTokensCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "worklog",
		Subsystem: "generate",
		Name:      "prompt_tokens_total",
		Help:      "Cumulative prompt tokens sent to the LLM provider.",
	})

	completionTokensCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "worklog",
		Subsystem: "generate",
		Name:      "completion_tokens_total",
		Help:      "Cumulative completion tokens returned by the LLM provider.",
	})

	budgetExceededCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "worklog",
		Subsystem: "generate",
		Name:      "token_budget_exceeded_total",
		Help:      "Number of generations whose prompt exceeded the configured input-token budget.",
	})

	latencyHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "worklog",
		Subsystem: "generate",
		Name:      "provider_latency_seconds",
		Help:      "Latency of individual LLM provider calls.",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
	})
)

func init() {
	prometheus.MustRegister(promptTokensCounter, completionTokensCounter, budgetExceededCounter, latencyHistogram)
}

func recordTokens(usage Usage) {
	promptTokensCounter.Add(float64(usage.PromptTokens))
	completionTokensCounter.Add(float64(usage.CompletionTokens))
}

func recordBudgetExceeded() {
	budgetExceededCounter.Inc()
}

func observeLatency(d time.Duration) {
	latencyHistogram.Observe(d.Seconds())
}
