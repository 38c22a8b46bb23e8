package pipeline

import "github.com/prometheus/client_golang/prometheus"

var (
	cyclesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "worklog",
		Subsystem: "pipeline",
		Name:      "cycles_total",
		Help:      "Number of fetch cycles completed, labeled by outcome.",
	}, []string{"outcome"})

	toolFailureCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "worklog",
		Subsystem: "pipeline",
		Name:      "tool_failures_total",
		Help:      "Number of per-tool fetch failures, labeled by tool and reason.",
	}, []string{"tool", "reason"})

	activitiesHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "worklog",
		Subsystem: "pipeline",
		Name:      "ranked_activities",
		Help:      "Ranked activity count per cycle.",
		Buckets:   prometheus.LinearBuckets(0, 5, 9),
	})

	correlationsHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "worklog",
		Subsystem: "pipeline",
		Name:      "correlations",
		Help:      "Correlation count per cycle.",
		Buckets:   prometheus.LinearBuckets(0, 2, 8),
	})
)

func init() {
	prometheus.MustRegister(cyclesCounter, toolFailureCounter, activitiesHistogram, correlationsHistogram)
}

func recordCycle(outcome string) {
	cyclesCounter.WithLabelValues(outcome).Inc()
}

func recordToolFailure(tool, reason string) {
	toolFailureCounter.WithLabelValues(tool, reason).Inc()
}

func recordActivities(n int) {
	activitiesHistogram.Observe(float64(n))
}

func recordCorrelations(n int) {
	correlationsHistogram.Observe(float64(n))
}
