package events

import "github.com/prometheus/client_golang/prometheus"

var (
	publishedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "worklog",
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Number of events successfully published to Kafka, labeled by topic.",
	}, []string{"topic"})

	publishFailedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "worklog",
		Subsystem: "events",
		Name:      "publish_failures_total",
		Help:      "Number of events that failed to publish, labeled by topic.",
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(publishedCounter, publishFailedCounter)
}

func recordPublished(topic string) {
	publishedCounter.WithLabelValues(topic).Inc()
}

func recordPublishFailure(topic string) {
	publishFailedCounter.WithLabelValues(topic).Inc()
}
