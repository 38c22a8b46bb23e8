package normalize

import "github.com/prometheus/client_golang/prometheus"

var secretsRedacted = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "worklog",
	Subsystem: "normalize",
	Name:      "secrets_redacted_total",
	Help:      "Number of credential-like substrings stripped from activity bodies, labeled by pattern.",
}, []string{"pattern"})

func init() {
	prometheus.MustRegister(secretsRedacted)
}

func recordSecretRedacted(pattern string) {
	secretsRedacted.WithLabelValues(pattern).Inc()
}
