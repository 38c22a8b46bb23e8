package prompt

import "github.com/prometheus/client_golang/prometheus"

var injectionRejected = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "worklog",
	Subsystem: "prompt",
	Name:      "injection_rejected_total",
	Help:      "Number of free-text fields dropped because they still resembled a template directive after escaping.",
})

func init() {
	prometheus.MustRegister(injectionRejected)
}

func recordInjectionRejected() {
	injectionRejected.Inc()
}
