package session

import "github.com/prometheus/client_golang/prometheus"

var (
	liveSessionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "worklog",
		Subsystem: "session",
		Name:      "live_sessions",
		Help:      "Number of sessions currently held in memory.",
	})

	createdCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "worklog",
		Subsystem: "session",
		Name:      "created_total",
		Help:      "Number of sessions created.",
	})

	expiredCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "worklog",
		Subsystem: "session",
		Name:      "expired_total",
		Help:      "Number of sessions purged by the TTL sweep.",
	})

	evictedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "worklog",
		Subsystem: "session",
		Name:      "evicted_total",
		Help:      "Number of sessions evicted because the store was full.",
	})
)

func init() {
	prometheus.MustRegister(liveSessionsGauge, createdCounter, expiredCounter, evictedCounter)
}

func recordCreated(live int) {
	createdCounter.Inc()
	liveSessionsGauge.Set(float64(live))
}

func recordDeleted(live int) {
	liveSessionsGauge.Set(float64(live))
}

func recordExpired(purged, live int) {
	expiredCounter.Add(float64(purged))
	liveSessionsGauge.Set(float64(live))
}

func recordEvicted(live int) {
	evictedCounter.Inc()
	liveSessionsGauge.Set(float64(live))
}
