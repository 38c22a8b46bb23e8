package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	entrySavedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "worklog",
		Subsystem: "persistence",
		Name:      "last_entry_saved_timestamp_seconds",
		Help:      "Unix timestamp of the most recent journal entry persisted to Postgres.",
	})
	entryPublishedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "worklog",
		Subsystem: "events",
		Name:      "last_entry_published_timestamp_seconds",
		Help:      "Unix timestamp of the most recent entry event published to Kafka.",
	})
)

func init() {
	prometheus.MustRegister(entrySavedGauge, entryPublishedGauge)
}

// RecordEntrySaved updates the persistence watermark gauge.
func RecordEntrySaved(ts time.Time) {
	if ts.IsZero() {
		return
	}
	entrySavedGauge.Set(float64(ts.Unix()))
}

// RecordEntryPublished updates the publish watermark gauge.
func RecordEntryPublished(ts time.Time) {
	if ts.IsZero() {
		return
	}
	entryPublishedGauge.Set(float64(ts.Unix()))
}
