// Package metrics defines the Prometheus instruments of the release sweep
// and the HTTP endpoint that exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the sweep instruments.
type Metrics struct {
	// SweepDuration observes how long one full sweep took.
	SweepDuration prometheus.Histogram
	// OwnersProcessed counts owner units that completed without error.
	OwnersProcessed prometheus.Counter
	// OwnerFailures counts owner units that ended with a persistence error.
	OwnerFailures prometheus.Counter
	// NotificationsSent counts delivered trustee messages by kind.
	NotificationsSent *prometheus.CounterVec
	// NotificationFailures counts messages the notifier could not deliver.
	NotificationFailures prometheus.Counter
	// GrantsReleased counts grants switched on, by trigger.
	GrantsReleased *prometheus.CounterVec
}

// New registers the instruments with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "legacylink_sweep_duration_seconds",
			Help:    "Duration of a full release sweep in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		OwnersProcessed: f.NewCounter(prometheus.CounterOpts{
			Name: "legacylink_sweep_owners_processed_total",
			Help: "Owner units completed by release sweeps",
		}),
		OwnerFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "legacylink_sweep_owner_failures_total",
			Help: "Owner units that failed with a persistence error",
		}),
		NotificationsSent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "legacylink_notifications_sent_total",
			Help: "Trustee notifications delivered",
		}, []string{"kind"}),
		NotificationFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "legacylink_notification_failures_total",
			Help: "Trustee notifications that could not be delivered",
		}),
		GrantsReleased: f.NewCounterVec(prometheus.CounterOpts{
			Name: "legacylink_grants_released_total",
			Help: "Access grants switched on",
		}, []string{"trigger"}),
	}
}
