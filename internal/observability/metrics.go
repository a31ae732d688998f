// Package observability holds Prometheus collectors and OpenTelemetry setup.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sns_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// AuthEvents counts register, login and logout attempts by outcome.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sns_auth_events_total",
		Help: "Total authentication events by type and outcome",
	}, []string{"event", "outcome"})

	// Interactions counts successful post, like and comment mutations.
	Interactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sns_interactions_total",
		Help: "Total content interactions by action",
	}, []string{"action"})

	// SessionStoreFallbacks counts session operations served by the SQL store because Redis was unavailable.
	SessionStoreFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sns_session_store_fallbacks_total",
		Help: "Total session operations served by the SQL fallback store",
	})
)

// RecordAuth increments the auth counter for event with a success or failure outcome.
func RecordAuth(event string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	AuthEvents.WithLabelValues(event, outcome).Inc()
}
