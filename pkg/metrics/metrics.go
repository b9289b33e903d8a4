// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// TurnsTotal tracks processed funnel turns by outcome.
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "funnel_turns_total",
			Help: "Total funnel turns processed",
		},
		[]string{"outcome"},
	)

	// TurnDuration tracks end-to-end turn processing duration.
	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "funnel_turn_duration_seconds",
			Help:    "End-to-end turn processing duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"step"},
	)

	// ConversationsTotal tracks conversations created.
	ConversationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conversations_total",
			Help: "Total conversations created",
		},
	)

	// ConversationsFinished tracks conversations reaching a terminal status.
	ConversationsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversations_finished_total",
			Help: "Conversations that reached a terminal status",
		},
		[]string{"status"},
	)

	// QualificationScore observes similarity scores returned by the oracle.
	QualificationScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "qualification_score",
			Help:    "Similarity score of weight-loss reasons against the reference corpus",
			Buckets: []float64{.1, .2, .3, .4, .5, .6, .7, .75, .8, .85, .9, .95, 1},
		},
	)

	// QualificationsTotal tracks oracle verdicts.
	QualificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qualifications_total",
			Help: "Qualification verdicts produced by the oracle",
		},
		[]string{"verdict"},
	)

	// ProviderErrors tracks degraded external provider calls.
	ProviderErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_errors_total",
			Help: "External provider calls that failed and degraded to a fallback",
		},
		[]string{"provider", "operation"},
	)

	// MessagesTotal tracks messages persisted by role.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total messages persisted",
		},
		[]string{"role"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordTurn records metrics for a completed funnel turn.
func RecordTurn(step string, duration float64) {
	TurnsTotal.WithLabelValues("completed").Inc()
	TurnDuration.WithLabelValues(step).Observe(duration)
}

// RecordQualification records an oracle verdict and its score.
func RecordQualification(qualified bool, score float64) {
	QualificationScore.Observe(score)
	if qualified {
		QualificationsTotal.WithLabelValues("qualified").Inc()
	} else {
		QualificationsTotal.WithLabelValues("rejected").Inc()
	}
}

// RecordProviderError records a degraded external provider call.
func RecordProviderError(provider, operation string) {
	ProviderErrors.WithLabelValues(provider, operation).Inc()
}
