// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package metrics declares the Prometheus collectors for the recommender.
// Collectors register with the default registry at package init and are
// served by the admin server at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation Metrics
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfarer_recommend_requests_total",
			Help: "Total number of recommendation requests by outcome",
		},
		[]string{"outcome"}, // ok, cache_hit, invalid, unavailable, error
	)

	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wayfarer_recommend_duration_seconds",
			Help:    "Duration of recommendation requests in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"mode"}, // personalized, anonymous, popular
	)

	RecommendSignals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfarer_recommend_signals_total",
			Help: "Signals that contributed to a ranking, by availability",
		},
		[]string{"signal", "available"},
	)

	RecommendFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfarer_recommend_fallbacks_total",
			Help: "Rankings that fell back to a degraded path",
		},
		[]string{"reason"}, // all_zero, no_input, no_content
	)

	// Artifact Metrics
	ArtifactBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wayfarer_artifact_build_duration_seconds",
			Help:    "Duration of offline artifact builds in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"artifact"},
	)

	ArtifactBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfarer_artifact_builds_total",
			Help: "Total number of artifact builds by result",
		},
		[]string{"artifact", "result"}, // result: success, failure
	)

	ArtifactGeneration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wayfarer_artifact_generation",
			Help: "Generation number of the currently published artifact snapshot",
		},
	)

	ArtifactPublishedAt = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wayfarer_artifact_published_timestamp_seconds",
			Help: "Unix time the current artifact snapshot was published",
		},
	)

	// Rating Metrics
	RatingEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfarer_rating_events_total",
			Help: "Interaction events applied by the rating engine",
		},
		[]string{"kind", "status"}, // status: created, updated, invalid, not_found, error
	)

	// Query Adapter Metrics
	QueryExtractions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfarer_query_extractions_total",
			Help: "Structured query extractions by outcome",
		},
		[]string{"outcome"}, // ok, fallback, disabled
	)

	QueryExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wayfarer_query_extraction_duration_seconds",
			Help:    "Duration of external query extraction calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wayfarer_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfarer_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfarer_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfarer_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	// Admin HTTP Metrics
	AdminRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wayfarer_admin_request_duration_seconds",
			Help:    "Duration of admin HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// RecordRecommend records the outcome and latency of a recommendation.
func RecordRecommend(mode, outcome string, duration time.Duration) {
	RecommendRequests.WithLabelValues(outcome).Inc()
	if mode != "" {
		RecommendDuration.WithLabelValues(mode).Observe(duration.Seconds())
	}
}

// RecordSignal records whether a signal was available for a ranking.
func RecordSignal(signal string, available bool) {
	label := "false"
	if available {
		label = "true"
	}
	RecommendSignals.WithLabelValues(signal, label).Inc()
}

// RecordArtifactBuild records one artifact build.
func RecordArtifactBuild(artifact string, duration time.Duration, err error) {
	ArtifactBuildDuration.WithLabelValues(artifact).Observe(duration.Seconds())
	result := "success"
	if err != nil {
		result = "failure"
	}
	ArtifactBuilds.WithLabelValues(artifact, result).Inc()
}

// SetArtifactGeneration records a newly published snapshot.
func SetArtifactGeneration(generation int64, publishedAt time.Time) {
	ArtifactGeneration.Set(float64(generation))
	ArtifactPublishedAt.Set(float64(publishedAt.Unix()))
}

// RecordRatingEvent records one rating engine event.
func RecordRatingEvent(kind, status string) {
	RatingEvents.WithLabelValues(kind, status).Inc()
}

// RecordQueryExtraction records an extractor outcome; duration is ignored
// when zero.
func RecordQueryExtraction(outcome string, duration time.Duration) {
	QueryExtractions.WithLabelValues(outcome).Inc()
	if duration > 0 {
		QueryExtractionDuration.Observe(duration.Seconds())
	}
}

// RecordCacheLookup records a hit or miss for the named cache.
func RecordCacheLookup(cache string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cache).Inc()
		return
	}
	CacheMisses.WithLabelValues(cache).Inc()
}

// RecordCircuitBreakerTransition records a breaker state change. States use
// the gobreaker string names.
func RecordCircuitBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(circuitStateValue(to))
}

func circuitStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

// RecordAdminRequest records an admin HTTP request.
func RecordAdminRequest(method, route, status string, duration time.Duration) {
	AdminRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}
