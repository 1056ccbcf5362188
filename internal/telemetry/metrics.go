package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline outcomes.
const (
	OutcomePersonalized = "personalized"
	OutcomeFallback     = "fallback"
	OutcomeEmpty        = "empty"
)

var (
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopsense_recommendations_total",
			Help: "Recommendation pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	GenAIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopsense_genai_requests_total",
			Help: "Generative service calls by result (ok, transport, schema, rejected)",
		},
		[]string{"result"},
	)

	GenAIRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shopsense_genai_request_duration_seconds",
			Help:    "Generative service call duration in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
	)

	GenAIProductsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shopsense_genai_products_returned",
			Help:    "Products returned per successful generative call",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 8},
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shopsense_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shopsense_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)
