package recommend

import (
	"context"
	"log/slog"

	"shopsense/internal/models"
	"shopsense/internal/telemetry"
)

// SignalSource supplies the activity bundle for a personalised request.
type SignalSource interface {
	Generate() models.ActivityBundle
}

// Recommender turns a bundle into products. It must always return a slice.
type Recommender interface {
	Recommend(ctx context.Context, bundle models.ActivityBundle) []models.Product
}

// Recommendations is what the dashboard renders. Bundle is nil unless the
// list was personalised.
type Recommendations struct {
	Products []models.Product
	Bundle   *models.ActivityBundle
}

// Pipeline sequences signal generation, the generative call and hydration,
// or hands out the fallback list when permission was not granted.
type Pipeline struct {
	signals SignalSource
	client  Recommender
}

// NewPipeline wires the pipeline. A nil client means personalization is
// unavailable and every call gets the fallback list.
func NewPipeline(signals SignalSource, client Recommender) *Pipeline {
	return &Pipeline{
		signals: signals,
		client:  client,
	}
}

func (p *Pipeline) Personalized() bool {
	return p.client != nil && p.signals != nil
}

// Recommend runs the pipeline once. Nothing is cached between calls.
func (p *Pipeline) Recommend(ctx context.Context, hasPermission bool) Recommendations {
	if !hasPermission || !p.Personalized() {
		telemetry.RecommendationsTotal.WithLabelValues(telemetry.OutcomeFallback).Inc()
		return Recommendations{Products: Fallback()}
	}

	bundle := p.signals.Generate()
	products := Hydrate(p.client.Recommend(ctx, bundle))

	if len(products) == 0 {
		telemetry.RecommendationsTotal.WithLabelValues(telemetry.OutcomeEmpty).Inc()
		slog.Warn("Personalized recommendations empty", "interests", bundle.ContactInterests)
	} else {
		telemetry.RecommendationsTotal.WithLabelValues(telemetry.OutcomePersonalized).Inc()
	}

	return Recommendations{Products: products, Bundle: &bundle}
}
