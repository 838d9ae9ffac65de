package strategy

import (
	"context"

	"curator/internal/plan"
	"curator/internal/suggest"
)

// ClassifierStrategy delegates proposal generation to the suggestion
// pipeline. Its proposals carry real confidences, so the confidence filter
// does the actual gating downstream.
type ClassifierStrategy struct {
	pipeline *suggest.Pipeline
}

// NewClassifierStrategy wraps a suggestion pipeline as a strategy.
func NewClassifierStrategy(pipeline *suggest.Pipeline) *ClassifierStrategy {
	return &ClassifierStrategy{pipeline: pipeline}
}

// Name implements Strategy.
func (c *ClassifierStrategy) Name() string { return NameClassifier }

// Propose implements Strategy.
func (c *ClassifierStrategy) Propose(ctx context.Context, root string) ([]plan.Operation, error) {
	return c.pipeline.Suggest(ctx, root)
}
