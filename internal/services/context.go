package services

import "context"

type contextKey string

const (
	runIDKey    contextKey = "run_id"
	strategyKey contextKey = "strategy"
	batchKey    contextKey = "batch"
)

// WithRunID annotates context with the execution run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStrategy annotates context with the active strategy name.
func WithStrategy(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, strategyKey, name)
}

// StrategyFromContext returns the strategy name if present.
func StrategyFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(strategyKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithBatch annotates context with a 1-based suggestion batch index.
func WithBatch(ctx context.Context, index int) context.Context {
	if index <= 0 {
		return ctx
	}
	return context.WithValue(ctx, batchKey, index)
}

// BatchFromContext returns the batch index if present.
func BatchFromContext(ctx context.Context) (int, bool) {
	if v, ok := ctx.Value(batchKey).(int); ok && v > 0 {
		return v, true
	}
	return 0, false
}
