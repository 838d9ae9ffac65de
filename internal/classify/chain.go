package classify

import (
	"context"
	"errors"
	"log/slog"

	"curator/internal/config"
	"curator/internal/logging"
	"curator/internal/services"
)

// Classifier produces relocation suggestions for a batch of files.
type Classifier interface {
	Name() string
	ClassifyBatch(ctx context.Context, root string, files []FileInfo) ([]Suggestion, error)
}

// Chain tries a sequence of providers in order and returns the first
// successful batch. Configuration errors on one provider (a missing key) fall
// through to the next; only when every provider fails does the chain fail.
type Chain struct {
	providers []Classifier
	logger    *slog.Logger
}

// NewChain builds a fallback chain from the configured primary provider and
// its fallbacks.
func NewChain(logger *slog.Logger, entries []config.Classifier, opts ...Option) *Chain {
	chain := &Chain{logger: logging.NewComponentLogger(logger, "classify")}
	for _, entry := range entries {
		chain.providers = append(chain.providers, NewClient(entry, opts...))
	}
	return chain
}

// NewChainFrom wraps pre-built classifiers, mostly for tests.
func NewChainFrom(logger *slog.Logger, providers ...Classifier) *Chain {
	return &Chain{
		providers: providers,
		logger:    logging.NewComponentLogger(logger, "classify"),
	}
}

// Name identifies the chain by its first provider.
func (c *Chain) Name() string {
	if len(c.providers) == 0 {
		return "none"
	}
	return c.providers[0].Name()
}

// HealthCheck passes when any provider in the chain responds.
func (c *Chain) HealthCheck(ctx context.Context) error {
	if len(c.providers) == 0 {
		return services.Wrap(services.ErrConfiguration, "classify", "chain", "no providers configured", nil)
	}

	var errs []error
	for _, provider := range c.providers {
		checker, ok := provider.(interface {
			HealthCheck(ctx context.Context) error
		})
		if !ok {
			return nil
		}
		err := checker.HealthCheck(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		errs = append(errs, err)
	}
	return services.Wrap(services.ErrClassifier, "classify", "chain",
		"no provider is healthy", errors.Join(errs...))
}

// ClassifyBatch walks the provider chain until one returns suggestions.
func (c *Chain) ClassifyBatch(ctx context.Context, root string, files []FileInfo) ([]Suggestion, error) {
	if len(c.providers) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "classify", "chain", "no providers configured", nil)
	}

	var errs []error
	for _, provider := range c.providers {
		suggestions, err := provider.ClassifyBatch(ctx, root, files)
		if err == nil {
			return suggestions, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		c.logger.Warn("provider failed, trying next",
			logging.String("provider", provider.Name()),
			logging.Error(err))
		errs = append(errs, err)
	}
	return nil, services.Wrap(services.ErrClassifier, "classify", "chain",
		"all providers failed", errors.Join(errs...))
}
