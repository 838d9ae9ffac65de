package strategy

import (
	"context"

	"curator/internal/plan"
)

// Strategy names accepted by the CLI and the rule files.
const (
	NameExtension  = "extension"
	NamePattern    = "pattern"
	NameClassifier = "classifier"
)

// A Strategy inspects a tree and proposes moves. Proposals are raw: the
// planner validates, dedupes, and resolves conflicts afterwards, so a
// strategy only has to say where things ought to go.
type Strategy interface {
	Name() string
	Propose(ctx context.Context, root string) ([]plan.Operation, error)
}

// Names lists every built-in strategy.
func Names() []string {
	return []string{NameExtension, NamePattern, NameClassifier}
}
