package plan

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"curator/internal/logging"
	"curator/internal/paths"
	"curator/internal/services"
)

// Result holds the ordered, conflict-resolved plan plus the proposals that
// were rejected along the way (retained for reporting, never applied).
type Result struct {
	Ops      []Operation
	Rejected []Operation
}

// Planner turns raw strategy proposals into an executable plan.
type Planner struct {
	resolver *Resolver
	logger   *slog.Logger
}

// NewPlanner constructs a planner around the provided conflict resolver.
func NewPlanner(resolver *Resolver, logger *slog.Logger) *Planner {
	if resolver == nil {
		resolver = NewResolver(FolderConflictMerge, logger)
	}
	return &Planner{
		resolver: resolver,
		logger:   logging.NewComponentLogger(logger, "planner"),
	}
}

// Plan validates, deduplicates, conflict-resolves, and orders proposals.
//
// Source existence is checked eagerly for every proposal before anything else
// happens: a missing source means the plan was built from stale tree state,
// and it is safer to refuse to start than to run an unreliable plan. That
// failure aborts with ErrPlanValidation; everything after it only drops
// individual proposals.
func (p *Planner) Plan(proposals []Operation) (*Result, error) {
	result := &Result{}

	normalized := make([]Operation, 0, len(proposals))
	for _, proposal := range proposals {
		if proposal.Status == StatusRejected {
			result.Rejected = append(result.Rejected, proposal)
			continue
		}
		source, err := paths.Normalize(proposal.Source)
		if err != nil {
			return nil, services.Wrap(services.ErrPlanValidation, "planner", "normalize source", proposal.Source, err)
		}
		destination, err := paths.Normalize(proposal.Destination)
		if err != nil {
			return nil, services.Wrap(services.ErrPlanValidation, "planner", "normalize destination", proposal.Destination, err)
		}
		proposal.Source = source
		proposal.Destination = destination
		normalized = append(normalized, proposal)
	}

	for _, proposal := range normalized {
		if _, err := os.Stat(proposal.Source); err != nil {
			return nil, services.Wrap(services.ErrPlanValidation, "planner", "validate sources",
				fmt.Sprintf("source %s does not exist in the current tree", proposal.Source), err)
		}
	}

	deduped := p.dedupe(normalized, result)

	for _, proposal := range deduped {
		resolved, err := p.resolver.Resolve(proposal)
		if err != nil {
			if errors.Is(err, services.ErrInvalidOperation) {
				p.logger.Debug("proposal rejected",
					logging.String("source", proposal.Source),
					logging.String("destination", proposal.Destination),
					logging.Error(err))
				result.Rejected = append(result.Rejected, proposal.Rejected(err.Error()))
				continue
			}
			return nil, err
		}
		result.Ops = append(result.Ops, resolved...)
	}

	order(result.Ops)

	p.logger.Debug("plan built",
		logging.Int("proposals", len(proposals)),
		logging.Int("planned", len(result.Ops)),
		logging.Int("rejected", len(result.Rejected)))
	return result, nil
}

// dedupe drops proposals that share a source, keeping the highest-confidence
// one; ties keep the first seen.
func (p *Planner) dedupe(proposals []Operation, result *Result) []Operation {
	keptIndex := make(map[string]int, len(proposals))
	kept := make([]Operation, 0, len(proposals))

	for _, proposal := range proposals {
		key := proposal.Source
		if !paths.CaseSensitive() {
			key = paths.Fold(key)
		}
		existing, seen := keptIndex[key]
		if !seen {
			keptIndex[key] = len(kept)
			kept = append(kept, proposal)
			continue
		}
		if proposal.Confidence > kept[existing].Confidence {
			result.Rejected = append(result.Rejected, kept[existing].Rejected("duplicate source, lower confidence"))
			kept[existing] = proposal
		} else {
			result.Rejected = append(result.Rejected, proposal.Rejected("duplicate source, lower confidence"))
		}
	}
	return kept
}

// order puts folder moves (shallowest destination first) ahead of file moves
// so a folder exists before the files destined for its interior are moved.
// Sorting is stable so same-depth operations keep their proposal order.
func order(ops []Operation) {
	sort.SliceStable(ops, func(i, j int) bool {
		if ops[i].Kind != ops[j].Kind {
			return ops[i].Kind == KindFolderMove
		}
		if ops[i].Kind == KindFolderMove {
			return paths.Depth(ops[i].Destination) < paths.Depth(ops[j].Destination)
		}
		return false
	})
}
