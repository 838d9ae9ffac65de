package plan

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"curator/internal/logging"
	"curator/internal/paths"
	"curator/internal/services"
)

// FolderConflictPolicy decides what happens when a folder move targets an
// existing directory.
type FolderConflictPolicy string

const (
	// FolderConflictMerge moves the source folder's children into the existing
	// destination directory instead of moving the folder itself.
	FolderConflictMerge FolderConflictPolicy = "merge"
	// FolderConflictRename moves the whole folder to a suffixed sibling of the
	// occupied destination.
	FolderConflictRename FolderConflictPolicy = "rename"
)

const maxRenameAttempts = 10000

// Resolver decides how a candidate operation interacts with the current tree
// state: apply as-is, rename to avoid a collision, merge into an existing
// folder, or reject.
type Resolver struct {
	policy FolderConflictPolicy
	logger *slog.Logger

	// Destinations already claimed by earlier operations in the same plan, so
	// two proposals aimed at the same free slot do not both get it.
	claimed map[string]struct{}
}

// NewResolver constructs a conflict resolver with the given folder policy.
// An empty policy defaults to merge.
func NewResolver(policy FolderConflictPolicy, logger *slog.Logger) *Resolver {
	if policy == "" {
		policy = FolderConflictMerge
	}
	return &Resolver{
		policy:  policy,
		logger:  logging.NewComponentLogger(logger, "conflict"),
		claimed: make(map[string]struct{}),
	}
}

// Resolve maps one proposal to zero or more concrete operations. A merge may
// expand a folder move into per-child moves; a rejection returns an error
// tagged ErrInvalidOperation and no operations.
func (r *Resolver) Resolve(op Operation) ([]Operation, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}

	destExists, destIsDir := r.destinationOccupied(op.Destination)
	if !destExists {
		op.Status = StatusApproved
		r.claim(op.Destination)
		return []Operation{op}, nil
	}

	if op.Kind == KindFolderMove && destIsDir {
		if r.policy == FolderConflictRename {
			return r.renameResolve(op)
		}
		return r.mergeResolve(op)
	}

	// Destination occupied by a file, or a file move aimed at an existing
	// path. Never overwrite; allocate a suffixed sibling.
	return r.renameResolve(op)
}

func (r *Resolver) mergeResolve(op Operation) ([]Operation, error) {
	entries, err := os.ReadDir(op.Source)
	if err != nil {
		return nil, services.Wrap(services.ErrInvalidOperation, "conflict", "merge folders", fmt.Sprintf("read source folder %s", op.Source), err)
	}

	resolved := make([]Operation, 0, len(entries))
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		child := Operation{
			Source:      filepath.Join(op.Source, entry.Name()),
			Destination: filepath.Join(op.Destination, entry.Name()),
			Confidence:  op.Confidence,
			Reasoning:   op.Reasoning,
			Status:      StatusProposed,
		}
		if entry.IsDir() {
			child.Kind = KindFolderMove
		} else {
			child.Kind = KindFileMove
		}
		childOps, err := r.Resolve(child)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, childOps...)
	}

	r.logger.Debug("folder conflict resolved as merge",
		logging.String("source", op.Source),
		logging.String("destination", op.Destination),
		logging.Int("child_moves", len(resolved)))
	return resolved, nil
}

func (r *Resolver) renameResolve(op Operation) ([]Operation, error) {
	unique, err := r.uniqueDestination(op.Destination)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("destination occupied, renaming to avoid collision",
		logging.String("requested", op.Destination),
		logging.String("allocated", unique))
	op.Destination = unique
	op.Status = StatusApproved
	r.claim(unique)
	return []Operation{op}, nil
}

// uniqueDestination appends a counter suffix before the extension until it
// finds a path that neither exists nor was claimed earlier in this plan.
func (r *Resolver) uniqueDestination(destination string) (string, error) {
	dir := filepath.Dir(destination)
	ext := filepath.Ext(destination)
	stem := strings.TrimSuffix(filepath.Base(destination), ext)

	for counter := 1; counter <= maxRenameAttempts; counter++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, counter, ext))
		if occupied, _ := r.destinationOccupied(candidate); !occupied {
			return candidate, nil
		}
	}
	return "", services.Wrap(services.ErrInvalidOperation, "conflict", "rename", fmt.Sprintf("exhausted rename slots for %s", destination), nil)
}

func (r *Resolver) destinationOccupied(destination string) (bool, bool) {
	if _, ok := r.claimed[filepath.Clean(destination)]; ok {
		return true, false
	}
	return paths.Exists(destination)
}

func (r *Resolver) claim(destination string) {
	r.claimed[filepath.Clean(destination)] = struct{}{}
}
