package plan

import (
	"strings"

	"curator/internal/paths"
	"curator/internal/services"
)

// Kind identifies the type of filesystem mutation an operation performs.
type Kind string

const (
	KindFileMove   Kind = "file_move"
	KindFolderMove Kind = "folder_move"
)

// Status tracks an operation through its lifecycle. Operations are never
// reused after reaching Applied, Reverted, or Failed; a new run creates new
// operations.
type Status string

const (
	StatusProposed Status = "proposed"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusApplied  Status = "applied"
	StatusReverted Status = "reverted"
	StatusFailed   Status = "failed"
)

// Operation is a single proposed or applied filesystem mutation.
type Operation struct {
	Kind        Kind    `json:"kind"`
	Source      string  `json:"source"`
	Destination string  `json:"destination"`
	Confidence  float64 `json:"confidence"`
	Reasoning   string  `json:"reasoning,omitempty"`
	Status      Status  `json:"status,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// NewFileMove builds a file move proposal with full confidence, as produced by
// the non-AI strategies.
func NewFileMove(source, destination string) Operation {
	return Operation{
		Kind:        KindFileMove,
		Source:      source,
		Destination: destination,
		Confidence:  1.0,
		Status:      StatusProposed,
	}
}

// NewFolderMove builds a folder move proposal with full confidence.
func NewFolderMove(source, destination string) Operation {
	return Operation{
		Kind:        KindFolderMove,
		Source:      source,
		Destination: destination,
		Confidence:  1.0,
		Status:      StatusProposed,
	}
}

// Validate checks the structural invariants every operation must satisfy
// before it can be planned: non-empty endpoints, source != destination, and a
// destination that is not buried inside its own source.
func (op Operation) Validate() error {
	if strings.TrimSpace(op.Source) == "" {
		return services.Wrap(services.ErrInvalidOperation, "plan", "validate", "operation has no source", nil)
	}
	if strings.TrimSpace(op.Destination) == "" {
		return services.Wrap(services.ErrInvalidOperation, "plan", "validate", "operation has no destination", nil)
	}
	switch op.Kind {
	case KindFileMove, KindFolderMove:
	default:
		return services.Wrap(services.ErrInvalidOperation, "plan", "validate", "unknown operation kind "+string(op.Kind), nil)
	}
	if paths.Equal(op.Source, op.Destination) {
		return services.Wrap(services.ErrInvalidOperation, "plan", "validate", "source and destination are the same path", nil)
	}
	if paths.IsDescendant(op.Source, op.Destination) {
		return services.Wrap(services.ErrInvalidOperation, "plan", "validate", "destination "+op.Destination+" is inside source "+op.Source, nil)
	}
	return nil
}

// Rejected returns a copy of the operation marked rejected with the given
// reason, retained for reporting only.
func (op Operation) Rejected(reason string) Operation {
	op.Status = StatusRejected
	op.Error = reason
	return op
}
