package solver

import (
	"fmt"
	"strings"
)

// Conflict kind constants.
const (
	ConflictTargetExists      = "target_exists"
	ConflictDuplicateTarget   = "duplicate_target"
	ConflictSourceMissing     = "source_missing"
	ConflictUnresolvableCycle = "unresolvable_cycle"
	ConflictParentConflict    = "parent_conflict"
)

// Conflict describes why an operation makes the batch unsafe.
type Conflict struct {
	// Kind is one of the Conflict* constants.
	Kind string

	// Source and Target identify the offending operation. Target may be
	// empty for source_missing conflicts on deletions.
	Source string
	Target string

	// Reason is a human-readable explanation.
	Reason string
}

// String renders the conflict for display.
func (c Conflict) String() string {
	if c.Target == "" {
		return fmt.Sprintf("%s: %s", c.Source, c.Reason)
	}
	return fmt.Sprintf("%s -> %s: %s", c.Source, c.Target, c.Reason)
}

// ConflictError carries every conflict detected while validating a batch,
// so the user can fix the whole batch in one pass.
type ConflictError struct {
	Conflicts []Conflict
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if len(e.Conflicts) == 1 {
		return e.Conflicts[0].String()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d conflicts detected:", len(e.Conflicts))
	for _, c := range e.Conflicts {
		b.WriteString("\n  ")
		b.WriteString(c.String())
	}
	return b.String()
}
