// Package solver converts a batch of intended renames into an ordered
// execution plan, or rejects the batch with typed conflicts.
//
// The plan order is the sole mechanism preventing intermediate name
// collisions: an operation whose target is currently occupied by another
// batch member is scheduled after the occupying member has moved away.
// Mutually dependent renames (swaps) are broken by routing one member
// through a fresh temporary name in the same directory.
package solver

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/danieljhkim/rnr/internal/fsops"
)

// maxTempAttempts bounds temporary-name generation before the cycle is
// declared unresolvable.
const maxTempAttempts = 16

// Solver validates batches and orders their operations.
type Solver struct {
	fs    fsops.FS
	caser fsops.Caser
	log   zerolog.Logger

	// TempTag produces the random suffix for cycle-breaking temporary
	// names. Overridable for deterministic tests.
	TempTag func() string
}

// New creates a Solver over the given filesystem and case detector.
func New(fs fsops.FS, caser fsops.Caser, log zerolog.Logger) *Solver {
	return &Solver{
		fs:      fs,
		caser:   caser,
		log:     log,
		TempTag: randomTag,
	}
}

// randomTag returns 8 hex characters from a cryptographic source.
func randomTag() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("failed to read random bytes: %v", err))
	}
	return hex.EncodeToString(buf)
}

// opState tracks an operation while the plan is being built. from is the
// path currently holding the operation's content; it diverges from the
// original source after a cycle-breaking hop.
type opState struct {
	op       Operation
	from     string
	caseOnly bool
}

// Solve validates batch and produces a plan. Validation reports every
// detected conflict at once; a nil plan is returned alongside the error.
func (s *Solver) Solve(batch Batch) (*Plan, error) {
	states, err := s.normalize(batch.Operations)
	if err != nil {
		return nil, err
	}

	conflicts, err := s.validate(states, batch.Deletions)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, &ConflictError{Conflicts: conflicts}
	}

	plan, err := s.order(states, batch)
	if err != nil {
		return nil, err
	}

	if err := s.insertParentSteps(plan); err != nil {
		return nil, err
	}

	s.log.Debug().
		Int("operations", len(states)).
		Int("steps", len(plan.Steps)).
		Msg("batch solved")
	return plan, nil
}

// normalize cleans paths, drops identity pairs and same-file pairs, and
// marks case-only renames so they survive the target-exists check.
func (s *Solver) normalize(operations []Operation) ([]*opState, error) {
	var states []*opState
	for _, op := range operations {
		op.Source = filepath.Clean(op.Source)
		op.Target = filepath.Clean(op.Target)

		if op.Source == op.Target {
			continue
		}

		insensitive, err := s.caser.Insensitive(filepath.Dir(op.Source))
		if err != nil {
			return nil, fmt.Errorf("failed to probe case sensitivity: %w", err)
		}

		// A pair differing only in case on a case-insensitive filesystem
		// is a legitimate rename, not an identity and not a collision.
		caseOnly := insensitive && strings.EqualFold(op.Source, op.Target)

		if !caseOnly {
			exists, err := s.fs.Exists(op.Target)
			if err != nil {
				return nil, fmt.Errorf("failed to check %q: %w", op.Target, err)
			}
			if exists {
				same, err := s.fs.SameFile(op.Source, op.Target)
				if err == nil && same {
					// Two routes to the same object: identity, dropped.
					continue
				}
			}
		}

		states = append(states, &opState{op: op, from: op.Source, caseOnly: caseOnly})
	}
	return states, nil
}

// key returns the comparison form of path: case-folded when the
// containing directory is case-insensitive.
func (s *Solver) key(path string) (string, error) {
	insensitive, err := s.caser.Insensitive(filepath.Dir(path))
	if err != nil {
		return "", fmt.Errorf("failed to probe case sensitivity: %w", err)
	}
	if insensitive {
		return strings.ToLower(path), nil
	}
	return path, nil
}

// validate collects every conflict in the batch: missing sources,
// duplicate targets, live out-of-batch targets and unusable parents.
func (s *Solver) validate(states []*opState, deletions []string) ([]Conflict, error) {
	var conflicts []Conflict

	sourceKeys := make(map[string]bool, len(states))
	for _, st := range states {
		k, err := s.key(st.op.Source)
		if err != nil {
			return nil, err
		}
		sourceKeys[k] = true
	}
	deletionKeys := make(map[string]bool, len(deletions))
	for _, del := range deletions {
		k, err := s.key(filepath.Clean(del))
		if err != nil {
			return nil, err
		}
		deletionKeys[k] = true
	}

	for _, del := range deletions {
		exists, err := s.fs.Exists(del)
		if err != nil {
			return nil, fmt.Errorf("failed to check %q: %w", del, err)
		}
		if !exists {
			conflicts = append(conflicts, Conflict{
				Kind:   ConflictSourceMissing,
				Source: del,
				Reason: "path scheduled for deletion no longer exists",
			})
		}
	}

	targetOwner := make(map[string]string, len(states))
	for _, st := range states {
		op := st.op

		// A missing source does not absolve the operation's target from
		// the duplicate and collision checks below.
		if _, err := s.fs.Lstat(op.Source); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read %q: %w", op.Source, err)
			}
			conflicts = append(conflicts, Conflict{
				Kind:   ConflictSourceMissing,
				Source: op.Source,
				Target: op.Target,
				Reason: "source no longer exists",
			})
		}

		tgtKey, err := s.key(op.Target)
		if err != nil {
			return nil, err
		}
		if owner, dup := targetOwner[tgtKey]; dup {
			conflicts = append(conflicts, Conflict{
				Kind:   ConflictDuplicateTarget,
				Source: op.Source,
				Target: op.Target,
				Reason: fmt.Sprintf("target already produced by %q", owner),
			})
			continue
		}
		targetOwner[tgtKey] = op.Source

		if !st.caseOnly {
			exists, err := s.fs.Exists(op.Target)
			if err != nil {
				return nil, fmt.Errorf("failed to check %q: %w", op.Target, err)
			}
			if exists && !sourceKeys[tgtKey] && !deletionKeys[tgtKey] {
				conflicts = append(conflicts, Conflict{
					Kind:   ConflictTargetExists,
					Source: op.Source,
					Target: op.Target,
					Reason: "target exists and is not part of the batch",
				})
				continue
			}
		}

		if conflict, err := s.checkParent(op); err != nil {
			return nil, err
		} else if conflict != nil {
			conflicts = append(conflicts, *conflict)
		}
	}

	return conflicts, nil
}

// checkParent verifies that the target's required parent chain either
// exists as directories or can be created.
func (s *Solver) checkParent(op Operation) (*Conflict, error) {
	parent := filepath.Dir(op.Target)
	existing, info, err := fsops.NearestExisting(s.fs, parent)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to inspect parents of %q: %w", op.Target, err)
	}
	if !info.IsDir() {
		return &Conflict{
			Kind:   ConflictParentConflict,
			Source: op.Source,
			Target: op.Target,
			Reason: fmt.Sprintf("parent %q exists and is not a directory", existing),
		}, nil
	}
	return nil, nil
}

// order schedules deletions first, then renames so that every rename's
// target has been vacated by the time it runs. Cycles are broken with
// temporary names.
func (s *Solver) order(states []*opState, batch Batch) (*Plan, error) {
	plan := &Plan{}

	for _, del := range batch.Deletions {
		plan.Steps = append(plan.Steps, Step{Kind: StepDelete, Source: filepath.Clean(del)})
	}

	// names holds the comparison keys of every path the batch touches, so
	// temporary names can be proven non-colliding against the batch too.
	names := make(map[string]bool, 2*len(states))
	// occupied maps a source key to the operation currently holding it.
	occupied := make(map[string]int, len(states))
	for i, st := range states {
		srcKey, err := s.key(st.op.Source)
		if err != nil {
			return nil, err
		}
		tgtKey, err := s.key(st.op.Target)
		if err != nil {
			return nil, err
		}
		names[srcKey] = true
		names[tgtKey] = true
		occupied[srcKey] = i
	}

	// blockedBy[i] is the operation that must vacate i's target first,
	// or -1. Since sources and targets are unique within the batch, each
	// operation has at most one blocker.
	blockedBy := make([]int, len(states))
	for i, st := range states {
		blockedBy[i] = -1
		tgtKey, err := s.key(st.op.Target)
		if err != nil {
			return nil, err
		}
		if j, ok := occupied[tgtKey]; ok && j != i {
			blockedBy[i] = j
		}
	}

	emitted := make([]bool, len(states))
	backedUp := make([]bool, len(states))
	remaining := len(states)
	claimed := make(map[string]bool)

	emitBackup := func(i int) error {
		if !batch.Backup || backedUp[i] {
			return nil
		}
		source := states[i].op.Source
		backupPath, err := fsops.UniqueName(s.fs, source, ".bk", claimed)
		if err != nil {
			return fmt.Errorf("failed to pick backup name for %q: %w", source, err)
		}
		plan.Steps = append(plan.Steps, Step{
			Kind:   StepBackup,
			Source: source,
			Target: backupPath,
		})
		backedUp[i] = true
		return nil
	}

	for remaining > 0 {
		progressed := false
		for i, st := range states {
			if emitted[i] {
				continue
			}
			if b := blockedBy[i]; b != -1 && !emitted[b] {
				continue
			}
			if err := emitBackup(i); err != nil {
				return nil, err
			}
			plan.Steps = append(plan.Steps, Step{
				Kind:      StepRename,
				Source:    st.from,
				Target:    st.op.Target,
				Completes: true,
			})
			plan.Operations = append(plan.Operations, st.op)
			emitted[i] = true
			remaining--
			progressed = true
		}
		if progressed {
			continue
		}

		// Every remaining operation is blocked: a rename cycle. Route the
		// first member through a temporary name to break it.
		cycleOp := -1
		for i := range states {
			if !emitted[i] {
				cycleOp = i
				break
			}
		}
		st := states[cycleOp]

		temp, err := s.tempName(st.from, names)
		if err != nil {
			return nil, &ConflictError{Conflicts: []Conflict{{
				Kind:   ConflictUnresolvableCycle,
				Source: st.op.Source,
				Target: st.op.Target,
				Reason: err.Error(),
			}}}
		}
		s.log.Debug().
			Str("source", st.from).
			Str("temp", temp).
			Msg("breaking rename cycle")

		if err := emitBackup(cycleOp); err != nil {
			return nil, err
		}
		plan.Steps = append(plan.Steps, Step{
			Kind:   StepRename,
			Source: st.from,
			Target: temp,
		})

		// The vacated name unblocks the operation that wanted it.
		for j := range states {
			if blockedBy[j] == cycleOp {
				blockedBy[j] = -1
			}
		}
		st.from = temp
	}

	return plan, nil
}

// tempName generates a fresh name alongside path, absent from the disk
// and from every name the batch touches. Attempts are bounded.
func (s *Solver) tempName(path string, names map[string]bool) (string, error) {
	for attempt := 0; attempt < maxTempAttempts; attempt++ {
		candidate := path + "." + s.TempTag()
		key, err := s.key(candidate)
		if err != nil {
			return "", err
		}
		if names[key] {
			continue
		}
		exists, err := s.fs.Exists(candidate)
		if err != nil {
			return "", err
		}
		if exists {
			continue
		}
		names[key] = true
		return candidate, nil
	}
	return "", fmt.Errorf("no unique temporary name found after %d attempts", maxTempAttempts)
}

// insertParentSteps prepends a create_parents step before any rename
// whose target directory neither exists nor is created earlier in the
// plan.
func (s *Solver) insertParentSteps(plan *Plan) error {
	created := make(map[string]bool)
	steps := make([]Step, 0, len(plan.Steps))

	for _, step := range plan.Steps {
		if step.Kind == StepRename {
			dir := filepath.Dir(step.Target)
			if !created[dir] {
				exists, err := s.fs.Exists(dir)
				if err != nil {
					return fmt.Errorf("failed to check %q: %w", dir, err)
				}
				if !exists {
					steps = append(steps, Step{Kind: StepCreateParents, Target: dir})
					for d := dir; !created[d]; d = filepath.Dir(d) {
						exists, err := s.fs.Exists(d)
						if err != nil {
							return fmt.Errorf("failed to check %q: %w", d, err)
						}
						if exists || filepath.Dir(d) == d {
							break
						}
						created[d] = true
					}
				}
			}
		}
		steps = append(steps, step)
	}

	plan.Steps = steps
	return nil
}

// Invert swaps source and target of every operation and reverses the
// order, producing the batch that undoes operations.
func Invert(operations []Operation) []Operation {
	inverted := make([]Operation, 0, len(operations))
	for i := len(operations) - 1; i >= 0; i-- {
		inverted = append(inverted, Operation{
			Source: operations[i].Target,
			Target: operations[i].Source,
		})
	}
	return inverted
}
