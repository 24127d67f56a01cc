// Package executor performs the steps of a solved plan, strictly in plan
// order. The first failing step aborts the remainder; completed renames
// are reported back so the caller can still write a dump record.
package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/danieljhkim/rnr/internal/fsops"
	"github.com/danieljhkim/rnr/internal/solver"
)

// ErrCrossDevice indicates a rename across filesystem boundaries, which
// would require a data copy and is out of scope.
var ErrCrossDevice = errors.New("cannot rename across devices")

// Reporter receives one callback per step for user-facing output. In
// dry-run mode the callbacks describe what would happen.
type Reporter interface {
	Rename(source, target string)
	Backup(source, target string)
	CreateDirs(path string)
	Delete(path string)
}

// Result describes what an execution actually did.
type Result struct {
	// Completed lists the batch operations whose final rename landed, in
	// execution order. In dry-run mode nothing lands and it lists every
	// planned operation instead. This is the dump record's operation list.
	Completed []solver.Operation

	// CreatedDirs lists every directory created for missing parents,
	// shallowest first.
	CreatedDirs []string
}

// Executor runs plans against a filesystem.
type Executor struct {
	fs       fsops.FS
	log      zerolog.Logger
	reporter Reporter
}

// New creates an Executor. reporter may be nil to silence step output.
func New(fs fsops.FS, reporter Reporter, log zerolog.Logger) *Executor {
	return &Executor{fs: fs, log: log, reporter: reporter}
}

// Execute runs plan front-to-back. With dryRun set, every step is
// reported but nothing on disk changes. The returned Result is valid even
// when an error is returned; it covers the steps completed so far.
func (e *Executor) Execute(ctx context.Context, plan *solver.Plan, dryRun bool) (*Result, error) {
	result := &Result{}

	for _, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("execution interrupted: %w", err)
		}
		if err := e.runStep(step, dryRun, result); err != nil {
			return result, err
		}
		if step.Kind == solver.StepRename && step.Completes {
			result.Completed = append(result.Completed, plan.Operations[len(result.Completed)])
		}
	}

	return result, nil
}

// runStep performs (or, in dry-run, reports) a single step.
func (e *Executor) runStep(step solver.Step, dryRun bool, result *Result) error {
	switch step.Kind {
	case solver.StepCreateParents:
		if e.reporter != nil {
			e.reporter.CreateDirs(step.Target)
		}
		if dryRun {
			return nil
		}
		created, err := e.createParents(step.Target)
		if err != nil {
			return fmt.Errorf("failed to create directory %q: %w", step.Target, err)
		}
		result.CreatedDirs = append(result.CreatedDirs, created...)
		return nil

	case solver.StepBackup:
		if e.reporter != nil {
			e.reporter.Backup(step.Source, step.Target)
		}
		if dryRun {
			return nil
		}
		if err := e.fs.CopyFile(step.Source, step.Target); err != nil {
			return fmt.Errorf("failed to back up %q: %w", step.Source, err)
		}
		e.log.Debug().Str("source", step.Source).Str("backup", step.Target).Msg("backup created")
		return nil

	case solver.StepRename:
		if e.reporter != nil {
			e.reporter.Rename(step.Source, step.Target)
		}
		if dryRun {
			return nil
		}
		if err := e.fs.Rename(step.Source, step.Target); err != nil {
			if errors.Is(err, syscall.EXDEV) {
				return fmt.Errorf("failed to rename %q to %q: %w", step.Source, step.Target, ErrCrossDevice)
			}
			return fmt.Errorf("failed to rename %q to %q: %w", step.Source, step.Target, err)
		}
		return nil

	case solver.StepDelete:
		if e.reporter != nil {
			e.reporter.Delete(step.Source)
		}
		if dryRun {
			return nil
		}
		if err := e.fs.Remove(step.Source); err != nil {
			return fmt.Errorf("failed to delete %q: %w", step.Source, err)
		}
		return nil

	default:
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}
}

// createParents makes path and any missing ancestors, returning the
// directories that did not exist beforehand, shallowest first.
func (e *Executor) createParents(path string) ([]string, error) {
	var missing []string
	for current := filepath.Clean(path); ; current = filepath.Dir(current) {
		exists, err := e.fs.Exists(current)
		if err != nil {
			return nil, err
		}
		if exists || filepath.Dir(current) == current {
			break
		}
		missing = append(missing, current)
	}
	// Reverse to shallowest-first order.
	for i, j := 0, len(missing)-1; i < j; i, j = i+1, j-1 {
		missing[i], missing[j] = missing[j], missing[i]
	}

	if err := e.fs.MkdirAll(path, 0o755); err != nil {
		return nil, err
	}
	return missing, nil
}

// PruneDirs removes each of dirs that is empty, deepest first. Non-empty
// and already-missing directories are skipped.
func PruneDirs(fs fsops.FS, dirs []string, log zerolog.Logger) {
	for i := len(dirs) - 1; i >= 0; i-- {
		dir := dirs[i]
		entries, err := fs.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				log.Warn().Str("dir", dir).Err(err).Msg("failed to inspect directory, not pruning")
			}
			continue
		}
		if len(entries) > 0 {
			continue
		}
		if err := fs.Remove(dir); err != nil {
			log.Warn().Str("dir", dir).Err(err).Msg("failed to prune directory")
		}
	}
}
