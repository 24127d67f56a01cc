package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danieljhkim/rnr/internal/clock"
	"github.com/danieljhkim/rnr/internal/collect"
	"github.com/danieljhkim/rnr/internal/dump"
	"github.com/danieljhkim/rnr/internal/executor"
	"github.com/danieljhkim/rnr/internal/fsops"
	"github.com/danieljhkim/rnr/internal/logging"
	"github.com/danieljhkim/rnr/internal/renamer"
	"github.com/danieljhkim/rnr/internal/solver"
)

// parseError marks argument-parsing failures so Execute can map them to
// exit code 2 instead of 1.
type parseError struct {
	err error
}

func (e *parseError) Error() string { return e.err.Error() }
func (e *parseError) Unwrap() error { return e.err }

// pipeline bundles the real implementations every subcommand needs.
type pipeline struct {
	fs      fsops.FS
	clk     clock.Clock
	printer *printer
}

// newPipeline creates a pipeline with real implementations.
func newPipeline() *pipeline {
	return &pipeline{
		fs:      fsops.NewRealFS(),
		clk:     &clock.RealClock{},
		printer: &printer{silent: silent},
	}
}

// collectPaths expands positional path arguments using the shared flags.
func (p *pipeline) collectPaths(args []string) ([]string, error) {
	collector := collect.New(p.fs, logging.GetLogger("collect"))
	return collector.Collect(args, collect.Options{
		Recursive:   recursive,
		MaxDepth:    maxDepth,
		IncludeDirs: includeDirs,
		Hidden:      hidden,
	})
}

// applyRule maps the collected sources through a rename rule, dropping
// identity pairs.
func applyRule(rule *renamer.Rule, sources []string) ([]solver.Operation, error) {
	var operations []solver.Operation
	for _, source := range sources {
		target, err := rule.Apply(source)
		if err != nil {
			return nil, err
		}
		if target == source {
			continue
		}
		operations = append(operations, solver.Operation{Source: source, Target: target})
	}
	return operations, nil
}

// newBatch builds a batch from operations using the shared flags.
func newBatch(operations []solver.Operation) solver.Batch {
	return solver.Batch{Operations: operations, Backup: backup}
}

// dumpEnabled resolves the dump policy: --no-dump always wins, --dump
// forces a dump even in dry-run, and otherwise a dump is written exactly
// when the batch is both dumped-by-default and forced.
func dumpEnabled(defaultOn bool) bool {
	if noDump {
		return false
	}
	if dumpFlag {
		return true
	}
	return defaultOn && force
}

// currentMode snapshots the mode flags for the dump record.
func currentMode() dump.Mode {
	return dump.Mode{
		Backup:      backup,
		IncludeDirs: includeDirs,
		Hidden:      hidden,
		Force:       force,
	}
}

// run solves and executes a batch. Without --force this is a dry run that
// prints the planned diff. The dump record is written when dumpOn is set,
// covering the completed operations even if execution fails midway.
func (p *pipeline) run(batch solver.Batch, dumpOn bool) (*executor.Result, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(batch.Operations) == 0 && len(batch.Deletions) == 0 {
		p.printer.Info("nothing to do")
		return &executor.Result{}, nil
	}

	caser := fsops.NewCaseDetector(p.fs)
	sol := solver.New(p.fs, caser, logging.GetLogger("solver"))
	plan, err := sol.Solve(batch)
	if err != nil {
		var conflictErr *solver.ConflictError
		if errors.As(err, &conflictErr) {
			for _, conflict := range conflictErr.Conflicts {
				p.printer.Error(conflict.String())
			}
			return nil, fmt.Errorf("batch is unsafe, no changes made")
		}
		return nil, err
	}

	preview := !force
	if preview {
		p.printer.Info("dry run, no changes will be made (use --force to rename)")
	}

	exec := executor.New(p.fs, p.printer, logging.GetLogger("executor"))
	result, execErr := exec.Execute(ctx, plan, preview)

	if dumpOn && (execErr == nil || len(result.Completed) > 0) {
		store := dump.NewStore(p.fs, p.clk)
		path, dumpErr := store.Write(".", currentMode(), result.Completed, result.CreatedDirs)
		if dumpErr != nil {
			p.printer.Error(dumpErr.Error())
			if execErr == nil {
				return result, dumpErr
			}
		} else {
			p.printer.Info(fmt.Sprintf("operations dumped to %s", path))
		}
	}

	if execErr != nil {
		return result, execErr
	}

	if !preview {
		p.printer.Success(fmt.Sprintf("renamed %d of %d paths", len(result.Completed), len(plan.Operations)))
	}
	return result, nil
}
