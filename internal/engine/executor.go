// Package engine is the incremental task-execution engine. It runs a
// dependency-ordered graph of work units, skips units whose inputs are
// unchanged, and tracks fingerprints in a JSON store between runs.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/follower/nikola/pkg/logger"
	"github.com/follower/nikola/pkg/task"
)

// Exit codes returned by Run.
const (
	ExitOK     = 0
	ExitFailed = 1
	ExitError  = 2
)

// Executor implements task.Engine over a JSON dependency store.
type Executor struct {
	storePath string
	log       logger.Logger
	clock     clockwork.Clock
}

// New creates an executor whose dependency store lives at storePath.
func New(storePath string, log logger.Logger, clk clockwork.Clock) *Executor {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &Executor{storePath: storePath, log: log, clock: clk}
}

// Run executes the selection (or cfg.DefaultSelection when empty) in
// dependency order and returns the process exit code.
func (e *Executor) Run(ctx context.Context, graph *task.WorkGraph, cfg task.ExecutionConfig, selection []string) int {
	if len(selection) == 0 {
		selection = cfg.DefaultSelection
	}

	units, err := e.schedule(graph, selection)
	if err != nil {
		e.log.Error(err.Error())
		return ExitError
	}

	store := loadStore(e.storePath)
	store.RunID = uuid.NewString()
	store.LastRun = e.clock.Now()

	reporter := cfg.Reporter
	if reporter == nil {
		reporter = task.ZeroReporter{}
	}

	for _, u := range units {
		if e.upToDate(store, u) {
			reporter.UnitSkipped(u)
			continue
		}
		if u.Action != nil {
			if err := u.Action(ctx); err != nil {
				reporter.UnitFailed(u, err)
				if saveErr := store.save(e.storePath); saveErr != nil {
					e.log.Warn("could not write dependency store", logger.WithField("error", saveErr))
				}
				return ExitFailed
			}
		}
		reporter.UnitExecuted(u)
		e.fingerprint(store, u)
	}

	if err := store.save(e.storePath); err != nil {
		e.log.Warn("could not write dependency store", logger.WithField("error", err))
	}
	return ExitOK
}

// schedule resolves the selection to concrete units and orders them so
// every unit runs after its task dependencies.
func (e *Executor) schedule(graph *task.WorkGraph, selection []string) ([]*task.WorkUnit, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int)
	var ordered []*task.WorkUnit

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("dependency cycle through %q", name)
		}
		u, ok := graph.Lookup(name)
		if !ok {
			return fmt.Errorf("unknown task %q", name)
		}
		state[name] = visiting
		for _, dep := range u.TaskDeps {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[name] = done
		ordered = append(ordered, u)
		return nil
	}

	for _, name := range selection {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}

// upToDate reports whether all targets exist and all file dependencies
// carry the fingerprints recorded for the unit. Units without file
// dependencies and without targets are grouping units and never
// execute work, so they count as up to date once their inputs are.
func (e *Executor) upToDate(store *depStore, u *task.WorkUnit) bool {
	if len(u.FileDeps) == 0 && len(u.Targets) == 0 {
		// Grouping unit: nothing to fingerprint, nothing to produce.
		return u.Action == nil
	}
	for _, target := range u.Targets {
		if _, err := os.Stat(target); err != nil {
			return false
		}
	}
	recorded := store.Fingerprints[u.Name]
	if recorded == nil && len(u.FileDeps) > 0 {
		return false
	}
	for _, dep := range u.FileDeps {
		if recorded[dep] == "" || recorded[dep] != fileHash(dep) {
			return false
		}
	}
	return true
}

// fingerprint records the current hashes of the unit's file deps.
func (e *Executor) fingerprint(store *depStore, u *task.WorkUnit) {
	if len(u.FileDeps) == 0 {
		return
	}
	prints := make(map[string]string, len(u.FileDeps))
	for _, dep := range u.FileDeps {
		prints[dep] = fileHash(dep)
	}
	store.Fingerprints[u.Name] = prints
}

// Clean removes the declared targets of the selected units, then the
// dependency store. With dryRun set it only logs what would go.
func (e *Executor) Clean(graph *task.WorkGraph, cfg task.ExecutionConfig, dryRun bool, selection []string) error {
	if len(selection) == 0 {
		selection = cfg.DefaultSelection
	}
	units, err := e.schedule(graph, selection)
	if err != nil {
		return err
	}

	// Remove in reverse execution order so products of later units go
	// before the inputs they were derived from.
	for i := len(units) - 1; i >= 0; i-- {
		for _, target := range units[i].Targets {
			if _, err := os.Stat(target); err != nil {
				continue
			}
			if dryRun {
				e.log.Info("would remove " + target)
				continue
			}
			if err := os.RemoveAll(target); err != nil {
				return fmt.Errorf("removing %s: %w", target, err)
			}
		}
	}

	if dryRun {
		return nil
	}
	return e.Forget()
}

// Forget drops the dependency store; missing store is not an error.
func (e *Executor) Forget() error {
	if err := os.Remove(e.storePath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// watchRoots returns the directories containing the graph's file
// dependencies, deduplicated.
func watchRoots(graph *task.WorkGraph) []string {
	seen := make(map[string]bool)
	var roots []string
	for _, u := range graph.Units {
		for _, dep := range u.FileDeps {
			dir := filepath.Dir(dep)
			if !seen[dir] {
				seen[dir] = true
				roots = append(roots, dir)
			}
		}
	}
	return roots
}
