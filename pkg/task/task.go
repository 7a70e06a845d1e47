// Package task defines the unit-of-work model handed to the execution
// engine: work units, the assembled graph, reporters and the engine
// seam itself.
package task

import "context"

// Phase identifies which of the two build phases a unit belongs to.
// Phases are always generated in full and in fixed order: render_site
// first, post_render second.
type Phase string

const (
	PhaseRender     Phase = "render_site"
	PhasePostRender Phase = "post_render"
)

// Phases lists the build phases in execution order.
func Phases() []Phase {
	return []Phase{PhaseRender, PhasePostRender}
}

// WorkUnit describes one buildable unit plus the dependency and target
// information the execution engine needs. Units are produced by the
// site model; this layer only assembles and forwards them.
type WorkUnit struct {
	Name  string
	Phase Phase
	Doc   string
	// FileDeps are input files whose fingerprints decide whether the
	// unit is up to date.
	FileDeps []string
	// Targets are the files or directories the unit produces.
	Targets []string
	// TaskDeps name units that must run before this one.
	TaskDeps []string
	// Action performs the actual work. A nil action marks a grouping
	// unit that only carries dependencies.
	Action func(ctx context.Context) error
}

// WorkGraph is the assembled, ordered collection of work units for one
// invocation.
type WorkGraph struct {
	Units []*WorkUnit
}

// Lookup returns the unit with the given name.
func (g *WorkGraph) Lookup(name string) (*WorkUnit, bool) {
	for _, u := range g.Units {
		if u.Name == name {
			return u, true
		}
	}
	return nil, false
}

// ExecutionConfig carries the engine settings derived from the CLI.
type ExecutionConfig struct {
	// Verbosity 0 silences unit output entirely.
	Verbosity int
	Reporter  Reporter
	// DefaultSelection is used when the CLI names no units. It selects
	// both phases.
	DefaultSelection []string
}

// Engine is the external incremental execution engine. This layer
// only constructs graphs for it and forwards its exit status.
type Engine interface {
	// Run executes the selected units and returns the process exit
	// code: 0 on success, 1 when a unit fails, 2 on engine errors.
	Run(ctx context.Context, graph *WorkGraph, cfg ExecutionConfig, selection []string) int
	// Clean removes declared build products and the dependency store.
	// With dryRun set it only reports what would be removed.
	Clean(graph *WorkGraph, cfg ExecutionConfig, dryRun bool, selection []string) error
	// Forget drops the dependency-tracking store.
	Forget() error
	// Watch reruns the graph whenever one of its file dependencies
	// changes, until ctx is cancelled.
	Watch(ctx context.Context, graph *WorkGraph, cfg ExecutionConfig) int
}
