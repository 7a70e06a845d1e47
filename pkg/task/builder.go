package task

import (
	"io"
	"os"
)

// Source enumerates work units per phase. The site model implements
// this; it is the only view of the site this package needs.
type Source interface {
	GenTasks(phase Phase) []*WorkUnit
}

// Observer is notified with the fully assembled source after both
// phases have been materialized, before execution starts. This is the
// integration seam for extensions that must observe the complete
// graph.
type Observer func(src Source)

// GraphBuilder assembles the two-phase work graph and the execution
// configuration derived from the quiet flag.
type GraphBuilder struct {
	errOut    io.Writer
	observers []Observer
}

// NewGraphBuilder creates a builder whose non-quiet reporter writes to
// errOut. A nil errOut defaults to os.Stderr.
func NewGraphBuilder(errOut io.Writer) *GraphBuilder {
	if errOut == nil {
		errOut = os.Stderr
	}
	return &GraphBuilder{errOut: errOut}
}

// AddObserver registers an observer. Observers run in registration
// order.
func (b *GraphBuilder) AddObserver(obs Observer) {
	b.observers = append(b.observers, obs)
}

// Assemble requests both phase groups from src in fixed order and
// derives the execution configuration. Both phases are always
// generated in full; selecting a subset of units is the engine's
// concern.
func (b *GraphBuilder) Assemble(src Source, quiet bool) (*WorkGraph, ExecutionConfig) {
	graph := &WorkGraph{}
	for _, phase := range Phases() {
		graph.Units = append(graph.Units, src.GenTasks(phase)...)
	}

	cfg := ExecutionConfig{
		DefaultSelection: []string{string(PhaseRender), string(PhasePostRender)},
	}
	if quiet {
		cfg.Verbosity = 0
		cfg.Reporter = ZeroReporter{}
	} else {
		cfg.Verbosity = 1
		cfg.Reporter = NewExecutedOnlyReporter(b.errOut)
	}

	for _, obs := range b.observers {
		obs(src)
	}

	return graph, cfg
}
