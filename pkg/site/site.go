// Package site holds the site model seam: the view of the site this
// dispatch layer needs, and a concrete model built from the loaded
// configuration. Content rendering itself lives behind the registered
// task sources and is out of scope here.
package site

import (
	"sort"

	"github.com/follower/nikola/pkg/command"
	"github.com/follower/nikola/pkg/config"
	"github.com/follower/nikola/pkg/task"
)

// TaskSource produces the work units of one phase from the loaded
// configuration. Rendering plugins register these.
type TaskSource func(cfg config.Config) []*task.WorkUnit

// Model is the site model. It owns task enumeration and any commands
// registered by plugins.
type Model struct {
	cfg        config.Config
	configured bool
	sources    map[task.Phase][]TaskSource
	commands   []*command.Command
}

// New constructs the model from the frozen configuration mapping.
// configured states whether a usable project configuration was found.
func New(cfg config.Config, configured bool) *Model {
	return &Model{
		cfg:        cfg,
		configured: configured,
		sources:    make(map[task.Phase][]TaskSource),
	}
}

// Config returns the frozen configuration mapping.
func (m *Model) Config() config.Config { return m.cfg }

// Configured reports whether a usable project configuration exists.
func (m *Model) Configured() bool { return m.configured }

// Invariant reports whether this invocation runs in invariant
// (reproducible) mode, read from the reserved configuration key.
func (m *Model) Invariant() bool {
	return m.cfg.GetBool(config.KeyInvariant, false)
}

// RegisterTaskSource adds a work-unit generator for a phase.
func (m *Model) RegisterTaskSource(phase task.Phase, src TaskSource) {
	m.sources[phase] = append(m.sources[phase], src)
}

// RegisterCommand registers a plugin-supplied command. Registered
// commands are merged into the registry last, so they may override
// built-ins by name.
func (m *Model) RegisterCommand(cmd *command.Command) {
	cmd.Kind = command.KindPlugin
	m.commands = append(m.commands, cmd)
}

// ExtraCommands returns the plugin-registered commands in registration
// order.
func (m *Model) ExtraCommands() []*command.Command {
	return m.commands
}

// GenTasks implements task.Source. Units from all sources of the
// phase are concatenated in registration order, followed by a grouping
// unit named after the phase that depends on every unit in it, so the
// phase name itself is a valid selection for the engine.
func (m *Model) GenTasks(phase task.Phase) []*task.WorkUnit {
	var units []*task.WorkUnit
	for _, src := range m.sources[phase] {
		units = append(units, src(m.cfg)...)
	}

	deps := make([]string, 0, len(units))
	for _, u := range units {
		deps = append(deps, u.Name)
	}
	sort.Strings(deps)
	units = append(units, &task.WorkUnit{
		Name:     string(phase),
		Phase:    phase,
		Doc:      phaseDoc(phase),
		TaskDeps: deps,
	})

	return units
}

func phaseDoc(phase task.Phase) string {
	if phase == task.PhasePostRender {
		return "Group of tasks to be executed after the site is rendered."
	}
	return "Group of tasks to render the site."
}
