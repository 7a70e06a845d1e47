// Package cli is the build orchestrator: it resolves CLI invocations
// into commands, loads the project configuration, assembles the work
// graph and hands it to the execution engine.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/mattn/go-isatty"

	"github.com/follower/nikola/internal/engine"
	"github.com/follower/nikola/pkg/clock"
	"github.com/follower/nikola/pkg/command"
	"github.com/follower/nikola/pkg/config"
	"github.com/follower/nikola/pkg/logger"
	"github.com/follower/nikola/pkg/site"
	"github.com/follower/nikola/pkg/task"
)

// Version is stamped at build time.
var Version = "8.0.0-dev"

// exit codes surfaced by the orchestrator itself. Engine exit codes
// pass through unmodified.
const (
	exitConfigBroken = 1
	exitDispatch     = 3
)

// App ties the command registry, the graph builder and the execution
// engine together for one CLI invocation.
type App struct {
	Version string
	Stdout  io.Writer
	Stderr  io.Writer

	// Freeze is the optional time-freezing capability used by
	// invariant builds. Absence is non-fatal.
	Freeze clock.FreezeCapability

	// NewEngine constructs the execution engine for this invocation.
	NewEngine func(log logger.Logger, clk clockwork.Clock) task.Engine

	// Setup runs against the constructed site model before dispatch.
	// This is where task sources and plugin commands get registered.
	Setup func(m *site.Model)

	observers []task.Observer

	log        logger.Logger
	clk        clockwork.Clock
	cfg        config.Config
	site       *site.Model
	builder    *task.GraphBuilder
	engine     task.Engine
	quiet      bool
	strict     bool
	invariant  bool
	configured bool
	confPath   string
}

// New creates an App with production defaults.
func New(version string) *App {
	return &App{
		Version: version,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Freeze:  clock.DefaultFreeze,
		NewEngine: func(log logger.Logger, clk clockwork.Clock) task.Engine {
			return engine.New(engine.StoreFilename, log, clk)
		},
	}
}

// Main runs one production invocation and returns the exit code.
func Main(args []string) int {
	return New(Version).Run(args)
}

func contains(args []string, tok string) bool {
	for _, a := range args {
		if a == tok {
			return true
		}
	}
	return false
}

// Run resolves args into a command and executes it, returning the
// process exit code.
func (a *App) Run(args []string) int {
	colorful := false
	if f, ok := a.Stderr.(*os.File); ok {
		colorful = isatty.IsTerminal(f.Fd()) && runtime.GOOS != "windows"
	}

	// Strict and quiet only apply to the build command and must be
	// known before the configuration is loaded.
	a.strict = len(args) > 0 && args[0] == "build" && contains(args, "--strict")
	a.quiet = len(args) > 0 && args[0] == "build" &&
		(contains(args, "-q") || contains(args, "--quiet"))

	a.log = logger.New(logger.Options{
		Out:      a.Stderr,
		Colorful: colorful,
		Quiet:    a.quiet,
		Strict:   a.strict,
	})
	if a.strict {
		a.log.Notice("Running in strict mode")
	}

	// The --conf= token is consumed before any other parsing and may
	// appear anywhere.
	confPath := config.DefaultFilename
	for i, arg := range args {
		if strings.HasPrefix(arg, "--conf=") {
			confPath = strings.TrimPrefix(arg, "--conf=")
			a.log.Info(fmt.Sprintf("Using config file %q.", confPath))
			args = append(args[:i:i], args[i+1:]...)
			break
		}
	}
	a.confPath = confPath

	// init, version and import_* commands run outside a site; having
	// a configuration somewhere up the tree must not hijack them.
	argname := ""
	if len(args) > 0 {
		argname = args[0]
	}
	needsConfig := argname != "" && argname != "init" && argname != "version" &&
		!strings.HasPrefix(argname, "import_")
	if needsConfig {
		if root := config.FindRoot(".", filepath.Base(confPath)); root != "" {
			if err := os.Chdir(root); err != nil {
				a.log.Warn(fmt.Sprintf("Cannot change to site root %q: %v", root, err))
			}
		}
	}

	cfg, err := config.NewLoader().Load(confPath)
	a.configured = false
	if err != nil {
		var parseErr *config.ParseError
		switch {
		case errors.As(err, &parseErr):
			a.log.Error(fmt.Sprintf("%q cannot be parsed: %v", confPath, parseErr.Err))
			return exitConfigBroken
		case errors.Is(err, config.ErrNotFound):
			if needsConfig {
				a.log.Warn(fmt.Sprintf("Cannot find configuration file %q.", confPath))
			}
			cfg = config.Config{}
		default:
			a.log.Error(fmt.Sprintf("%q cannot be read: %v", confPath, err))
			return exitConfigBroken
		}
	} else {
		a.configured = len(cfg) > 0
	}

	a.clk = clock.Real()
	a.invariant = false
	if argname == "build" && contains(args, "--invariant") {
		if frozen, ok := a.freeze(); ok {
			a.clk = frozen
			a.invariant = true
		} else {
			a.log.Warn("In order to perform invariant builds the time-freezing capability is required; continuing without it.")
		}
	}

	if a.configured {
		if err := config.EnsurePluginsPackage("."); err != nil {
			a.log.Warn(fmt.Sprintf("Cannot create plugins package marker: %v", err))
		}
	}

	// Reserved keys are injected exactly once, after the file has been
	// resolved and before the site model sees the mapping.
	cfg[config.KeyColorful] = colorful
	cfg[config.KeyInvariant] = a.invariant
	cfg[config.KeyQuiet] = a.quiet
	cfg[config.KeyConfigFile] = confPath
	a.cfg = cfg

	a.site = site.New(cfg, a.configured)
	if a.Setup != nil {
		a.Setup(a.site)
	}

	a.builder = task.NewGraphBuilder(a.Stderr)
	for _, obs := range a.observers {
		a.builder.AddObserver(obs)
	}
	a.engine = a.NewEngine(a.log, a.clk)

	registry := a.buildRegistry()
	dispatcher := command.NewDispatcher(registry, a.configured)
	cmd, rest, err := dispatcher.Resolve(args)
	if err != nil {
		a.log.Error(err.Error())
		return exitDispatch
	}

	flags := cmd.FlagSet()
	if err := flags.Parse(rest); err != nil {
		a.log.Error(fmt.Sprintf("%s: %v", cmd.Name, err))
		return exitDispatch
	}

	code := cmd.Run(flags, flags.Args())

	// The real clock comes back only when the constructed site model
	// itself reports invariant mode, not on the local flag alone.
	if a.site.Invariant() {
		a.clk = clock.Real()
	}

	return code
}

// AddObserver registers an observer notified once the work graph has
// been assembled, before execution starts. Observers must be added
// before Run.
func (a *App) AddObserver(obs task.Observer) {
	a.observers = append(a.observers, obs)
}

func (a *App) freeze() (clockwork.Clock, bool) {
	if a.Freeze == nil {
		return nil, false
	}
	return a.Freeze()
}

// buildRegistry merges, in order: generic engine commands, this tool's
// specializations, meta commands, then site-registered plugin commands.
// Later registrations override earlier ones by name.
func (a *App) buildRegistry() *command.Registry {
	r := command.NewRegistry()

	r.Register(a.newRunCmd())
	r.Register(a.newGenericCleanCmd())
	r.Register(a.newListCmd())
	r.Register(a.newForgetCmd())

	r.Register(a.newBuildCmd())
	r.Register(a.newCleanCmd())
	r.Register(a.newDoitAutoCmd())

	r.Register(a.newHelpCmd(r))
	r.Register(a.newVersionCmd())
	r.Register(a.newInitCmd())

	for _, cmd := range a.site.ExtraCommands() {
		r.Register(cmd)
	}

	return r
}
