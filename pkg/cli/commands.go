package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/follower/nikola/pkg/command"
)

// runAction assembles the graph and hands it to the engine. This is
// the single path every build-like command goes through.
func (a *App) runAction(selection []string) int {
	graph, execCfg := a.builder.Assemble(a.site, a.quiet)
	return a.engine.Run(context.Background(), graph, execCfg, selection)
}

// newRunCmd is the vanilla engine run command, kept registered so the
// build specialization can supersede it; help omits it.
func (a *App) newRunCmd() *command.Command {
	return &command.Command{
		Name:        "run",
		Purpose:     "run tasks",
		Kind:        command.KindEngine,
		NeedsConfig: true,
		Run: func(flags *pflag.FlagSet, args []string) int {
			return a.runAction(args)
		},
	}
}

// newBuildCmd is run renamed, with the strict, invariant and quiet
// options added. Those three are consumed before config load; the
// declarations here make them parse cleanly and show up in help.
func (a *App) newBuildCmd() *command.Command {
	return &command.Command{
		Name:        "build",
		Purpose:     "run tasks (build the site)",
		Kind:        command.KindEngine,
		NeedsConfig: true,
		Options: []command.Option{
			{Name: "strict", Long: "strict", Type: command.OptionBool, Default: false,
				Help: "Fail on things that would normally be warnings."},
			{Name: "invariant", Long: "invariant", Type: command.OptionBool, Default: false,
				Help: "Generate invariant output (for testing only!)."},
			{Name: "quiet", Long: "quiet", Short: "q", Type: command.OptionBool, Default: false,
				Help: "Run quietly."},
		},
		Run: func(flags *pflag.FlagSet, args []string) int {
			return a.runAction(args)
		},
	}
}

var cleanOptions = []command.Option{
	{Name: "dry-run", Long: "dry-run", Short: "n", Type: command.OptionBool, Default: false,
		Help: "Print what would be removed without removing anything."},
}

// cleanAction optionally purges the configured cache directory, then
// runs the engine's generic clean. The cache purge comes strictly
// first and only for real runs against a loaded configuration.
func (a *App) cleanAction(dryRun, purgeCache bool, selection []string) int {
	if purgeCache && !dryRun && a.cfg.HasUserKeys() {
		cacheFolder := a.cfg.GetString("CACHE_FOLDER", "cache")
		if _, err := os.Stat(cacheFolder); err == nil {
			if err := os.RemoveAll(cacheFolder); err != nil {
				a.log.Error(fmt.Sprintf("Cannot remove cache folder %q: %v", cacheFolder, err))
				return 1
			}
		}
	}

	graph, execCfg := a.builder.Assemble(a.site, a.quiet)
	if err := a.engine.Clean(graph, execCfg, dryRun, selection); err != nil {
		a.log.Error(err.Error())
		return 1
	}
	return 0
}

// newGenericCleanCmd is the engine's own clean, registered first so
// the cache-aware specialization can override it by name.
func (a *App) newGenericCleanCmd() *command.Command {
	return &command.Command{
		Name:        "clean",
		Purpose:     "clean action / remove targets",
		Kind:        command.KindEngine,
		NeedsConfig: true,
		Options:     cleanOptions,
		Run: func(flags *pflag.FlagSet, args []string) int {
			dryRun, _ := flags.GetBool("dry-run")
			return a.cleanAction(dryRun, false, args)
		},
	}
}

// newCleanCmd extends the generic clean with a cache-directory purge.
func (a *App) newCleanCmd() *command.Command {
	return &command.Command{
		Name:        "clean",
		Purpose:     "remove files and directories created by the build",
		Kind:        command.KindEngine,
		NeedsConfig: true,
		Options:     cleanOptions,
		Run: func(flags *pflag.FlagSet, args []string) int {
			dryRun, _ := flags.GetBool("dry-run")
			return a.cleanAction(dryRun, true, args)
		},
	}
}

// newDoitAutoCmd is the engine's watch command under the doit_auto
// name, leaving auto free for the site's own livereload command.
func (a *App) newDoitAutoCmd() *command.Command {
	return &command.Command{
		Name:        "doit_auto",
		Purpose:     "automatically rebuild when a dependency changes",
		Kind:        command.KindEngine,
		NeedsConfig: true,
		Run: func(flags *pflag.FlagSet, args []string) int {
			graph, execCfg := a.builder.Assemble(a.site, a.quiet)
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			return a.engine.Watch(ctx, graph, execCfg)
		},
	}
}

// newListCmd prints the assembled work units.
func (a *App) newListCmd() *command.Command {
	return &command.Command{
		Name:        "list",
		Purpose:     "list tasks from the site",
		Kind:        command.KindEngine,
		NeedsConfig: true,
		Run: func(flags *pflag.FlagSet, args []string) int {
			graph, _ := a.builder.Assemble(a.site, a.quiet)
			names := make([]string, 0, len(graph.Units))
			byName := make(map[string]string, len(graph.Units))
			for _, u := range graph.Units {
				names = append(names, u.Name)
				byName[u.Name] = u.Doc
			}
			sort.Strings(names)

			w := tabwriter.NewWriter(a.Stdout, 0, 0, 2, ' ', 0)
			for _, name := range names {
				fmt.Fprintf(w, "%s\t%s\n", name, byName[name])
			}
			w.Flush()
			return 0
		},
	}
}

// newForgetCmd drops the engine's dependency-tracking store.
func (a *App) newForgetCmd() *command.Command {
	return &command.Command{
		Name:        "forget",
		Purpose:     "clear successful run status from the dependency store",
		Kind:        command.KindEngine,
		NeedsConfig: true,
		Run: func(flags *pflag.FlagSet, args []string) int {
			if err := a.engine.Forget(); err != nil {
				a.log.Error(err.Error())
				return 1
			}
			return 0
		},
	}
}

// newVersionCmd prints the version string. The "Nikola v" prefix is a
// stable contract; scripts parse it.
func (a *App) newVersionCmd() *command.Command {
	return &command.Command{
		Name:    "version",
		Purpose: "print the Nikola version number",
		Kind:    command.KindMeta,
		Run: func(flags *pflag.FlagSet, args []string) int {
			a.printVersion()
			return 0
		},
	}
}

func (a *App) printVersion() {
	fmt.Fprintf(a.Stdout, "Nikola v%s\n", a.Version)
}
