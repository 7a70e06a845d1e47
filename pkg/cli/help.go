package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/pflag"

	"github.com/follower/nikola/pkg/command"
)

// newHelpCmd shows the command reference, one command's usage, or one
// work unit's description.
func (a *App) newHelpCmd(registry *command.Registry) *command.Command {
	return &command.Command{
		Name:              "help",
		Purpose:           "show help",
		Kind:              command.KindMeta,
		AllowUnknownFlags: true,
		Run: func(flags *pflag.FlagSet, args []string) int {
			if len(args) == 0 {
				a.printUsage(registry)
				return 0
			}
			return a.printTopic(registry, args[0])
		},
	}
}

// printUsage renders the basic help. The raw engine run command is
// omitted: build supersedes it, and run lacks the strict, invariant
// and quiet options.
func (a *App) printUsage(registry *command.Registry) {
	fmt.Fprintln(a.Stdout, "Nikola is a tool to create static websites and blogs. For full documentation and more information, please visit https://getnikola.com/")
	fmt.Fprintln(a.Stdout)
	fmt.Fprintln(a.Stdout, "Available commands:")

	cmds := registry.Commands()
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	for _, c := range cmds {
		if c.Name == "run" {
			continue
		}
		fmt.Fprintf(a.Stdout, "  nikola %-20s %s\n", c.Name, c.Purpose)
	}

	fmt.Fprintln(a.Stdout)
	fmt.Fprintln(a.Stdout, "  nikola help                 show help / reference")
	fmt.Fprintln(a.Stdout, "  nikola help <command>       show command usage")
	fmt.Fprintln(a.Stdout, "  nikola help <task-name>     show task usage")
}

// printTopic shows the usage of one command, falling back to work-unit
// documentation when the topic is not a command name.
func (a *App) printTopic(registry *command.Registry, topic string) int {
	if cmd, ok := registry.Lookup(topic); ok {
		fmt.Fprintf(a.Stdout, "Purpose: %s\n", cmd.Purpose)
		fmt.Fprintf(a.Stdout, "Usage:   nikola %s [options] [arguments]\n", cmd.Name)
		if usages := cmd.FlagSet().FlagUsages(); usages != "" {
			fmt.Fprintln(a.Stdout)
			fmt.Fprintln(a.Stdout, "Options:")
			fmt.Fprint(a.Stdout, usages)
		}
		return 0
	}

	if a.configured {
		graph, _ := a.builder.Assemble(a.site, true)
		if u, ok := graph.Lookup(topic); ok {
			fmt.Fprintf(a.Stdout, "%s\n", u.Name)
			if u.Doc != "" {
				fmt.Fprintf(a.Stdout, "  %s\n", u.Doc)
			}
			return 0
		}
	}

	fmt.Fprintf(a.Stdout, "No help available for %q.\n", topic)
	return 0
}
