package command

import "fmt"

// UnknownCommandError is returned when the first token does not name a
// registered command. The orchestrator maps it to exit code 3.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q", e.Name)
}

// ProjectNotConfiguredError is returned when a project-gated command
// is invoked without a usable configuration. Exit code 3.
type ProjectNotConfiguredError struct {
	Name string
}

func (e *ProjectNotConfiguredError) Error() string {
	return fmt.Sprintf("command %q needs to run inside an existing site", e.Name)
}

// Dispatcher resolves raw CLI tokens into a command plus its remaining
// arguments, applying the rewrite rules for help and version spellings
// and the project-configured gate.
type Dispatcher struct {
	registry   *Registry
	configured bool
}

// NewDispatcher creates a dispatcher over registry. configured states
// whether the configuration load found a usable project.
func NewDispatcher(registry *Registry, configured bool) *Dispatcher {
	return &Dispatcher{registry: registry, configured: configured}
}

func isHelpSpelling(tok string) bool {
	return tok == "-h" || tok == "--help"
}

func isVersionSpelling(tok string) bool {
	return tok == "-V" || tok == "--version"
}

func containsFunc(toks []string, match func(string) bool) bool {
	for _, t := range toks {
		if match(t) {
			return true
		}
	}
	return false
}

// Resolve rewrites args and returns the resolved command together with
// the arguments that follow the command name. The rewrite rules apply
// in order, each short-circuiting the later ones:
//
//  1. empty input resolves to help alone;
//  2. a help spelling anywhere resolves to help followed by the
//     original tokens with the help spellings stripped;
//  3. otherwise a version spelling anywhere resolves to version alone;
//  4. otherwise the first token names the command.
func (d *Dispatcher) Resolve(args []string) (*Command, []string, error) {
	switch {
	case len(args) == 0:
		args = []string{"help"}
	case containsFunc(args, isHelpSpelling):
		rewritten := []string{"help"}
		for _, a := range args {
			if !isHelpSpelling(a) {
				rewritten = append(rewritten, a)
			}
		}
		args = rewritten
	case containsFunc(args, isVersionSpelling):
		args = []string{"version"}
	}

	name := args[0]
	cmd, ok := d.registry.Lookup(name)
	if !ok {
		return nil, nil, &UnknownCommandError{Name: name}
	}

	if cmd.NeedsConfig && !d.configured {
		return nil, nil, &ProjectNotConfiguredError{Name: name}
	}

	return cmd, args[1:], nil
}
