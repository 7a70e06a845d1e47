// Package command implements the command registry and CLI dispatch.
package command

import (
	"io"

	"github.com/spf13/pflag"
)

// Kind tags where a command came from. The tag is bookkeeping for the
// registry and the help listing; project gating is controlled by the
// explicit NeedsConfig attribute, never inferred from the kind.
type Kind int

const (
	// KindEngine marks a generic command provided by the execution
	// engine layer.
	KindEngine Kind = iota
	// KindMeta marks help/version/init style commands.
	KindMeta
	// KindPlugin marks commands registered by the site model.
	KindPlugin
)

// OptionType is the declared type of a command option.
type OptionType int

const (
	OptionBool OptionType = iota
	OptionString
	OptionInt
)

// Option declares one command-line option of a command.
type Option struct {
	Name    string
	Long    string
	Short   string
	Type    OptionType
	Default interface{}
	Help    string
}

// Command is one dispatchable entry of the registry.
type Command struct {
	Name    string
	Purpose string
	Kind    Kind
	// NeedsConfig gates the command on a configured project.
	NeedsConfig bool
	Options     []Option
	// AllowUnknownFlags makes the flag set tolerate flags it does not
	// declare. The help command needs this: rewritten invocations may
	// still carry another command's flags.
	AllowUnknownFlags bool
	// Run executes the command with its parsed flag set and the
	// remaining positional arguments, returning the process exit code.
	Run func(flags *pflag.FlagSet, args []string) int
}

// FlagSet builds a pflag set from the declared options. Parse errors
// are returned to the dispatcher rather than terminating the process.
func (c *Command) FlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(c.Name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.ParseErrorsWhitelist.UnknownFlags = c.AllowUnknownFlags
	for _, opt := range c.Options {
		long := opt.Long
		if long == "" {
			long = opt.Name
		}
		switch opt.Type {
		case OptionBool:
			def, _ := opt.Default.(bool)
			fs.BoolP(long, opt.Short, def, opt.Help)
		case OptionString:
			def, _ := opt.Default.(string)
			fs.StringP(long, opt.Short, def, opt.Help)
		case OptionInt:
			def, _ := opt.Default.(int)
			fs.IntP(long, opt.Short, def, opt.Help)
		}
	}
	return fs
}
