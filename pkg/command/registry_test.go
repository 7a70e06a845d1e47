package command

import (
	"reflect"
	"testing"

	"github.com/spf13/pflag"
)

func TestRegistryLastRegisteredWins(t *testing.T) {
	r := NewRegistry()
	nop := func(flags *pflag.FlagSet, args []string) int { return 0 }

	r.Register(&Command{Name: "clean", Purpose: "engine clean", Kind: KindEngine, Run: nop})
	r.Register(&Command{Name: "build", Purpose: "build the site", Kind: KindEngine, Run: nop})
	r.Register(&Command{Name: "clean", Purpose: "cache-aware clean", Kind: KindEngine, Run: nop})

	cmd, ok := r.Lookup("clean")
	if !ok {
		t.Fatal("clean not registered")
	}
	if cmd.Purpose != "cache-aware clean" {
		t.Errorf("lookup returned %q, want the last registration", cmd.Purpose)
	}

	// Re-registration must not disturb the listing order.
	if got, want := r.Names(), []string{"clean", "build"}; !reflect.DeepEqual(got, want) {
		t.Errorf("names = %v, want %v", got, want)
	}
}

func TestCommandFlagSetDefaults(t *testing.T) {
	cmd := &Command{
		Name: "build",
		Options: []Option{
			{Name: "strict", Long: "strict", Type: OptionBool, Default: false},
			{Name: "quiet", Long: "quiet", Short: "q", Type: OptionBool, Default: false},
			{Name: "jobs", Long: "jobs", Type: OptionInt, Default: 4},
		},
	}

	fs := cmd.FlagSet()
	if err := fs.Parse([]string{"-q", "posts"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	quiet, _ := fs.GetBool("quiet")
	if !quiet {
		t.Error("quiet should be set by -q")
	}
	strict, _ := fs.GetBool("strict")
	if strict {
		t.Error("strict should default to false")
	}
	jobs, _ := fs.GetInt("jobs")
	if jobs != 4 {
		t.Errorf("jobs = %d, want default 4", jobs)
	}
	if got := fs.Args(); len(got) != 1 || got[0] != "posts" {
		t.Errorf("positional args = %v, want [posts]", got)
	}
}
