package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/pflag"

	"github.com/follower/nikola/pkg/clock"
	"github.com/follower/nikola/pkg/command"
	"github.com/follower/nikola/pkg/config"
	"github.com/follower/nikola/pkg/logger"
	"github.com/follower/nikola/pkg/mocks"
	"github.com/follower/nikola/pkg/site"
	"github.com/follower/nikola/pkg/task"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(old) })
}

func writeConf(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, config.DefaultFilename), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func newTestApp(eng *mocks.MockEngine) (*App, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	app := New("1.2.3")
	app.Stdout = &out
	app.Stderr = &errOut
	if eng != nil {
		app.NewEngine = func(log logger.Logger, clk clockwork.Clock) task.Engine { return eng }
	}
	return app, &out, &errOut
}

func TestEmptyArgsShowsHelp(t *testing.T) {
	chdir(t, t.TempDir())
	app, out, _ := newTestApp(&mocks.MockEngine{})

	if code := app.Run(nil); code != 0 {
		t.Fatalf("exit %d, want 0", code)
	}
	for _, want := range []string{
		"Available commands:",
		"  nikola help                 show help / reference",
		"  nikola help <command>       show command usage",
		"  nikola help <task-name>     show task usage",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("help output missing %q", want)
		}
	}
}

func TestUnknownCommandExitsThree(t *testing.T) {
	chdir(t, t.TempDir())
	eng := &mocks.MockEngine{}
	app, _, errOut := newTestApp(eng)

	if code := app.Run([]string{"frobnicate"}); code != 3 {
		t.Fatalf("exit %d, want 3", code)
	}
	if !strings.Contains(errOut.String(), "frobnicate") {
		t.Errorf("stderr %q does not name the command", errOut.String())
	}
	if len(eng.RunCalls) != 0 {
		t.Error("engine was invoked for an unknown command")
	}
}

func TestProjectGatedCommandWithoutSite(t *testing.T) {
	chdir(t, t.TempDir())
	eng := &mocks.MockEngine{}
	app, _, errOut := newTestApp(eng)

	if code := app.Run([]string{"build"}); code != 3 {
		t.Fatalf("exit %d, want 3", code)
	}
	if !strings.Contains(errOut.String(), "existing site") {
		t.Errorf("stderr %q missing gating message", errOut.String())
	}
	if len(eng.RunCalls) != 0 {
		t.Error("graph was handed to the engine despite gating")
	}
}

func TestBrokenConfigExitsOne(t *testing.T) {
	dir := t.TempDir()
	writeConf(t, dir, "{broken: [yaml\n")
	chdir(t, dir)
	eng := &mocks.MockEngine{}
	app, _, errOut := newTestApp(eng)

	if code := app.Run([]string{"build"}); code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
	if !strings.Contains(errOut.String(), "cannot be parsed") {
		t.Errorf("stderr %q missing parse failure", errOut.String())
	}
	if len(eng.RunCalls) != 0 {
		t.Error("work graph constructed despite broken config")
	}
}

func TestMissingConfigWarnsForGatedCommand(t *testing.T) {
	chdir(t, t.TempDir())
	app, _, errOut := newTestApp(&mocks.MockEngine{})

	app.Run([]string{"build"})

	if !strings.Contains(errOut.String(), "Cannot find configuration file") {
		t.Errorf("stderr %q missing degraded-mode warning", errOut.String())
	}
}

func TestBuildForwardsEngineExitCode(t *testing.T) {
	dir := t.TempDir()
	writeConf(t, dir, "BLOG_TITLE: Demo\n")
	chdir(t, dir)

	eng := &mocks.MockEngine{RunCode: 5}
	app, _, _ := newTestApp(eng)

	if code := app.Run([]string{"build"}); code != 5 {
		t.Fatalf("exit %d, want the engine's 5", code)
	}
	if len(eng.RunCalls) != 1 {
		t.Fatalf("engine invoked %d times, want 1", len(eng.RunCalls))
	}

	call := eng.RunCalls[0]
	want := []string{string(task.PhaseRender), string(task.PhasePostRender)}
	if len(call.Config.DefaultSelection) != 2 ||
		call.Config.DefaultSelection[0] != want[0] ||
		call.Config.DefaultSelection[1] != want[1] {
		t.Errorf("default selection %v, want %v", call.Config.DefaultSelection, want)
	}
}

func TestBuildQuietSelectsSilentReporter(t *testing.T) {
	dir := t.TempDir()
	writeConf(t, dir, "BLOG_TITLE: Demo\n")
	chdir(t, dir)

	eng := &mocks.MockEngine{}
	app, _, _ := newTestApp(eng)

	if code := app.Run([]string{"build", "-q"}); code != 0 {
		t.Fatalf("exit %d", code)
	}
	call := eng.RunCalls[0]
	if call.Config.Verbosity != 0 {
		t.Errorf("verbosity %d, want 0", call.Config.Verbosity)
	}
	if _, ok := call.Config.Reporter.(task.ZeroReporter); !ok {
		t.Errorf("reporter %T, want ZeroReporter", call.Config.Reporter)
	}
}

func TestBuildStrictEmitsNoticeBeforeConfigLoad(t *testing.T) {
	dir := t.TempDir()
	writeConf(t, dir, "BLOG_TITLE: Demo\n")
	chdir(t, dir)

	app, _, errOut := newTestApp(&mocks.MockEngine{})
	app.Run([]string{"build", "--strict"})

	if !strings.Contains(errOut.String(), "Running in strict mode") {
		t.Errorf("stderr %q missing strict notice", errOut.String())
	}
}

func TestVersionOutputIsStable(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "version command", args: []string{"version"}},
		{name: "short flag anywhere", args: []string{"build", "--strict", "-V"}},
		{name: "long flag", args: []string{"--version"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			app, out, _ := newTestApp(&mocks.MockEngine{})
			if code := app.Run(tt.args); code != 0 {
				t.Fatalf("exit %d", code)
			}
			if out.String() != "Nikola v1.2.3\n" {
				t.Errorf("output %q, want %q", out.String(), "Nikola v1.2.3\n")
			}
		})
	}
}

func TestHelpFlagAnywhereShowsHelp(t *testing.T) {
	dir := t.TempDir()
	writeConf(t, dir, "BLOG_TITLE: Demo\n")
	chdir(t, dir)

	eng := &mocks.MockEngine{}
	app, out, _ := newTestApp(eng)

	if code := app.Run([]string{"build", "--help"}); code != 0 {
		t.Fatalf("exit %d", code)
	}
	// help build: the build command's own usage must be visible.
	if !strings.Contains(out.String(), "run tasks (build the site)") {
		t.Errorf("output %q missing build purpose", out.String())
	}
	if !strings.Contains(out.String(), "--invariant") {
		t.Errorf("output %q missing build options", out.String())
	}
	if len(eng.RunCalls) != 0 {
		t.Error("engine ran for a help invocation")
	}
}

func TestHelpListsCommandsPadded(t *testing.T) {
	dir := t.TempDir()
	writeConf(t, dir, "BLOG_TITLE: Demo\n")
	chdir(t, dir)

	app, out, _ := newTestApp(&mocks.MockEngine{})
	app.Setup = func(m *site.Model) {
		m.RegisterCommand(&command.Command{
			Name:    "foo",
			Purpose: "Foo does X",
			Run:     func(flags *pflag.FlagSet, args []string) int { return 0 },
		})
	}

	if code := app.Run([]string{"help"}); code != 0 {
		t.Fatalf("exit %d", code)
	}

	if want := fmt.Sprintf("  nikola %-20s %s", "foo", "Foo does X"); !strings.Contains(out.String(), want) {
		t.Errorf("help output missing %q:\n%s", want, out.String())
	}
	// The raw engine run command is superseded by build.
	if unwanted := fmt.Sprintf("  nikola %-20s %s", "run", "run tasks"); strings.Contains(out.String(), unwanted) {
		t.Errorf("help output still lists the raw run command:\n%s", out.String())
	}
}

func TestPluginCommandOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	writeConf(t, dir, "BLOG_TITLE: Demo\n")
	chdir(t, dir)

	eng := &mocks.MockEngine{}
	app, out, _ := newTestApp(eng)
	app.Setup = func(m *site.Model) {
		m.RegisterCommand(&command.Command{
			Name:    "list",
			Purpose: "site-flavored list",
			Run: func(flags *pflag.FlagSet, args []string) int {
				fmt.Fprintln(app.Stdout, "overridden")
				return 0
			},
		})
	}

	if code := app.Run([]string{"list"}); code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(out.String(), "overridden") {
		t.Errorf("built-in list ran instead of the plugin override: %q", out.String())
	}
}

func cleanFixture(t *testing.T, conf, cacheDir string) (*App, *mocks.MockEngine, string) {
	t.Helper()
	dir := t.TempDir()
	writeConf(t, dir, conf)
	if cacheDir != "" {
		full := filepath.Join(dir, cacheDir)
		if err := os.MkdirAll(full, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(full, "blob"), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	chdir(t, dir)
	eng := &mocks.MockEngine{}
	app, _, _ := newTestApp(eng)
	return app, eng, dir
}

func TestCleanPurgesDefaultCacheFolder(t *testing.T) {
	app, eng, dir := cleanFixture(t, "BLOG_TITLE: Demo\n", "cache")

	if code := app.Run([]string{"clean"}); code != 0 {
		t.Fatalf("exit %d", code)
	}
	if _, err := os.Stat(filepath.Join(dir, "cache")); !os.IsNotExist(err) {
		t.Error("cache directory survived clean")
	}
	if len(eng.CleanCalls) != 1 || eng.CleanCalls[0].DryRun {
		t.Errorf("generic clean calls = %+v, want one real run", eng.CleanCalls)
	}
}

func TestCleanHonorsConfiguredCacheFolder(t *testing.T) {
	app, _, dir := cleanFixture(t, "CACHE_FOLDER: mycache\n", "mycache")
	if err := os.MkdirAll(filepath.Join(dir, "cache"), 0755); err != nil {
		t.Fatal(err)
	}

	if code := app.Run([]string{"clean"}); code != 0 {
		t.Fatalf("exit %d", code)
	}
	if _, err := os.Stat(filepath.Join(dir, "mycache")); !os.IsNotExist(err) {
		t.Error("configured cache folder survived clean")
	}
	if _, err := os.Stat(filepath.Join(dir, "cache")); err != nil {
		t.Error("default-named directory was removed despite CACHE_FOLDER override")
	}
}

func TestCleanDryRunLeavesCache(t *testing.T) {
	app, eng, dir := cleanFixture(t, "BLOG_TITLE: Demo\n", "cache")

	if code := app.Run([]string{"clean", "-n"}); code != 0 {
		t.Fatalf("exit %d", code)
	}
	if _, err := os.Stat(filepath.Join(dir, "cache")); err != nil {
		t.Error("dry-run clean removed the cache directory")
	}
	if len(eng.CleanCalls) != 1 || !eng.CleanCalls[0].DryRun {
		t.Errorf("clean calls = %+v, want one dry run", eng.CleanCalls)
	}
}

func TestCleanTwiceWithoutCacheIsFine(t *testing.T) {
	app, _, _ := cleanFixture(t, "BLOG_TITLE: Demo\n", "")

	if code := app.Run([]string{"clean"}); code != 0 {
		t.Fatalf("first clean exit %d", code)
	}
	app2, _, _ := newTestApp(&mocks.MockEngine{})
	if code := app2.Run([]string{"clean"}); code != 0 {
		t.Fatalf("second clean exit %d", code)
	}
}

func TestInvariantBuildFreezesClock(t *testing.T) {
	dir := t.TempDir()
	writeConf(t, dir, "BLOG_TITLE: Demo\n")
	chdir(t, dir)

	var engineClock clockwork.Clock
	var model *site.Model
	app, _, _ := newTestApp(nil)
	eng := &mocks.MockEngine{}
	app.NewEngine = func(log logger.Logger, clk clockwork.Clock) task.Engine {
		engineClock = clk
		return eng
	}
	app.Setup = func(m *site.Model) { model = m }

	if code := app.Run([]string{"build", "--invariant"}); code != 0 {
		t.Fatalf("exit %d", code)
	}
	if engineClock == nil || !engineClock.Now().Equal(clock.InvariantInstant) {
		t.Error("engine did not receive the frozen clock")
	}
	if !model.Invariant() {
		t.Error("site model does not report invariant mode")
	}
	if !model.Config().GetBool(config.KeyInvariant, false) {
		t.Error("reserved invariant key not injected")
	}
}

func TestInvariantDegradesWithoutFreezeCapability(t *testing.T) {
	dir := t.TempDir()
	writeConf(t, dir, "BLOG_TITLE: Demo\n")
	chdir(t, dir)

	var model *site.Model
	eng := &mocks.MockEngine{}
	app, _, errOut := newTestApp(eng)
	app.Freeze = func() (clockwork.Clock, bool) { return nil, false }
	app.Setup = func(m *site.Model) { model = m }

	if code := app.Run([]string{"build", "--invariant"}); code != 0 {
		t.Fatalf("exit %d, degraded invariant build must still run", code)
	}
	if !strings.Contains(errOut.String(), "time-freezing") {
		t.Errorf("stderr %q missing capability report", errOut.String())
	}
	if model.Invariant() {
		t.Error("invariant mode reported despite missing capability")
	}
	if len(eng.RunCalls) != 1 {
		t.Error("build did not proceed without the capability")
	}
}

func TestConfOverrideToken(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "custom.yml"), []byte("BLOG_TITLE: Custom\n"), 0644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	var model *site.Model
	app, _, _ := newTestApp(&mocks.MockEngine{})
	app.Setup = func(m *site.Model) { model = m }

	if code := app.Run([]string{"build", "--conf=custom.yml"}); code != 0 {
		t.Fatalf("exit %d", code)
	}
	if got := model.Config().GetString(config.KeyConfigFile, ""); got != "custom.yml" {
		t.Errorf("reserved config path %q, want custom.yml", got)
	}
	if got := model.Config().GetString("BLOG_TITLE", ""); got != "Custom" {
		t.Errorf("BLOG_TITLE %q, want Custom", got)
	}
}

// TestBuildEndToEnd exercises the default wiring with the real engine:
// a registered task source renders a file, and an unchanged rebuild
// stays silent.
func TestBuildEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeConf(t, dir, "BLOG_TITLE: Demo\n")
	input := filepath.Join(dir, "post.md")
	output := filepath.Join(dir, "post.html")
	if err := os.WriteFile(input, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	setup := func(m *site.Model) {
		m.RegisterTaskSource(task.PhaseRender, func(cfg config.Config) []*task.WorkUnit {
			return []*task.WorkUnit{{
				Name:     "render_post",
				Phase:    task.PhaseRender,
				FileDeps: []string{input},
				Targets:  []string{output},
				Action: func(ctx context.Context) error {
					return os.WriteFile(output, []byte("<p>hello</p>"), 0644)
				},
			}}
		})
	}

	app, _, errOut := newTestApp(nil)
	app.Setup = setup
	if code := app.Run([]string{"build"}); code != 0 {
		t.Fatalf("build exit %d, stderr: %s", code, errOut.String())
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatal("build did not produce the output file")
	}
	if !strings.Contains(errOut.String(), "render_post") {
		t.Errorf("reporter did not announce the executed unit: %q", errOut.String())
	}

	// Second build with identical inputs: nothing executes.
	app2, _, errOut2 := newTestApp(nil)
	app2.Setup = setup
	if code := app2.Run([]string{"build"}); code != 0 {
		t.Fatalf("rebuild exit %d", code)
	}
	if strings.Contains(errOut2.String(), "render_post") {
		t.Errorf("up-to-date unit announced on rebuild: %q", errOut2.String())
	}
}

func TestObserverNotifiedOnBuild(t *testing.T) {
	dir := t.TempDir()
	writeConf(t, dir, "BLOG_TITLE: Demo\n")
	chdir(t, dir)

	var model *site.Model
	app, _, _ := newTestApp(&mocks.MockEngine{})
	app.Setup = func(m *site.Model) { model = m }

	var seen []task.Source
	app.AddObserver(func(src task.Source) { seen = append(seen, src) })

	if code := app.Run([]string{"build"}); code != 0 {
		t.Fatalf("exit %d", code)
	}
	if len(seen) != 1 {
		t.Fatalf("observer fired %d times, want 1", len(seen))
	}
	if got, ok := seen[0].(*site.Model); !ok || got != model {
		t.Error("observer did not receive the site model")
	}
}

func TestDoitAutoReachesEngineWatch(t *testing.T) {
	dir := t.TempDir()
	writeConf(t, dir, "BLOG_TITLE: Demo\n")
	chdir(t, dir)

	eng := &mocks.MockEngine{WatchCode: 4}
	app, _, _ := newTestApp(eng)

	if code := app.Run([]string{"doit_auto"}); code != 4 {
		t.Fatalf("exit %d, want the engine's 4", code)
	}
	if eng.WatchCount != 1 {
		t.Errorf("engine watch invoked %d times, want 1", eng.WatchCount)
	}
}

func TestInitCreatesSkeleton(t *testing.T) {
	parent := t.TempDir()
	chdir(t, parent)

	app, _, errOut := newTestApp(&mocks.MockEngine{})
	if code := app.Run([]string{"init", "mysite"}); code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, errOut.String())
	}

	if _, err := os.Stat(filepath.Join(parent, "mysite", config.DefaultFilename)); err != nil {
		t.Error("init did not write the configuration skeleton")
	}
	for _, d := range []string{"posts", "pages", "files"} {
		if _, err := os.Stat(filepath.Join(parent, "mysite", d)); err != nil {
			t.Errorf("init did not create %s", d)
		}
	}

	// Without --force a second init must refuse to overwrite.
	app2, _, _ := newTestApp(&mocks.MockEngine{})
	if code := app2.Run([]string{"init", "mysite"}); code != 1 {
		t.Errorf("overwriting init exit %d, want 1", code)
	}
}
