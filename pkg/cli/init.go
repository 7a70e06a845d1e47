package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/follower/nikola/pkg/command"
	"github.com/follower/nikola/pkg/config"
)

// skeletonConfig is the configuration written for a fresh site.
func skeletonConfig() map[string]interface{} {
	return map[string]interface{}{
		"BLOG_TITLE":    "Demo Site",
		"BLOG_AUTHOR":   "Your Name",
		"SITE_URL":      "https://example.com/",
		"OUTPUT_FOLDER": "output",
		"CACHE_FOLDER":  "cache",
	}
}

// newInitCmd creates an empty site skeleton. It never requires an
// existing configuration.
func (a *App) newInitCmd() *command.Command {
	return &command.Command{
		Name:    "init",
		Purpose: "create a Nikola site in the specified folder",
		Kind:    command.KindMeta,
		Options: []command.Option{
			{Name: "force", Long: "force", Short: "f", Type: command.OptionBool, Default: false,
				Help: "Overwrite an existing configuration."},
		},
		Run: func(flags *pflag.FlagSet, args []string) int {
			target := "."
			if len(args) > 0 {
				target = args[0]
			}
			force, _ := flags.GetBool("force")
			if err := a.initSite(target, force); err != nil {
				a.log.Error(err.Error())
				return 1
			}
			return 0
		},
	}
}

func (a *App) initSite(target string, force bool) error {
	if err := os.MkdirAll(target, 0755); err != nil {
		return fmt.Errorf("cannot create site folder: %w", err)
	}

	confPath := filepath.Join(target, config.DefaultFilename)
	if _, err := os.Stat(confPath); err == nil && !force {
		return fmt.Errorf("%q already exists; use --force to overwrite", confPath)
	}

	data, err := yaml.Marshal(skeletonConfig())
	if err != nil {
		return fmt.Errorf("cannot marshal configuration skeleton: %w", err)
	}
	if err := os.WriteFile(confPath, data, 0644); err != nil {
		return fmt.Errorf("cannot write %q: %w", confPath, err)
	}

	for _, dir := range []string{"posts", "pages", "files"} {
		if err := os.MkdirAll(filepath.Join(target, dir), 0755); err != nil {
			return fmt.Errorf("cannot create %q: %w", dir, err)
		}
	}

	a.log.Info(fmt.Sprintf("Created empty site at %s.", target))
	return nil
}
