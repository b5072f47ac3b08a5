// Package cli implements the campaignkit command-line interface.
//
// Commands drive a [studio.Studio] opened from the user's configuration:
// compose a visual from a base photo, dispatch a campaign one recipient at a
// time, browse and recall archived campaigns, generate copy and images, and
// serve the HTTP API.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/campaignkit/pkg/buildinfo"
	"github.com/matzehuels/campaignkit/pkg/config"
	"github.com/matzehuels/campaignkit/pkg/studio"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath overrides the default config file location.
	ConfigPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Campaignkit composes campaign visuals and dispatches them",
		Long:         `Campaignkit overlays captions, tints and logos on campaign photos, then walks an operator through sending the campaign to each recipient by email or WhatsApp.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default "+config.DefaultPath()+")")

	root.AddCommand(c.composeCommand())
	root.AddCommand(c.dispatchCommand())
	root.AddCommand(c.campaignsCommand())
	root.AddCommand(c.recipientsCommand())
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Studio Factory
// =============================================================================

// loadConfig reads the config file named by --config, or the default one.
func (c *CLI) loadConfig() (config.Config, error) {
	return config.Load(c.ConfigPath)
}

// openStudio opens a studio from the loaded config after applying adjust.
func (c *CLI) openStudio(ctx context.Context, adjust func(*config.Config)) (*studio.Studio, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if adjust != nil {
		adjust(&cfg)
	}
	return studio.Open(ctx, cfg, c.Logger)
}

// offline keeps a studio local: in-memory archive and registry, no broker and
// no side effects. Used by commands that only compose or generate.
func offline(cfg *config.Config) {
	cfg.Archive = config.ArchiveConfig{Driver: "memory"}
	cfg.Registry = config.RegistryConfig{Driver: "memory"}
	cfg.Dispatch = config.DispatchConfig{Navigator: "log"}
}
