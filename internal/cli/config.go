package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/matzehuels/campaignkit/pkg/config"
	"github.com/matzehuels/campaignkit/pkg/errors"
)

// sampleRoster seeds recipients.toml on "config init".
const sampleRoster = `# Recipients for campaignkit dispatch.
# status is free-form; dispatch --status selects on it.

[[recipient]]
id = "r-1"
display_name = "Ada Lovelace"
email = "ada@example.com"
phone = "+1 555 010 2030"
status = "VIP"

[[recipient]]
id = "r-2"
display_name = "Grace Hopper"
email = "grace@example.com"
status = "ACTIVE"
`

// configCommand creates the config command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create and inspect the configuration",
	}

	cmd.AddCommand(c.configInitCommand())
	cmd.AddCommand(c.configShowCommand())
	cmd.AddCommand(c.configPathCommand())

	return cmd
}

func (c *CLI) configPath() string {
	if c.ConfigPath != "" {
		return c.ConfigPath
	}
	return config.DefaultPath()
}

func (c *CLI) configInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file and a sample recipient roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configPath()
			if _, err := os.Stat(path); err == nil && !force {
				return errors.New(errors.ErrCodeConflict, "%s already exists (use --force to overwrite)", path)
			}
			cfg := config.Default()
			if err := config.Write(path, cfg); err != nil {
				return err
			}
			printSuccess("Wrote config")
			printFile(path)

			if cfg.Registry.Driver == "toml" {
				roster := cfg.Registry.DSN
				if _, err := os.Stat(roster); os.IsNotExist(err) {
					if err := os.MkdirAll(filepath.Dir(roster), 0o755); err != nil {
						return errors.Wrap(errors.ErrCodeStorage, err, "create roster dir")
					}
					if err := os.WriteFile(roster, []byte(sampleRoster), 0o644); err != nil {
						return errors.Wrap(errors.ErrCodeStorage, err, "write %s", roster)
					}
					printFile(roster)
				}
			}
			printNewline()
			printNextStep("See who you can reach", appName+" recipients")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config")
	return cmd
}

func (c *CLI) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (file, environment and defaults)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
		},
	}
}

func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), c.configPath())
		},
	}
}
