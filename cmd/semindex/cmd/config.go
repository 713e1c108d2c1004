package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/semindex/semindex/configs"
	"github.com/semindex/semindex/internal/config"
	"github.com/semindex/semindex/internal/ui"
)

func newConfigCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage user configuration",
		Long: `Manage the user configuration file.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (<data-home>/config.yaml)
  3. Project config (.semindex.yaml)
  4. Environment variables (SEMINDEX_*)`,
		Example: `  # Create the user config from the commented template
  semindex config init

  # Show the effective configuration
  semindex config show

  # Print the user config file path
  semindex config path`,
	}

	cmd.AddCommand(newConfigInitCmd(flags))
	cmd.AddCommand(newConfigShowCmd(flags))
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd(flags *rootFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the user configuration file",
		Long: `Write the commented configuration template to <data-home>/config.yaml.

The data home is ~/.semindex, or $SEMINDEX_HOME when set. The template
documents every setting and ships with the built-in defaults, so a fresh
file changes nothing until edited.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, flags, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration file")

	return cmd
}

func runConfigInit(cmd *cobra.Command, flags *rootFlags, force bool) error {
	printer := ui.NewPrinter(cmd.OutOrStdout(), flags.noColor)
	path := config.UserConfigPath()

	if config.UserConfigExists() {
		if !force {
			printer.Warnf("user configuration already exists at %s", path)
			printer.Infof("use --force to overwrite it with a fresh template")
			return nil
		}
		backup, err := config.BackupUserConfig()
		if err != nil {
			return fmt.Errorf("failed to back up existing config: %w", err)
		}
		printer.Infof("previous config saved to %s", backup)
	}

	if err := os.MkdirAll(config.UserConfigDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configs.DefaultConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	printer.Successf("created %s", path)
	printer.Infof("edit the file, then run 'semindex config show' to verify")
	return nil
}

func newConfigShowCmd(flags *rootFlags) *cobra.Command {
	var (
		jsonOutput bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long: `Show the configuration after merging all sources, or a single source.

Sources: merged (default), user, project, defaults.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, flags, jsonOutput, source)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, user, project, defaults")

	return cmd
}

func runConfigShow(cmd *cobra.Command, flags *rootFlags, jsonOutput bool, source string) error {
	printer := ui.NewPrinter(cmd.OutOrStdout(), flags.noColor)

	cfg, desc, err := resolveConfigSource(flags, source)
	if err != nil {
		return err
	}
	if cfg == nil {
		printer.Warnf("no %s configuration file found", source)
		if source == "user" {
			printer.Infof("run 'semindex config init' to create one")
		}
		return nil
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}

	printer.Header("configuration: " + desc)
	data, err := cfg.YAML()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// resolveConfigSource loads one configuration source. A nil config with a
// nil error means the requested file does not exist.
func resolveConfigSource(flags *rootFlags, source string) (*config.Config, string, error) {
	switch source {
	case "merged":
		cfg, err := loadConfig(flags)
		if err != nil {
			return nil, "", err
		}
		return cfg, "merged (defaults + user + project + env)", nil

	case "user":
		cfg, err := config.LoadUserConfig()
		if err != nil {
			return nil, "", err
		}
		if cfg == nil {
			return nil, "", nil
		}
		return cfg, "user (" + config.UserConfigPath() + ")", nil

	case "project":
		cwd, err := os.Getwd()
		if err != nil {
			return nil, "", err
		}
		root, err := config.FindProjectRoot(cwd)
		if err != nil {
			root = cwd
		}
		path := filepath.Join(root, ".semindex.yaml")
		if _, err := os.Stat(path); err != nil {
			path = filepath.Join(root, ".semindex.yml")
			if _, err := os.Stat(path); err != nil {
				return nil, "", nil
			}
		}
		cfg, err := config.LoadFile(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, "project (" + path + ")", nil

	case "defaults":
		return config.NewConfig(), "defaults (hardcoded)", nil

	default:
		return nil, "", fmt.Errorf("invalid source %q (use: merged, user, project, defaults)", source)
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the user config file path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), config.UserConfigPath())
			return nil
		},
	}
}
