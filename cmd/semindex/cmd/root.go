// Package cmd provides the CLI commands for semindex.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/semindex/semindex/internal/logging"
	"github.com/semindex/semindex/pkg/version"
)

// rootFlags are the persistent flags shared by every subcommand.
type rootFlags struct {
	configFile string
	verbose    bool
	logLevel   string
	noColor    bool
}

var loggingCleanup func()

// NewRootCmd creates the root command for the semindex CLI.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "semindex",
		Short: "Semantic code index and MCP search server",
		Long: `Semindex maintains a per-project semantic code index and serves
hybrid (vector + keyword) search over it, either from the command line
or as an MCP stdio server for AI coding assistants.

Index a project with 'semindex index', then query it with
'semindex search' or wire 'semindex serve' into your assistant.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// serve owns stdout for JSON-RPC and sets up file-only
			// logging itself.
			if cmd.Name() == "serve" {
				return nil
			}
			return setupLogging(flags)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if loggingCleanup != nil {
				loggingCleanup()
				loggingCleanup = nil
			}
		},
	}

	cmd.SetVersionTemplate("semindex version {{.Version}}\n")

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "Path to config file (default: ~/.semindex/config.yaml)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Log to stderr in addition to the log file")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(newIndexCmd(flags))
	cmd.AddCommand(newSearchCmd(flags))
	cmd.AddCommand(newWatchCmd(flags))
	cmd.AddCommand(newProjectsCmd(flags))
	cmd.AddCommand(newStatusCmd(flags))
	cmd.AddCommand(newStatsCmd(flags))
	cmd.AddCommand(newServeCmd(flags))
	cmd.AddCommand(newConfigCmd(flags))
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newLogsCmd())

	return cmd
}

// setupLogging initializes file logging for interactive commands.
func setupLogging(flags *rootFlags) error {
	logCfg := logging.DefaultConfig()
	logCfg.WriteToStderr = flags.verbose
	if flags.logLevel != "" {
		logCfg.Level = flags.logLevel
	} else if flags.verbose {
		logCfg.Level = "debug"
	}

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		// Logging must never block the actual command.
		return nil
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
