package cmd

import (
	"fmt"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/semindex/semindex/internal/logging"
)

// logsOptions holds CLI flags for logs.
type logsOptions struct {
	lines   int
	follow  bool
	level   string
	pattern string
	file    string
	noColor bool
}

func newLogsCmd() *cobra.Command {
	var opts logsOptions

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View semindex log output",
		Long: `View the semindex log file, with optional level and pattern filters.

Examples:
  semindex logs
  semindex logs -f
  semindex logs --level error -n 50
  semindex logs --grep "provider"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogs(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.lines, "lines", "n", 20, "Number of lines to show")
	cmd.Flags().BoolVarP(&opts.follow, "follow", "f", false, "Follow the log as it grows")
	cmd.Flags().StringVar(&opts.level, "level", "", "Filter by level: debug, info, warn, error")
	cmd.Flags().StringVar(&opts.pattern, "grep", "", "Filter by regular expression")
	cmd.Flags().StringVar(&opts.file, "file", "", "Log file path (default: the semindex log)")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func runLogs(cmd *cobra.Command, opts logsOptions) error {
	path, err := logging.FindLogFile(opts.file)
	if err != nil {
		return err
	}

	vcfg := logging.ViewerConfig{
		Level:   opts.level,
		NoColor: opts.noColor,
	}
	if opts.pattern != "" {
		re, err := regexp.Compile(opts.pattern)
		if err != nil {
			return fmt.Errorf("invalid --grep pattern: %w", err)
		}
		vcfg.Pattern = re
	}

	viewer := logging.NewViewer(vcfg, cmd.OutOrStdout())

	entries, err := viewer.Tail(path, opts.lines)
	if err != nil {
		return err
	}
	viewer.Print(entries)

	if !opts.follow {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ch := make(chan logging.LogEntry, 64)
	go func() {
		for entry := range ch {
			fmt.Fprintln(cmd.OutOrStdout(), viewer.FormatEntry(entry))
		}
	}()
	return viewer.Follow(ctx, path, ch)
}
