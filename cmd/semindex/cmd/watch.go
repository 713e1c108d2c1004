package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/semindex/semindex/internal/index"
	"github.com/semindex/semindex/internal/watch"
)

func newWatchCmd(flags *rootFlags) *cobra.Command {
	var noIndex bool

	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Watch a project and reindex changed files",
		Long: `Watch a project directory and incrementally reindex files as they
change. Edits are debounced; deletions are removed from the index
immediately. Runs until interrupted.

Examples:
  semindex watch
  semindex watch ~/src/myapp`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runWatch(cmd.Context(), cmd, flags, path, noIndex)
		},
	}

	cmd.Flags().BoolVar(&noIndex, "no-index", false, "Skip the initial index pass")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, flags *rootFlags, path string, noIndex bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := openEnv(ctx, cmd, flags)
	if err != nil {
		return err
	}
	defer e.Close()

	m := index.New(e.cfg, e.store, e.embedder)

	// Bring the collection up to date before watching, so change events
	// only have deltas to process.
	if !noIndex {
		stats, err := m.IndexProject(ctx, path, false)
		if err != nil {
			return err
		}
		e.printer.Successf("Indexed %s (%d files, %d chunks)",
			path, stats.FilesIndexed, stats.ChunksCreated)
	}

	coord := watch.NewCoordinator(e.cfg, m)
	defer coord.Close()

	if err := coord.Watch(path); err != nil {
		return err
	}

	e.printer.Infof("Watching %s (debounce %s). Press Ctrl+C to stop.",
		path, e.cfg.WatchDebounce())

	<-ctx.Done()
	e.printer.Infof("Stopping watcher.")
	return nil
}
