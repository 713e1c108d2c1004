package cmd

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/semindex/semindex/internal/index"
	"github.com/semindex/semindex/internal/ui"
)

// indexOptions holds CLI flags for index.
type indexOptions struct {
	force bool
	json  bool
	quiet bool
}

func newIndexCmd(flags *rootFlags) *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Index a project directory",
		Long: `Index a project directory into its collection.

Unchanged files are skipped by content fingerprint; --force drops the
collection and rebuilds it from scratch.

Examples:
  semindex index
  semindex index ~/src/myapp
  semindex index --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runIndex(cmd.Context(), cmd, flags, path, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "Rebuild the collection from scratch")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output stats as JSON")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress progress output")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, flags *rootFlags, path string, opts indexOptions) error {
	e, err := openEnv(ctx, cmd, flags)
	if err != nil {
		return err
	}
	defer e.Close()

	var mopts []index.Option
	var progress *ui.IndexProgress
	if !opts.quiet && !opts.json {
		progress = ui.NewIndexProgress(cmd.OutOrStdout(), path, flags.noColor)
		progress.Start()
		mopts = append(mopts, index.WithProgress(progress.Report))
	}

	m := index.New(e.cfg, e.store, e.embedder, mopts...)
	stats, err := m.IndexProject(ctx, path, opts.force)
	if progress != nil {
		progress.Finish()
	}
	if err != nil {
		return err
	}

	if opts.json {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	e.printer.Successf("Indexed %s in %s", path, stats.Duration.Round(10*time.Millisecond))
	e.printer.KV("Collection", stats.Collection)
	e.printer.KV("Files scanned", stats.FilesScanned)
	e.printer.KV("Files indexed", stats.FilesIndexed)
	e.printer.KV("Files skipped", stats.FilesSkipped)
	if stats.FilesRemoved > 0 {
		e.printer.KV("Files removed", stats.FilesRemoved)
	}
	e.printer.KV("Chunks created", stats.ChunksCreated)
	return nil
}
