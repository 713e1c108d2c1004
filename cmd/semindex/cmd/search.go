package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/semindex/semindex/internal/search"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit   int
	project string
	json    bool
	full    bool
}

func newSearchCmd(flags *rootFlags) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed projects",
		Long: `Search indexed projects with hybrid semantic + keyword search.

Vector and keyword results are fused with reciprocal-rank fusion.
Without --project all indexed projects are searched.

Examples:
  semindex search "authentication middleware"
  semindex search "retry backoff" --project ~/src/myapp -n 5
  semindex search "token refresh" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, flags, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (default from config)")
	cmd.Flags().StringVarP(&opts.project, "project", "p", "", "Restrict search to one project path")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output results as JSON")
	cmd.Flags().BoolVar(&opts.full, "full", false, "Print full chunk content instead of a preview")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, flags *rootFlags, query string, opts searchOptions) error {
	e, err := openEnv(ctx, cmd, flags)
	if err != nil {
		return err
	}
	defer e.Close()

	searcher := search.New(e.cfg, e.store, e.embedder)
	results, err := searcher.Search(ctx, query, search.Options{
		TopK:    opts.limit,
		Project: opts.project,
	})
	if err != nil {
		return err
	}

	if opts.json {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		e.printer.Infof("No results for %q", query)
		return nil
	}

	out := cmd.OutOrStdout()
	styles := e.printer.Styles()
	for i, r := range results {
		header := fmt.Sprintf("%s:%d-%d", r.FilePath, r.StartLine, r.EndLine)
		fmt.Fprintf(out, "%d. %s %s",
			i+1, styles.Path.Render(header), styles.Score.Render(fmt.Sprintf("(%.3f)", r.Score)))
		if r.SymbolName != "" {
			fmt.Fprintf(out, " %s", styles.Label.Render(r.SymbolName))
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "   %s\n", styles.Dim.Render(r.Project))

		for _, line := range previewLines(r.Content, opts.full) {
			fmt.Fprintf(out, "   %s\n", line)
		}
		fmt.Fprintln(out)
	}
	return nil
}

// previewLines trims chunk content to a short preview unless full is set.
func previewLines(content string, full bool) []string {
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	if full || len(lines) <= 4 {
		return lines
	}
	preview := make([]string, 0, 5)
	preview = append(preview, lines[:4]...)
	preview = append(preview, fmt.Sprintf("… (%d more lines)", len(lines)-4))
	return preview
}
