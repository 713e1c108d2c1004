package cmd

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/semindex/semindex/internal/embed"
	"github.com/semindex/semindex/pkg/version"
)

func newStatusCmd(flags *rootFlags) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index and embedding provider status",
		Long: `Show the data directory, the active embedding provider, and a summary
of indexed projects. Useful for diagnosing a misbehaving setup.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd, flags, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

// statusReport is the JSON shape of the status command output.
type statusReport struct {
	Version   string     `json:"version"`
	DataDir   string     `json:"data_dir"`
	Embedding embed.Info `json:"embedding"`
	Projects  int        `json:"projects"`
	Chunks    int        `json:"chunks"`
	UsageDB   bool       `json:"usage_db"`
}

func runStatus(ctx context.Context, cmd *cobra.Command, flags *rootFlags, jsonOutput bool) error {
	e, err := openEnv(ctx, cmd, flags)
	if err != nil {
		return err
	}
	defer e.Close()

	infos, err := e.store.List()
	if err != nil {
		return err
	}

	chunks := 0
	for _, info := range infos {
		chunks += info.Chunks
	}

	_, usageErr := os.Stat(usageDBPath(e.cfg))
	report := statusReport{
		Version:   version.Version,
		DataDir:   e.cfg.DataDir(),
		Embedding: embed.GetInfo(ctx, e.embedder),
		Projects:  len(infos),
		Chunks:    chunks,
		UsageDB:   usageErr == nil,
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	e.printer.Header("semindex " + report.Version)
	e.printer.KV("Data dir", report.DataDir)
	e.printer.KV("Provider", report.Embedding.Provider)
	e.printer.KV("Model", report.Embedding.Model)
	e.printer.KV("Dimensions", report.Embedding.Dimensions)
	if report.Embedding.Available {
		e.printer.KV("Available", "yes")
	} else {
		e.printer.Warnf("embedding provider is not reachable")
	}
	e.printer.KV("Projects", report.Projects)
	e.printer.KV("Chunks", report.Chunks)
	return nil
}
