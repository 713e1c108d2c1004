package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/semindex/semindex/internal/embed"
	"github.com/semindex/semindex/internal/logging"
	mcpserver "github.com/semindex/semindex/internal/mcp"
	"github.com/semindex/semindex/internal/store"
	"github.com/semindex/semindex/internal/telemetry"
	"github.com/semindex/semindex/pkg/version"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdio",
		Long: `Run the MCP server over stdio for AI coding assistants.

The protocol owns stdout for JSON-RPC, so all diagnostics go to the log
file. Register with your assistant, e.g.:

  claude mcp add semindex -- semindex serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags)
		},
	}

	return cmd
}

func runServe(ctx context.Context, flags *rootFlags) error {
	// File-only logging: stdout carries JSON-RPC and clients treat stderr
	// noise as a connection failure.
	level := flags.logLevel
	if level == "" {
		level = "info"
	}
	if cleanup, err := logging.SetupMCPModeWithLevel(level); err == nil {
		defer cleanup()
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	st, err := store.Open(collectionsDir(cfg))
	if err != nil {
		return err
	}
	defer st.Close()

	embedder, err := embed.Resolve(ctx, embedConfig(cfg))
	if err != nil {
		return err
	}
	defer embedder.Close()

	opts := []mcpserver.Option{}
	if tracker, err := telemetry.Open(usageDBPath(cfg)); err != nil {
		slog.Warn("usage tracking disabled", "error", err)
	} else {
		defer tracker.Close()
		opts = append(opts, mcpserver.WithTracker(tracker))
	}

	server, err := mcpserver.NewServer(cfg, st, embedder, opts...)
	if err != nil {
		return err
	}
	defer server.Close()

	slog.Info("mcp server starting",
		"version", version.Version,
		"provider", embedder.Name(),
		"data_dir", cfg.DataDir())

	return server.Serve(ctx)
}
