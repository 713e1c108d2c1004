package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/semindex/semindex/internal/config"
	"github.com/semindex/semindex/internal/embed"
	"github.com/semindex/semindex/internal/store"
	"github.com/semindex/semindex/internal/ui"
)

// env bundles the runtime pieces most commands need: effective config, the
// collection store, a resolved embedder, and a styled printer.
type env struct {
	cfg      *config.Config
	store    *store.Store
	embedder embed.Embedder
	printer  *ui.Printer
	noColor  bool
}

// loadConfig builds the effective configuration, honoring --config.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	if flags.configFile != "" {
		return config.LoadFile(flags.configFile)
	}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return config.Load(cwd)
}

// openEnv opens the store and resolves the embedder. Call env.Close when done.
func openEnv(ctx context.Context, cmd *cobra.Command, flags *rootFlags) (*env, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(collectionsDir(cfg))
	if err != nil {
		return nil, err
	}

	embedder, err := embed.Resolve(ctx, embedConfig(cfg))
	if err != nil {
		st.Close()
		return nil, err
	}

	return &env{
		cfg:      cfg,
		store:    st,
		embedder: embedder,
		printer:  ui.NewPrinter(cmd.OutOrStdout(), flags.noColor),
		noColor:  flags.noColor,
	}, nil
}

func (e *env) Close() {
	if e.embedder != nil {
		_ = e.embedder.Close()
	}
	if e.store != nil {
		_ = e.store.Close()
	}
}

func collectionsDir(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir(), "collections")
}

func usageDBPath(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir(), "usage.db")
}

func embedConfig(cfg *config.Config) embed.Config {
	return embed.Config{
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		OllamaHost: cfg.Embedding.OllamaHost,
		MaxChars:   cfg.Embedding.MaxChars,
		CacheSize:  cfg.Embedding.CacheSize,
	}
}
