package embed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	semerrors "github.com/semindex/semindex/internal/errors"
)

// Provider names accepted in configuration.
const (
	ProviderOllama = "ollama"
	ProviderGoogle = "google"
	ProviderOpenAI = "openai"
	ProviderVoyage = "voyage"
	ProviderStatic = "static"
)

// providerKeyEnvs lists the environment variables that can hold each
// remote provider's API key.
var providerKeyEnvs = map[string][]string{
	ProviderGoogle: {"GOOGLE_API_KEY", "GEMINI_API_KEY"},
	ProviderOpenAI: {"OPENAI_API_KEY"},
	ProviderVoyage: {"VOYAGE_API_KEY"},
}

// ValidProviders returns the accepted provider names.
func ValidProviders() []string {
	return []string{ProviderOllama, ProviderGoogle, ProviderOpenAI, ProviderVoyage, ProviderStatic}
}

// IsValidProvider reports whether name is a known provider.
func IsValidProvider(name string) bool {
	switch name {
	case ProviderOllama, ProviderGoogle, ProviderOpenAI, ProviderVoyage, ProviderStatic:
		return true
	}
	return false
}

// Resolve builds the embedder cfg asks for, or auto-detects one when
// cfg.Provider is empty. Detection prefers a running Ollama server, then
// remote providers with credentials in the environment, then the static
// fallback. The result is wrapped in an LRU cache unless caching is off.
func Resolve(ctx context.Context, cfg Config) (Embedder, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if name == "" {
		name = detectProvider(ctx, cfg)
		slog.Info("auto-detected embedding provider", slog.String("provider", name))
	} else {
		if !IsValidProvider(name) {
			return nil, semerrors.New(semerrors.ErrCodeConfigInvalid,
				fmt.Sprintf("unknown embedding provider %q", name), nil).
				WithSuggestion("Valid providers: " + strings.Join(ValidProviders(), ", "))
		}
		if err := verifyProviderEnv(name); err != nil {
			return nil, err
		}
	}

	cfg.Model = resolveModel(name, cfg.Model)

	var inner Embedder
	switch name {
	case ProviderOllama:
		inner = NewOllamaEmbedder(cfg)
	case ProviderGoogle:
		inner = NewGoogleEmbedder(cfg)
	case ProviderOpenAI:
		inner = NewOpenAIEmbedder(cfg)
	case ProviderVoyage:
		inner = NewVoyageEmbedder(cfg)
	case ProviderStatic:
		inner = NewStaticEmbedder()
	}

	if !cacheEnabled(cfg) {
		return inner, nil
	}
	return NewCachedEmbedder(inner, cfg.CacheSize)
}

// detectProvider picks the best provider the environment can serve. The
// static fallback always works, so detection never fails.
func detectProvider(ctx context.Context, cfg Config) string {
	probe := NewOllamaEmbedder(cfg)
	defer probe.Close()
	if probe.Available(ctx) {
		return ProviderOllama
	}
	for _, name := range []string{ProviderGoogle, ProviderOpenAI, ProviderVoyage} {
		if keyInEnv(name) {
			return name
		}
	}
	return ProviderStatic
}

func keyInEnv(name string) bool {
	for _, env := range providerKeyEnvs[name] {
		if os.Getenv(env) != "" {
			return true
		}
	}
	return false
}

// verifyProviderEnv rejects an explicitly configured remote provider whose
// API key is missing, before any request is attempted.
func verifyProviderEnv(name string) error {
	envs, ok := providerKeyEnvs[name]
	if !ok || keyInEnv(name) {
		return nil
	}
	return semerrors.New(semerrors.ErrCodeConfigInvalid,
		fmt.Sprintf("provider %q requires an API key", name), nil).
		WithSuggestion("Set " + strings.Join(envs, " or ") + ", or switch providers with SEMINDEX_EMBEDDING_PROVIDER.")
}

// resolveModel applies the per-provider override, e.g.
// SEMINDEX_OLLAMA_MODEL, over the configured model. Provider defaults
// apply when both are empty.
func resolveModel(provider, cfgModel string) string {
	if v := os.Getenv("SEMINDEX_" + strings.ToUpper(provider) + "_MODEL"); v != "" {
		return v
	}
	return cfgModel
}

// cacheEnabled honors both the configured cache size and the
// SEMINDEX_EMBED_CACHE kill switch.
func cacheEnabled(cfg Config) bool {
	if cfg.CacheSize <= 0 {
		return false
	}
	switch strings.ToLower(os.Getenv("SEMINDEX_EMBED_CACHE")) {
	case "false", "0", "off", "disabled":
		return false
	}
	return true
}

// Info describes a resolved embedder for status reporting.
type Info struct {
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions"`
	Available  bool   `json:"available"`
	Cached     bool   `json:"cached"`
}

// GetInfo inspects e, noting whether it is wrapped in a cache.
func GetInfo(ctx context.Context, e Embedder) Info {
	_, cached := e.(*CachedEmbedder)
	return Info{
		Provider:   e.Name(),
		Model:      e.Model(),
		Dimensions: e.Dimensions(),
		Available:  e.Available(ctx),
		Cached:     cached,
	}
}
