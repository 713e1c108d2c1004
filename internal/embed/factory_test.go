package embed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	semerrors "github.com/semindex/semindex/internal/errors"
)

// deadHost returns an address nothing listens on.
func deadHost(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()
	return url
}

func TestResolve_ExplicitProvider(t *testing.T) {
	clearProviderEnv(t)

	e, err := Resolve(context.Background(), Config{Provider: "static"})
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, "static", e.Name())
	assert.IsType(t, &StaticEmbedder{}, e)
}

func TestResolve_ProviderNameIsCaseInsensitive(t *testing.T) {
	clearProviderEnv(t)

	e, err := Resolve(context.Background(), Config{Provider: " Static "})
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, "static", e.Name())
}

func TestResolve_UnknownProviderFails(t *testing.T) {
	_, err := Resolve(context.Background(), Config{Provider: "banana"})
	require.Error(t, err)
	assert.Equal(t, semerrors.ErrCodeConfigInvalid, semerrors.GetCode(err))
	assert.ErrorContains(t, err, `unknown embedding provider "banana"`)

	var se *semerrors.SemError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Suggestion, "ollama, google, openai, voyage, static")
}

func TestResolve_ExplicitRemoteProviderRequiresKey(t *testing.T) {
	clearProviderEnv(t)

	_, err := Resolve(context.Background(), Config{Provider: "openai"})
	require.Error(t, err)
	assert.Equal(t, semerrors.ErrCodeConfigInvalid, semerrors.GetCode(err))
	assert.ErrorContains(t, err, `provider "openai" requires an API key`)

	var se *semerrors.SemError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Suggestion, "OPENAI_API_KEY")
}

func TestResolve_ExplicitRemoteProviderAcceptsAnyListedKey(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("GEMINI_API_KEY", "gm-key")

	e, err := Resolve(context.Background(), Config{Provider: "google", CacheSize: 0})
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, "google", e.Name())
}

func TestResolve_ExplicitOllamaNeedsNoKey(t *testing.T) {
	clearProviderEnv(t)

	// Resolution must not dial the server; only Embed does.
	e, err := Resolve(context.Background(), Config{Provider: "ollama", OllamaHost: deadHost(t)})
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, "ollama", e.Name())
}

func TestResolve_WrapsInCacheWhenEnabled(t *testing.T) {
	clearProviderEnv(t)

	e, err := Resolve(context.Background(), Config{Provider: "static", CacheSize: 50})
	require.NoError(t, err)
	defer e.Close()

	cached, ok := e.(*CachedEmbedder)
	require.True(t, ok)
	assert.IsType(t, &StaticEmbedder{}, cached.Inner())
	assert.Equal(t, "static", e.Name())
}

func TestResolve_ZeroCacheSizeDisablesCache(t *testing.T) {
	clearProviderEnv(t)

	e, err := Resolve(context.Background(), Config{Provider: "static", CacheSize: 0})
	require.NoError(t, err)
	defer e.Close()

	assert.IsType(t, &StaticEmbedder{}, e)
}

func TestResolve_CacheKillSwitch(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("SEMINDEX_EMBED_CACHE", "off")

	e, err := Resolve(context.Background(), Config{Provider: "static", CacheSize: 50})
	require.NoError(t, err)
	defer e.Close()

	assert.IsType(t, &StaticEmbedder{}, e)
}

func TestResolve_AutoDetectPrefersRunningOllama(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("GOOGLE_API_KEY", "g-key")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e, err := Resolve(context.Background(), Config{OllamaHost: srv.URL, CacheSize: 0})
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, "ollama", e.Name())
}

func TestResolve_AutoDetectFallsBackToKeyedProvider(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-key")
	t.Setenv("VOYAGE_API_KEY", "vo-key")

	e, err := Resolve(context.Background(), Config{OllamaHost: deadHost(t), CacheSize: 0})
	require.NoError(t, err)
	defer e.Close()

	// google > openai > voyage; google has no key here.
	assert.Equal(t, "openai", e.Name())
}

func TestResolve_AutoDetectStaticWhenNothingAvailable(t *testing.T) {
	clearProviderEnv(t)

	e, err := Resolve(context.Background(), Config{OllamaHost: deadHost(t), CacheSize: 0})
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, "static", e.Name())
}

func TestResolve_ModelOverrideEnvBeatsConfig(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("SEMINDEX_OLLAMA_MODEL", "env-model")

	e, err := Resolve(context.Background(), Config{Provider: "ollama", Model: "cfg-model", CacheSize: 0})
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, "env-model", e.Model())
}

func TestResolve_ConfigModelUsedWithoutOverride(t *testing.T) {
	clearProviderEnv(t)

	e, err := Resolve(context.Background(), Config{Provider: "ollama", Model: "cfg-model", CacheSize: 0})
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, "cfg-model", e.Model())
}

func TestIsValidProvider(t *testing.T) {
	for _, name := range ValidProviders() {
		assert.True(t, IsValidProvider(name), name)
	}
	assert.False(t, IsValidProvider(""))
	assert.False(t, IsValidProvider("mlx"))
}

func TestGetInfo_ReportsThroughCacheWrapper(t *testing.T) {
	fake := newFakeEmbedder("test-model", 4)
	cached, err := NewCachedEmbedder(fake, 10)
	require.NoError(t, err)

	info := GetInfo(context.Background(), cached)
	assert.Equal(t, "fake", info.Provider)
	assert.Equal(t, "test-model", info.Model)
	assert.Equal(t, 4, info.Dimensions)
	assert.True(t, info.Available)
	assert.True(t, info.Cached)

	bare := GetInfo(context.Background(), fake)
	assert.False(t, bare.Cached)
}
