package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
)

// fakeEmbedder records calls and returns deterministic, text-dependent
// vectors so tests can trace which input produced which output.
type fakeEmbedder struct {
	model    string
	dims     int
	calls    int
	batches  [][]string
	embedErr error
	closed   bool
}

func newFakeEmbedder(model string, dims int) *fakeEmbedder {
	return &fakeEmbedder{model: model, dims: dims}
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.batches = append(f.batches, append([]string(nil), texts...))
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec := make([]float32, f.dims)
		vec[0] = float32(len(t))
		if len(t) > 0 {
			vec[1] = float32(t[0])
		}
		out[i] = vec
	}
	return out, nil
}

func (f *fakeEmbedder) Name() string                     { return "fake" }
func (f *fakeEmbedder) Model() string                    { return f.model }
func (f *fakeEmbedder) Dimensions() int                  { return f.dims }
func (f *fakeEmbedder) Available(_ context.Context) bool { return true }
func (f *fakeEmbedder) Close() error                     { f.closed = true; return nil }

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// clearProviderEnv blanks every credential and override variable the
// factory reads, so detection tests see only what they set themselves.
func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GOOGLE_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY", "VOYAGE_API_KEY",
		"OLLAMA_HOST", "SEMINDEX_EMBED_CACHE",
		"SEMINDEX_OLLAMA_MODEL", "SEMINDEX_GOOGLE_MODEL",
		"SEMINDEX_OPENAI_MODEL", "SEMINDEX_VOYAGE_MODEL",
	} {
		t.Setenv(key, "")
	}
}
