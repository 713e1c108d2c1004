// Package embed turns chunk text into fixed-width vectors.
//
// Five providers implement the Embedder interface: ollama talks to a local
// Ollama server, google, openai and voyage call their hosted APIs, and
// static is a deterministic token-hash fallback that needs no network.
// Resolve picks a provider from configuration or auto-detection and wraps
// it in an LRU cache unless caching is disabled.
package embed

import (
	"context"
	"math"
	"strings"

	semerrors "github.com/semindex/semindex/internal/errors"
)

const (
	// DefaultMaxChars caps the text sent to a provider in one request,
	// roughly 1500 tokens.
	DefaultMaxChars = 6000

	// minChars is the floor for adaptive truncation when a model reports
	// its context length exceeded.
	minChars = 500
)

// Embedder converts texts to vectors.
type Embedder interface {
	// Embed returns one embedding per text, in input order. A nil error
	// guarantees len(result) == len(texts).
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Name is the provider name as written in configuration ("ollama").
	Name() string

	// Model identifies the model the embeddings are produced with.
	Model() string

	// Dimensions is the width of the vectors Embed returns.
	Dimensions() int

	// Available reports whether the provider can serve requests right
	// now. Remote providers only check credentials; ollama pings the
	// server.
	Available(ctx context.Context) bool

	// Close releases pooled connections and other resources.
	Close() error
}

// Config selects and tunes a provider. Zero values fall back to provider
// defaults; an empty Provider asks Resolve to auto-detect one.
type Config struct {
	Provider   string
	Model      string
	Dimensions int
	OllamaHost string
	MaxChars   int
	CacheSize  int
}

// EmbedQuery embeds a single search query.
func EmbedQuery(ctx context.Context, e Embedder, query string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, semerrors.EmbedError("provider returned no embedding for the query", nil)
	}
	return vecs[0], nil
}

// sanitizeTexts prepares inputs the way providers expect: blank texts
// become a single space so result positions stay aligned (the APIs reject
// empty input), and long texts are cut to maxChars.
func sanitizeTexts(texts []string, maxChars int) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		s := strings.TrimSpace(t)
		if s == "" {
			s = " "
		}
		out[i] = truncateRunes(s, maxChars)
	}
	return out
}

// truncateRunes cuts s to at most limit runes without splitting a
// multi-byte character.
func truncateRunes(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

// normalizeVector scales v to unit length in place and returns it. The
// zero vector comes back unchanged.
func normalizeVector(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v
}
