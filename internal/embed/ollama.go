package embed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	semerrors "github.com/semindex/semindex/internal/errors"
)

const (
	defaultOllamaHost  = "http://localhost:11434"
	defaultOllamaModel = "nomic-embed-text"
	ollamaDimensions   = 768
)

// OllamaEmbedder talks to a local Ollama server through its /api/embed
// endpoint, one text per request.
type OllamaEmbedder struct {
	http     *apiClient
	host     string
	model    string
	dims     int
	maxChars int
}

var _ Embedder = (*OllamaEmbedder)(nil)

// NewOllamaEmbedder builds an embedder for cfg. The host comes from
// cfg.OllamaHost, then $OLLAMA_HOST, then localhost:11434. No connection
// is made until Embed or Available is called.
func NewOllamaEmbedder(cfg Config) *OllamaEmbedder {
	host := cfg.OllamaHost
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	if host == "" {
		host = defaultOllamaHost
	}
	host = strings.TrimRight(host, "/")
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}

	model := cfg.Model
	if model == "" {
		model = defaultOllamaModel
	}
	dims := cfg.Dimensions
	if dims == 0 {
		dims = ollamaDimensions
	}
	maxChars := cfg.MaxChars
	if maxChars == 0 {
		maxChars = DefaultMaxChars
	}

	return &OllamaEmbedder{
		http:     newAPIClient(),
		host:     host,
		model:    model,
		dims:     dims,
		maxChars: maxChars,
	}
}

func (e *OllamaEmbedder) Name() string    { return ProviderOllama }
func (e *OllamaEmbedder) Model() string   { return e.model }
func (e *OllamaEmbedder) Dimensions() int { return e.dims }

// Available reports whether the Ollama server answers on its root URL.
func (e *OllamaEmbedder) Available(ctx context.Context) bool {
	return ollamaReachable(ctx, e.http, e.host)
}

func (e *OllamaEmbedder) Close() error {
	e.http.closeIdle()
	return nil
}

// Embed sends one request per text.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	clean := sanitizeTexts(texts, e.maxChars)
	out := make([][]float32, len(clean))
	for i, text := range clean {
		vec, err := e.embedOne(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// embedOne retries with progressively shorter input when the model reports
// its context length exceeded, halving down to a floor of minChars.
func (e *OllamaEmbedder) embedOne(ctx context.Context, text string) ([]float32, error) {
	limit := e.maxChars
	for {
		vec, err := e.requestEmbedding(ctx, truncateRunes(text, limit))
		if err == nil {
			return vec, nil
		}

		var he *httpError
		if errors.As(err, &he) && he.Status == http.StatusBadRequest && strings.Contains(he.Body, "context length") {
			limit /= 2
			if limit >= minChars {
				slog.Debug("input exceeds model context, truncating",
					slog.String("model", e.model),
					slog.Int("limit", limit))
				continue
			}
			// One final attempt at the floor; whatever happens is final.
			vec, err = e.requestEmbedding(ctx, truncateRunes(text, minChars))
			if err != nil {
				return nil, e.wrapError(err)
			}
			return vec, nil
		}
		return nil, e.wrapError(err)
	}
}

func (e *OllamaEmbedder) requestEmbedding(ctx context.Context, text string) ([]float32, error) {
	body, err := e.http.postJSON(ctx, e.host+"/api/embed", nil, ollamaEmbedRequest{Model: e.model, Input: text})
	if err != nil {
		return nil, err
	}

	var resp ollamaEmbedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, semerrors.EmbedError("failed to decode ollama response", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0]) == 0 {
		return nil, semerrors.New(semerrors.ErrCodeModelMissing,
			fmt.Sprintf("ollama returned an empty embedding for model %q", e.model), nil).
			WithSuggestion(fmt.Sprintf("Pull the model first: ollama pull %s", e.model))
	}
	return resp.Embeddings[0], nil
}

// wrapError classifies a failed request: an HTTP error means the server
// rejected it, anything else means the server is not reachable. Context
// cancellation passes through untouched.
func (e *OllamaEmbedder) wrapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var se *semerrors.SemError
	if errors.As(err, &se) {
		return err
	}
	var he *httpError
	if errors.As(err, &he) {
		return semerrors.EmbedError(fmt.Sprintf("ollama rejected the request (status %d)", he.Status), err)
	}
	return semerrors.New(semerrors.ErrCodeProviderUnavailable, "ollama is not running", err).
		WithSuggestion("Start it with: ollama serve").
		WithDetail("host", e.host)
}

// ollamaReachable probes the server root, which answers 200 when Ollama is
// up.
func ollamaReachable(ctx context.Context, c *apiClient, host string) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
