package embed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	semerrors "github.com/semindex/semindex/internal/errors"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "text-embedding-3-small"
	openAIDimensions     = 1536
)

// OpenAIEmbedder calls the OpenAI embeddings API with batched inputs.
type OpenAIEmbedder struct {
	http     *apiClient
	baseURL  string
	apiKey   string
	model    string
	dims     int
	maxChars int
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder builds an embedder for cfg, reading the API key from
// $OPENAI_API_KEY.
func NewOpenAIEmbedder(cfg Config) *OpenAIEmbedder {
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	dims := cfg.Dimensions
	if dims == 0 {
		dims = openAIDimensions
	}
	maxChars := cfg.MaxChars
	if maxChars == 0 {
		maxChars = DefaultMaxChars
	}

	return &OpenAIEmbedder{
		http:     newAPIClient(),
		baseURL:  defaultOpenAIBaseURL,
		apiKey:   os.Getenv("OPENAI_API_KEY"),
		model:    model,
		dims:     dims,
		maxChars: maxChars,
	}
}

func (e *OpenAIEmbedder) Name() string    { return ProviderOpenAI }
func (e *OpenAIEmbedder) Model() string   { return e.model }
func (e *OpenAIEmbedder) Dimensions() int { return e.dims }

// Available reports whether an API key is configured. No request is made.
func (e *OpenAIEmbedder) Available(_ context.Context) bool {
	return e.apiKey != ""
}

func (e *OpenAIEmbedder) Close() error {
	e.http.closeIdle()
	return nil
}

type openAIEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed sends all texts in a single request.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	hdr := http.Header{}
	hdr.Set("Authorization", "Bearer "+e.apiKey)
	body, err := e.http.postJSON(ctx, e.baseURL+"/embeddings", hdr, openAIEmbedRequest{
		Model: e.model,
		Input: sanitizeTexts(texts, e.maxChars),
	})
	if err != nil {
		return nil, wrapRemoteError("OpenAI", err)
	}

	var resp openAIEmbedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, semerrors.EmbedError("failed to decode OpenAI response", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, semerrors.EmbedError(
			fmt.Sprintf("OpenAI returned %d embeddings for %d inputs", len(resp.Data), len(texts)), nil)
	}

	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Embedding
	}
	return out, nil
}
