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
	defaultVoyageBaseURL = "https://api.voyageai.com/v1"
	defaultVoyageModel   = "voyage-3-lite"
	voyageDimensions     = 512
)

// VoyageEmbedder calls the Voyage AI embeddings API with batched inputs.
type VoyageEmbedder struct {
	http     *apiClient
	baseURL  string
	apiKey   string
	model    string
	dims     int
	maxChars int
}

var _ Embedder = (*VoyageEmbedder)(nil)

// NewVoyageEmbedder builds an embedder for cfg, reading the API key from
// $VOYAGE_API_KEY.
func NewVoyageEmbedder(cfg Config) *VoyageEmbedder {
	model := cfg.Model
	if model == "" {
		model = defaultVoyageModel
	}
	dims := cfg.Dimensions
	if dims == 0 {
		dims = voyageDimensions
	}
	maxChars := cfg.MaxChars
	if maxChars == 0 {
		maxChars = DefaultMaxChars
	}

	return &VoyageEmbedder{
		http:     newAPIClient(),
		baseURL:  defaultVoyageBaseURL,
		apiKey:   os.Getenv("VOYAGE_API_KEY"),
		model:    model,
		dims:     dims,
		maxChars: maxChars,
	}
}

func (e *VoyageEmbedder) Name() string    { return ProviderVoyage }
func (e *VoyageEmbedder) Model() string   { return e.model }
func (e *VoyageEmbedder) Dimensions() int { return e.dims }

// Available reports whether an API key is configured. No request is made.
func (e *VoyageEmbedder) Available(_ context.Context) bool {
	return e.apiKey != ""
}

func (e *VoyageEmbedder) Close() error {
	e.http.closeIdle()
	return nil
}

type voyageEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type voyageEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed sends all texts in a single request.
func (e *VoyageEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	hdr := http.Header{}
	hdr.Set("Authorization", "Bearer "+e.apiKey)
	body, err := e.http.postJSON(ctx, e.baseURL+"/embeddings", hdr, voyageEmbedRequest{
		Model: e.model,
		Input: sanitizeTexts(texts, e.maxChars),
	})
	if err != nil {
		return nil, wrapRemoteError("Voyage", err)
	}

	var resp voyageEmbedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, semerrors.EmbedError("failed to decode Voyage response", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, semerrors.EmbedError(
			fmt.Sprintf("Voyage returned %d embeddings for %d inputs", len(resp.Data), len(texts)), nil)
	}

	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Embedding
	}
	return out, nil
}
