package embed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	semerrors "github.com/semindex/semindex/internal/errors"
)

const (
	defaultGoogleBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGoogleModel   = "text-embedding-004"
	googleDimensions     = 768
)

// GoogleEmbedder calls the Gemini batchEmbedContents API.
type GoogleEmbedder struct {
	http     *apiClient
	baseURL  string
	apiKey   string
	model    string
	dims     int
	maxChars int
}

var _ Embedder = (*GoogleEmbedder)(nil)

// NewGoogleEmbedder builds an embedder for cfg. The API key comes from
// $GOOGLE_API_KEY, falling back to $GEMINI_API_KEY.
func NewGoogleEmbedder(cfg Config) *GoogleEmbedder {
	key := os.Getenv("GOOGLE_API_KEY")
	if key == "" {
		key = os.Getenv("GEMINI_API_KEY")
	}

	model := cfg.Model
	if model == "" {
		model = defaultGoogleModel
	}
	dims := cfg.Dimensions
	if dims == 0 {
		dims = googleDimensions
	}
	maxChars := cfg.MaxChars
	if maxChars == 0 {
		maxChars = DefaultMaxChars
	}

	return &GoogleEmbedder{
		http:     newAPIClient(),
		baseURL:  defaultGoogleBaseURL,
		apiKey:   key,
		model:    model,
		dims:     dims,
		maxChars: maxChars,
	}
}

func (e *GoogleEmbedder) Name() string    { return ProviderGoogle }
func (e *GoogleEmbedder) Model() string   { return e.model }
func (e *GoogleEmbedder) Dimensions() int { return e.dims }

// Available reports whether an API key is configured. No request is made.
func (e *GoogleEmbedder) Available(_ context.Context) bool {
	return e.apiKey != ""
}

func (e *GoogleEmbedder) Close() error {
	e.http.closeIdle()
	return nil
}

type googleEmbedRequest struct {
	Requests []googleEmbedItem `json:"requests"`
}

type googleEmbedItem struct {
	Model   string        `json:"model"`
	Content googleContent `json:"content"`
}

type googleContent struct {
	Parts []googlePart `json:"parts"`
}

type googlePart struct {
	Text string `json:"text"`
}

type googleEmbedResponse struct {
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
}

// Embed sends all texts in a single batch request.
func (e *GoogleEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	items := make([]googleEmbedItem, len(texts))
	for i, t := range sanitizeTexts(texts, e.maxChars) {
		items[i] = googleEmbedItem{
			Model:   "models/" + e.model,
			Content: googleContent{Parts: []googlePart{{Text: t}}},
		}
	}

	url := fmt.Sprintf("%s/models/%s:batchEmbedContents?key=%s", e.baseURL, e.model, e.apiKey)
	body, err := e.http.postJSON(ctx, url, nil, googleEmbedRequest{Requests: items})
	if err != nil {
		return nil, wrapRemoteError("Google", err)
	}

	var resp googleEmbedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, semerrors.EmbedError("failed to decode Google response", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, semerrors.EmbedError(
			fmt.Sprintf("Google returned %d embeddings for %d inputs", len(resp.Embeddings), len(texts)), nil)
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, em := range resp.Embeddings {
		out[i] = em.Values
	}
	return out, nil
}
