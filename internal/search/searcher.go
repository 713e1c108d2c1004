// Package search answers natural-language queries over indexed projects.
// The query is embedded once, then each eligible collection runs a vector
// leg and a keyword leg in parallel; reciprocal rank fusion combines the
// two rankings before results merge across collections.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/semindex/semindex/internal/config"
	"github.com/semindex/semindex/internal/embed"
	semerrors "github.com/semindex/semindex/internal/errors"
	"github.com/semindex/semindex/internal/store"
)

// Result is one search hit.
type Result struct {
	ID         string  `json:"id"`
	Content    string  `json:"content"`
	FilePath   string  `json:"file_path"`
	StartLine  int     `json:"start_line"`
	EndLine    int     `json:"end_line"`
	Language   string  `json:"language"`
	SymbolName string  `json:"symbol_name,omitempty"`
	Project    string  `json:"project"`
	Collection string  `json:"collection"`
	Score      float64 `json:"score"`
}

// Options tune one query.
type Options struct {
	// TopK caps the result count. Zero uses the configured default.
	TopK int

	// Project restricts the search to one project root. Empty searches
	// every collection built with the active provider.
	Project string
}

// Searcher runs hybrid queries against the store.
type Searcher struct {
	cfg      *config.Config
	store    *store.Store
	embedder embed.Embedder
	logger   *slog.Logger
}

// New creates a Searcher reading from st with queries embedded by embedder.
func New(cfg *config.Config, st *store.Store, embedder embed.Embedder) *Searcher {
	return &Searcher{
		cfg:      cfg,
		store:    st,
		embedder: embedder,
		logger:   slog.Default().With("component", "search"),
	}
}

// Search embeds query and returns the best-matching chunks.
func (s *Searcher) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, semerrors.New(semerrors.ErrCodeQueryEmpty, "search query is empty", nil)
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = s.cfg.Search.TopK
	}

	collections, err := s.eligibleCollections(opts.Project)
	if err != nil {
		return nil, err
	}
	if len(collections) == 0 {
		return nil, semerrors.New(semerrors.ErrCodeNoCollections,
			"no indexed projects match the active embedding provider", nil).
			WithSuggestion("index a project first, or re-index existing projects with the active provider")
	}

	vector, err := embed.EmbedQuery(ctx, s.embedder, query)
	if err != nil {
		return nil, semerrors.EmbedError("failed to embed query", err)
	}

	var (
		mu      sync.Mutex
		results []Result
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, coll := range collections {
		coll := coll
		g.Go(func() error {
			hits, err := s.searchCollection(gctx, coll, query, vector, topK)
			if err != nil {
				return err
			}
			mu.Lock()
			results = append(results, hits...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > topK {
		results = results[:topK]
	}
	normalize(results)
	return results, nil
}

// eligibleCollections picks the collections a query may touch. Collections
// built with a different provider are skipped with a warning; their vectors
// live in another space and similarity against them is meaningless.
func (s *Searcher) eligibleCollections(project string) ([]*store.Collection, error) {
	if project != "" {
		abs, err := filepath.Abs(project)
		if err != nil {
			return nil, semerrors.New(semerrors.ErrCodeInvalidPath,
				fmt.Sprintf("invalid project path: %s", project), err)
		}
		coll, err := s.store.Get(store.CollectionName(abs))
		if err != nil {
			return nil, semerrors.New(semerrors.ErrCodeProjectNotIndexed,
				fmt.Sprintf("project is not indexed: %s", abs), err).
				WithSuggestion("run an index of the project first")
		}
		if !s.providerMatches(coll) {
			return nil, semerrors.New(semerrors.ErrCodeProviderMismatch,
				fmt.Sprintf("project %s was indexed with provider %q but %q is active",
					abs, coll.Metadata().Provider, s.embedder.Name()), nil).
				WithSuggestion("re-index the project with force to rebuild with the active provider")
		}
		return []*store.Collection{coll}, nil
	}

	infos, err := s.store.List()
	if err != nil {
		return nil, err
	}
	var out []*store.Collection
	for _, info := range infos {
		coll, err := s.store.Get(info.Name)
		if err != nil {
			s.logger.Warn("failed to open collection", "collection", info.Name, "error", err)
			continue
		}
		if !s.providerMatches(coll) {
			s.logger.Warn("skipping collection built with another provider",
				"collection", info.Name,
				"collection_provider", coll.Metadata().Provider,
				"active_provider", s.embedder.Name())
			continue
		}
		out = append(out, coll)
	}
	return out, nil
}

func (s *Searcher) providerMatches(coll *store.Collection) bool {
	provider := coll.Metadata().Provider
	if provider == "" {
		provider = embed.ProviderOllama
	}
	return provider == s.embedder.Name()
}

// searchCollection runs both legs against one collection and fuses them.
// Either leg may fail without sinking the query; only both failing is an
// error.
func (s *Searcher) searchCollection(ctx context.Context, coll *store.Collection, query string, vector []float32, topK int) ([]Result, error) {
	// Both legs over-fetch so fusion has real rankings to work with.
	fetch := topK * 2
	if fetch < 10 {
		fetch = 10
	}

	var (
		vectorIDs  []string
		keywordIDs []string
		vectorErr  error
		keywordErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := coll.Search(gctx, vector, fetch)
		if err != nil {
			vectorErr = err
			return nil
		}
		for _, h := range hits {
			vectorIDs = append(vectorIDs, h.ID)
		}
		return nil
	})
	if s.cfg.Search.HybridEnabled() {
		g.Go(func() error {
			hits, err := coll.KeywordSearch(gctx, query, fetch)
			if err != nil {
				keywordErr = err
				return nil
			}
			for _, h := range hits {
				keywordIDs = append(keywordIDs, h.ID)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if vectorErr != nil && keywordErr != nil {
		return nil, semerrors.SearchError(
			fmt.Sprintf("both search legs failed for collection %s", coll.Name()), vectorErr)
	}
	if vectorErr != nil {
		s.logger.Warn("vector leg failed, keyword results only",
			"collection", coll.Name(), "error", vectorErr)
	}
	if keywordErr != nil {
		s.logger.Warn("keyword leg failed, vector results only",
			"collection", coll.Name(), "error", keywordErr)
	}

	fusedHits := fuseRRF(s.rrfConstant(), vectorIDs, keywordIDs)
	if len(fusedHits) > topK {
		fusedHits = fusedHits[:topK]
	}

	ids := make([]string, len(fusedHits))
	scores := make(map[string]float64, len(fusedHits))
	for i, f := range fusedHits {
		ids[i] = f.ID
		scores[f.ID] = f.Score
	}

	records, err := coll.Fetch(ctx, ids)
	if err != nil {
		return nil, err
	}

	meta := coll.Metadata()
	results := make([]Result, 0, len(records))
	for _, r := range records {
		results = append(results, Result{
			ID:         r.ID,
			Content:    r.Content,
			FilePath:   r.Meta.FilePath,
			StartLine:  r.Meta.StartLine,
			EndLine:    r.Meta.EndLine,
			Language:   r.Meta.Language,
			SymbolName: r.Meta.SymbolName,
			Project:    meta.ProjectPath,
			Collection: coll.Name(),
			Score:      scores[r.ID],
		})
	}
	return results, nil
}

func (s *Searcher) rrfConstant() int {
	if s.cfg.Search.RRFConstant > 0 {
		return s.cfg.Search.RRFConstant
	}
	return 60
}
