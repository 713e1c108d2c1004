package mcp

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/semindex/semindex/internal/chunk"
	"github.com/semindex/semindex/internal/config"
	"github.com/semindex/semindex/internal/embed"
	"github.com/semindex/semindex/internal/index"
	"github.com/semindex/semindex/internal/search"
	"github.com/semindex/semindex/internal/store"
	"github.com/semindex/semindex/internal/telemetry"
	"github.com/semindex/semindex/internal/watch"
	"github.com/semindex/semindex/pkg/version"
)

// Server exposes index maintenance, search, watches, and usage stats as MCP
// tools over stdio.
type Server struct {
	mcp        *mcp.Server
	cfg        *config.Config
	store      *store.Store
	embedder   embed.Embedder
	maintainer *index.Maintainer
	searcher   *search.Searcher
	watcher    *watch.Coordinator
	tracker    *telemetry.Tracker
	logger     *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithTracker enables usage tracking. Without it usage_stats reports zeros
// and searches go unrecorded.
func WithTracker(tr *telemetry.Tracker) Option {
	return func(s *Server) { s.tracker = tr }
}

// NewServer wires a Server around an open store and resolved embedder.
func NewServer(cfg *config.Config, st *store.Store, embedder embed.Embedder, opts ...Option) (*Server, error) {
	if st == nil {
		return nil, errors.New("store is required")
	}
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}

	maintainer := index.New(cfg, st, embedder)
	s := &Server{
		cfg:        cfg,
		store:      st,
		embedder:   embedder,
		maintainer: maintainer,
		searcher:   search.New(cfg, st, embedder),
		watcher:    watch.NewCoordinator(cfg, maintainer),
		logger:     slog.Default().With("component", "mcp"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "semindex",
			Version: version.Version,
		},
		nil,
	)
	s.registerTools()
	return s, nil
}

// Serve runs the server over stdio until ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("MCP server starting", "version", version.Version, "provider", s.embedder.Name())
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// Close stops the watcher. The store and tracker belong to the caller.
func (s *Server) Close() error {
	return s.watcher.Close()
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "index_project",
		Description: "Index a project directory for semantic code search. Unchanged files are skipped, so re-running is cheap. Use force to rebuild from scratch.",
	}, s.handleIndexProject)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "reindex_project",
		Description: "Drop a project's index and rebuild it from scratch. Use after switching embedding providers or when the index looks stale.",
	}, s.handleReindexProject)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search_code",
		Description: "Search indexed projects by meaning, not just keywords. Returns the most relevant code chunks with file paths and line numbers. Far cheaper than reading whole files.",
	}, s.handleSearchCode)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_indexed_projects",
		Description: "List every indexed project with its chunk count, embedding provider, and watch state.",
	}, s.handleListProjects)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "embedding_status",
		Description: "Report the active embedding provider, model, dimensions, and whether the provider is reachable right now.",
	}, s.handleEmbeddingStatus)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "watch_project",
		Description: "Start, stop, or inspect live watching of a project. Watched projects re-index changed files automatically after a quiet period.",
	}, s.handleWatchProject)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_chunk_context",
		Description: "Fetch a code chunk with surrounding lines from the file on disk. Use after search_code when a hit needs more context.",
	}, s.handleChunkContext)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "usage_stats",
		Description: "Show how many tokens semantic search has saved compared to reading whole files, with a 7-day trend.",
	}, s.handleUsageStats)

	s.logger.Debug("MCP tools registered", "count", 8)
}

func (s *Server) handleIndexProject(ctx context.Context, _ *mcp.CallToolRequest, input IndexProjectInput) (
	*mcp.CallToolResult, IndexProjectOutput, error,
) {
	if input.Path == "" {
		return nil, IndexProjectOutput{}, NewInvalidParamsError("path parameter is required")
	}
	stats, err := s.maintainer.IndexProject(ctx, input.Path, input.Force)
	if err != nil {
		return nil, IndexProjectOutput{}, MapError(err)
	}
	return nil, toIndexOutput(stats), nil
}

func (s *Server) handleReindexProject(ctx context.Context, _ *mcp.CallToolRequest, input ReindexProjectInput) (
	*mcp.CallToolResult, IndexProjectOutput, error,
) {
	if input.Path == "" {
		return nil, IndexProjectOutput{}, NewInvalidParamsError("path parameter is required")
	}
	stats, err := s.maintainer.IndexProject(ctx, input.Path, true)
	if err != nil {
		return nil, IndexProjectOutput{}, MapError(err)
	}
	return nil, toIndexOutput(stats), nil
}

func (s *Server) handleSearchCode(ctx context.Context, _ *mcp.CallToolRequest, input SearchCodeInput) (
	*mcp.CallToolResult, SearchCodeOutput, error,
) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchCodeOutput{}, NewInvalidParamsError("query parameter is required")
	}

	results, err := s.searcher.Search(ctx, input.Query, search.Options{
		TopK:    input.TopK,
		Project: input.Project,
	})
	if err != nil {
		return nil, SearchCodeOutput{}, MapError(err)
	}

	out := SearchCodeOutput{Results: make([]SearchResultOutput, 0, len(results))}
	for _, r := range results {
		out.Results = append(out.Results, SearchResultOutput{
			FilePath:   r.FilePath,
			StartLine:  r.StartLine,
			EndLine:    r.EndLine,
			Language:   r.Language,
			SymbolName: r.SymbolName,
			Project:    r.Project,
			Score:      r.Score,
			Content:    r.Content,
		})
	}

	s.recordSearch(ctx, input, results)
	return nil, out, nil
}

// recordSearch logs token savings for one query. Failures only warn; a
// telemetry hiccup must never break a search.
func (s *Server) recordSearch(ctx context.Context, input SearchCodeInput, results []search.Result) {
	if s.tracker == nil {
		return
	}

	var resultChars int64
	for _, r := range results {
		resultChars += int64(len(r.Content))
	}

	baseline := input.Project
	if baseline == "" && len(results) > 0 {
		baseline = results[0].Project
	}
	fullReadChars := telemetry.EstimateFullReadChars(baseline)

	if err := s.tracker.RecordSearch(ctx, baseline, input.Query, resultChars, fullReadChars); err != nil {
		s.logger.Warn("failed to record search usage", "error", err)
	}
}

func (s *Server) handleListProjects(_ context.Context, _ *mcp.CallToolRequest, _ ListProjectsInput) (
	*mcp.CallToolResult, ListProjectsOutput, error,
) {
	infos, err := s.store.List()
	if err != nil {
		return nil, ListProjectsOutput{}, MapError(err)
	}

	out := ListProjectsOutput{Projects: make([]ProjectOutput, 0, len(infos))}
	for _, info := range infos {
		out.Projects = append(out.Projects, ProjectOutput{
			Project:    info.Meta.ProjectPath,
			Collection: info.Name,
			Provider:   info.Meta.Provider,
			Model:      info.Meta.Model,
			Chunks:     info.Chunks,
			Watched:    s.watcher.IsWatching(info.Meta.ProjectPath),
		})
	}
	return nil, out, nil
}

func (s *Server) handleEmbeddingStatus(ctx context.Context, _ *mcp.CallToolRequest, _ EmbeddingStatusInput) (
	*mcp.CallToolResult, EmbeddingStatusOutput, error,
) {
	info := embed.GetInfo(ctx, s.embedder)
	return nil, EmbeddingStatusOutput{
		Provider:   info.Provider,
		Model:      info.Model,
		Dimensions: info.Dimensions,
		Available:  info.Available,
		Cached:     info.Cached,
	}, nil
}

func (s *Server) handleWatchProject(_ context.Context, _ *mcp.CallToolRequest, input WatchProjectInput) (
	*mcp.CallToolResult, WatchProjectOutput, error,
) {
	switch input.Action {
	case "start":
		if input.Path == "" {
			return nil, WatchProjectOutput{}, NewInvalidParamsError("path parameter is required for start")
		}
		// Watching an unindexed project would silently do nothing useful.
		abs, err := filepath.Abs(input.Path)
		if err != nil {
			return nil, WatchProjectOutput{}, NewInvalidParamsError("invalid path: " + input.Path)
		}
		if _, err := s.store.Get(store.CollectionName(abs)); err != nil {
			return nil, WatchProjectOutput{}, MapError(err)
		}
		if err := s.watcher.Watch(abs); err != nil {
			return nil, WatchProjectOutput{}, MapError(err)
		}
	case "stop":
		if input.Path == "" {
			return nil, WatchProjectOutput{}, NewInvalidParamsError("path parameter is required for stop")
		}
		if err := s.watcher.Unwatch(input.Path); err != nil {
			return nil, WatchProjectOutput{}, MapError(err)
		}
	case "status":
		// Listing alone below.
	default:
		return nil, WatchProjectOutput{}, NewInvalidParamsError("action must be start, stop, or status")
	}

	watched := s.watcher.Watched()
	if watched == nil {
		watched = []watch.Info{}
	}
	return nil, WatchProjectOutput{Action: input.Action, Watched: watched}, nil
}

func (s *Server) handleChunkContext(_ context.Context, _ *mcp.CallToolRequest, input ChunkContextInput) (
	*mcp.CallToolResult, ChunkContextOutput, error,
) {
	if input.FilePath == "" {
		return nil, ChunkContextOutput{}, NewInvalidParamsError("file_path parameter is required")
	}

	before, after := -1, -1
	if input.ContextBefore != nil {
		before = *input.ContextBefore
	}
	if input.ContextAfter != nil {
		after = *input.ContextAfter
	}

	c, err := chunk.ExpandContext(input.FilePath, input.StartLine, input.EndLine, before, after)
	if err != nil {
		return nil, ChunkContextOutput{}, MapError(err)
	}
	return nil, ChunkContextOutput{
		Content:         c.Content,
		ActualStartLine: c.ActualStartLine,
		ActualEndLine:   c.ActualEndLine,
		ChunkStartLine:  c.ChunkStartLine,
		ChunkEndLine:    c.ChunkEndLine,
		FilePath:        c.FilePath,
	}, nil
}

func (s *Server) handleUsageStats(ctx context.Context, _ *mcp.CallToolRequest, _ UsageStatsInput) (
	*mcp.CallToolResult, UsageStatsOutput, error,
) {
	if s.tracker == nil {
		return nil, UsageStatsOutput{Trend: []telemetry.DayStat{}}, nil
	}
	stats, err := s.tracker.Stats(ctx)
	if err != nil {
		return nil, UsageStatsOutput{}, MapError(err)
	}
	trend := stats.Trend
	if trend == nil {
		trend = []telemetry.DayStat{}
	}
	return nil, UsageStatsOutput{
		Searches:       stats.Searches,
		TokensReturned: stats.TokensReturned,
		TokensSaved:    stats.TokensSaved,
		CostSavedUSD:   stats.CostSavedUSD,
		Trend:          trend,
	}, nil
}

func toIndexOutput(stats *index.Stats) IndexProjectOutput {
	return IndexProjectOutput{
		Collection:    stats.Collection,
		FilesScanned:  stats.FilesScanned,
		FilesIndexed:  stats.FilesIndexed,
		FilesSkipped:  stats.FilesSkipped,
		FilesRemoved:  stats.FilesRemoved,
		ChunksCreated: stats.ChunksCreated,
		DurationMS:    stats.Duration.Milliseconds(),
	}
}
