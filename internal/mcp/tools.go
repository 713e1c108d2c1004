package mcp

import (
	"github.com/semindex/semindex/internal/telemetry"
	"github.com/semindex/semindex/internal/watch"
)

// IndexProjectInput defines the input schema for the index_project tool.
type IndexProjectInput struct {
	Path  string `json:"path" jsonschema:"absolute path of the project directory to index"`
	Force bool   `json:"force,omitempty" jsonschema:"drop the existing index and rebuild from scratch"`
}

// IndexProjectOutput defines the output schema for index_project and
// reindex_project.
type IndexProjectOutput struct {
	Collection    string `json:"collection" jsonschema:"collection name the project indexes into"`
	FilesScanned  int    `json:"files_scanned"`
	FilesIndexed  int    `json:"files_indexed"`
	FilesSkipped  int    `json:"files_skipped" jsonschema:"files skipped because their content was unchanged"`
	FilesRemoved  int    `json:"files_removed" jsonschema:"files whose chunks were dropped because the file vanished"`
	ChunksCreated int    `json:"chunks_created"`
	DurationMS    int64  `json:"duration_ms"`
}

// ReindexProjectInput defines the input schema for the reindex_project tool.
type ReindexProjectInput struct {
	Path string `json:"path" jsonschema:"absolute path of the project directory to rebuild"`
}

// SearchCodeInput defines the input schema for the search_code tool.
type SearchCodeInput struct {
	Query   string `json:"query" jsonschema:"natural-language description of the code to find"`
	Project string `json:"project,omitempty" jsonschema:"restrict the search to this project root"`
	TopK    int    `json:"top_k,omitempty" jsonschema:"maximum number of results, default 5"`
}

// SearchResultOutput is one search hit.
type SearchResultOutput struct {
	FilePath   string  `json:"file_path" jsonschema:"path relative to the project root"`
	StartLine  int     `json:"start_line"`
	EndLine    int     `json:"end_line"`
	Language   string  `json:"language,omitempty"`
	SymbolName string  `json:"symbol_name,omitempty" jsonschema:"function or class the chunk covers"`
	Project    string  `json:"project" jsonschema:"absolute project root the hit belongs to"`
	Score      float64 `json:"score" jsonschema:"relevance score, 1.0 is the best hit"`
	Content    string  `json:"content"`
}

// SearchCodeOutput defines the output schema for the search_code tool.
type SearchCodeOutput struct {
	Results []SearchResultOutput `json:"results"`
}

// ListProjectsInput defines the input schema for list_indexed_projects.
type ListProjectsInput struct{}

// ProjectOutput describes one indexed project.
type ProjectOutput struct {
	Project    string `json:"project" jsonschema:"absolute project root"`
	Collection string `json:"collection"`
	Provider   string `json:"provider"`
	Model      string `json:"model,omitempty"`
	Chunks     int    `json:"chunks"`
	Watched    bool   `json:"watched"`
}

// ListProjectsOutput defines the output schema for list_indexed_projects.
type ListProjectsOutput struct {
	Projects []ProjectOutput `json:"projects"`
}

// EmbeddingStatusInput defines the input schema for embedding_status.
type EmbeddingStatusInput struct{}

// EmbeddingStatusOutput defines the output schema for embedding_status.
type EmbeddingStatusOutput struct {
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions"`
	Available  bool   `json:"available" jsonschema:"whether the provider answers right now"`
	Cached     bool   `json:"cached" jsonschema:"whether an embedding cache is active"`
}

// WatchProjectInput defines the input schema for the watch_project tool.
type WatchProjectInput struct {
	Path   string `json:"path,omitempty" jsonschema:"project root, required for start and stop"`
	Action string `json:"action" jsonschema:"one of start, stop, status"`
}

// WatchProjectOutput defines the output schema for the watch_project tool.
type WatchProjectOutput struct {
	Action  string       `json:"action"`
	Watched []watch.Info `json:"watched" jsonschema:"currently watched projects with queued change counts"`
}

// ChunkContextInput defines the input schema for get_chunk_context.
type ChunkContextInput struct {
	FilePath      string `json:"file_path" jsonschema:"absolute path of the source file"`
	StartLine     int    `json:"start_line" jsonschema:"1-based first line of the chunk"`
	EndLine       int    `json:"end_line" jsonschema:"1-based last line of the chunk"`
	ContextBefore *int   `json:"context_before,omitempty" jsonschema:"lines of context above the chunk, default 15"`
	ContextAfter  *int   `json:"context_after,omitempty" jsonschema:"lines of context below the chunk, default 15"`
}

// ChunkContextOutput defines the output schema for get_chunk_context.
type ChunkContextOutput struct {
	Content         string `json:"content" jsonschema:"chunk text with surrounding lines and chunk markers"`
	ActualStartLine int    `json:"actual_start_line"`
	ActualEndLine   int    `json:"actual_end_line"`
	ChunkStartLine  int    `json:"chunk_start_line"`
	ChunkEndLine    int    `json:"chunk_end_line"`
	FilePath        string `json:"file_path"`
}

// UsageStatsInput defines the input schema for usage_stats.
type UsageStatsInput struct{}

// UsageStatsOutput defines the output schema for usage_stats.
type UsageStatsOutput struct {
	Searches       int                 `json:"searches"`
	TokensReturned int64               `json:"tokens_returned"`
	TokensSaved    int64               `json:"tokens_saved"`
	CostSavedUSD   float64             `json:"cost_saved_usd" jsonschema:"savings priced at sonnet input rates"`
	Trend          []telemetry.DayStat `json:"trend" jsonschema:"per-day savings over the last seven days"`
}
