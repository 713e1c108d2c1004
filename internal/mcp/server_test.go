package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semindex/semindex/internal/config"
	"github.com/semindex/semindex/internal/embed"
	"github.com/semindex/semindex/internal/store"
	"github.com/semindex/semindex/internal/telemetry"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.NewConfig()
	cfg.Storage.Home = t.TempDir()

	st, err := store.Open(filepath.Join(cfg.DataDir(), "collections"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	tracker, err := telemetry.Open(filepath.Join(cfg.DataDir(), "usage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { tracker.Close() })

	s, err := NewServer(cfg, st, embed.NewStaticEmbedder(), WithTracker(tracker))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newIndexedProject(t *testing.T, s *Server) string {
	t.Helper()
	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, "auth.py"),
		[]byte("def authenticate_user(token):\n    return verify_token(token)\n"), 0o644))

	_, out, err := s.handleIndexProject(context.Background(), nil,
		IndexProjectInput{Path: project})
	require.NoError(t, err)
	require.Greater(t, out.ChunksCreated, 0)
	return project
}

func TestServerRequiresDependencies(t *testing.T) {
	_, err := NewServer(nil, nil, nil)
	assert.Error(t, err)
}

func TestIndexProjectTool(t *testing.T) {
	s := newTestServer(t)
	project := newIndexedProject(t, s)

	// Second run skips unchanged files.
	_, out, err := s.handleIndexProject(context.Background(), nil,
		IndexProjectInput{Path: project})
	require.NoError(t, err)
	assert.Equal(t, 1, out.FilesSkipped)
	assert.Equal(t, 0, out.ChunksCreated)

	// Force rebuilds everything.
	_, out, err = s.handleReindexProject(context.Background(), nil,
		ReindexProjectInput{Path: project})
	require.NoError(t, err)
	assert.Equal(t, 1, out.FilesIndexed)
}

func TestIndexProjectToolValidation(t *testing.T) {
	s := newTestServer(t)

	_, _, err := s.handleIndexProject(context.Background(), nil, IndexProjectInput{})
	require.Error(t, err)
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)

	_, _, err = s.handleIndexProject(context.Background(), nil,
		IndexProjectInput{Path: "/does/not/exist"})
	require.Error(t, err)
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeFileNotFound, mcpErr.Code)
}

func TestSearchCodeTool(t *testing.T) {
	s := newTestServer(t)
	project := newIndexedProject(t, s)

	_, out, err := s.handleSearchCode(context.Background(), nil,
		SearchCodeInput{Query: "authenticate user token"})
	require.NoError(t, err)
	require.NotEmpty(t, out.Results)
	assert.Equal(t, "auth.py", out.Results[0].FilePath)
	assert.Equal(t, project, out.Results[0].Project)

	// The search was recorded against the usage tracker.
	_, stats, err := s.handleUsageStats(context.Background(), nil, UsageStatsInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Searches)
}

func TestSearchCodeToolEmptyQuery(t *testing.T) {
	s := newTestServer(t)

	_, _, err := s.handleSearchCode(context.Background(), nil, SearchCodeInput{Query: "  "})
	require.Error(t, err)
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)
}

func TestSearchCodeToolNoCollections(t *testing.T) {
	s := newTestServer(t)

	_, _, err := s.handleSearchCode(context.Background(), nil,
		SearchCodeInput{Query: "anything"})
	require.Error(t, err)
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeProjectNotIndexed, mcpErr.Code)
}

func TestListProjectsTool(t *testing.T) {
	s := newTestServer(t)
	project := newIndexedProject(t, s)

	_, out, err := s.handleListProjects(context.Background(), nil, ListProjectsInput{})
	require.NoError(t, err)
	require.Len(t, out.Projects, 1)

	p := out.Projects[0]
	assert.Equal(t, project, p.Project)
	assert.Equal(t, "static", p.Provider)
	assert.Greater(t, p.Chunks, 0)
	assert.False(t, p.Watched)
}

func TestEmbeddingStatusTool(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.handleEmbeddingStatus(context.Background(), nil, EmbeddingStatusInput{})
	require.NoError(t, err)
	assert.Equal(t, "static", out.Provider)
	assert.True(t, out.Available)
	assert.Greater(t, out.Dimensions, 0)
}

func TestWatchProjectTool(t *testing.T) {
	s := newTestServer(t)
	project := newIndexedProject(t, s)
	ctx := context.Background()

	_, out, err := s.handleWatchProject(ctx, nil, WatchProjectInput{Action: "status"})
	require.NoError(t, err)
	assert.Empty(t, out.Watched)

	_, out, err = s.handleWatchProject(ctx, nil, WatchProjectInput{Action: "start", Path: project})
	require.NoError(t, err)
	require.Len(t, out.Watched, 1)
	assert.Equal(t, project, out.Watched[0].Root)

	// Starting twice is an error.
	_, _, err = s.handleWatchProject(ctx, nil, WatchProjectInput{Action: "start", Path: project})
	require.Error(t, err)

	_, out, err = s.handleWatchProject(ctx, nil, WatchProjectInput{Action: "stop", Path: project})
	require.NoError(t, err)
	assert.Empty(t, out.Watched)
}

func TestWatchProjectToolValidation(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, _, err := s.handleWatchProject(ctx, nil, WatchProjectInput{Action: "restart"})
	require.Error(t, err)

	_, _, err = s.handleWatchProject(ctx, nil, WatchProjectInput{Action: "start"})
	require.Error(t, err)

	// Watching an unindexed project is rejected.
	_, _, err = s.handleWatchProject(ctx, nil, WatchProjectInput{Action: "start", Path: t.TempDir()})
	require.Error(t, err)
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeProjectNotIndexed, mcpErr.Code)
}

func TestChunkContextTool(t *testing.T) {
	s := newTestServer(t)

	path := filepath.Join(t.TempDir(), "code.py")
	require.NoError(t, os.WriteFile(path,
		[]byte("a = 1\nb = 2\nc = 3\nd = 4\ne = 5\n"), 0o644))

	one := 1
	_, out, err := s.handleChunkContext(context.Background(), nil, ChunkContextInput{
		FilePath:      path,
		StartLine:     3,
		EndLine:       3,
		ContextBefore: &one,
		ContextAfter:  &one,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, out.ActualStartLine)
	assert.Equal(t, 4, out.ActualEndLine)
	assert.Contains(t, out.Content, ">>> CHUNK START >>> c = 3 <<< CHUNK END <<<")
}

func TestChunkContextToolMissingFile(t *testing.T) {
	s := newTestServer(t)

	_, _, err := s.handleChunkContext(context.Background(), nil, ChunkContextInput{
		FilePath:  filepath.Join(t.TempDir(), "nope.py"),
		StartLine: 1,
		EndLine:   2,
	})
	require.Error(t, err)
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeFileNotFound, mcpErr.Code)
}

func TestUsageStatsToolWithoutTracker(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Storage.Home = t.TempDir()
	st, err := store.Open(filepath.Join(cfg.DataDir(), "collections"))
	require.NoError(t, err)
	defer st.Close()

	s, err := NewServer(cfg, st, embed.NewStaticEmbedder())
	require.NoError(t, err)
	defer s.Close()

	_, out, err := s.handleUsageStats(context.Background(), nil, UsageStatsInput{})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Searches)
	assert.NotNil(t, out.Trend)
}
