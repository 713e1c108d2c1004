package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKeywordIndex(t *testing.T) *KeywordIndex {
	t.Helper()
	idx, err := NewKeywordIndex("")
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestKeywordIndexSearch(t *testing.T) {
	idx := newTestKeywordIndex(t)
	ctx := context.Background()

	err := idx.Index(ctx,
		[]string{"c1", "c2", "c3"},
		[]string{
			"func authenticateUser(token string) error",
			"func renderTemplate(name string) ([]byte, error)",
			"type UserSession struct { Token string }",
		},
	)
	require.NoError(t, err)

	hits, err := idx.Search(ctx, "user authentication", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "c1", hits[0].ID)
}

func TestKeywordIndexSplitsIdentifiers(t *testing.T) {
	idx := newTestKeywordIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Index(ctx,
		[]string{"c1"},
		[]string{"func parse_config_file(path string)"},
	))

	hits, err := idx.Search(ctx, "config", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].ID)
}

func TestKeywordIndexBlankQuery(t *testing.T) {
	idx := newTestKeywordIndex(t)

	hits, err := idx.Search(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestKeywordIndexDelete(t *testing.T) {
	idx := newTestKeywordIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Index(ctx,
		[]string{"c1", "c2"},
		[]string{"database connection pool", "database migration runner"},
	))
	require.NoError(t, idx.Delete(ctx, []string{"c1"}))

	n, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hits, err := idx.Search(ctx, "database", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c2", hits[0].ID)
}

func TestKeywordIndexReplaceByID(t *testing.T) {
	idx := newTestKeywordIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Index(ctx, []string{"c1"}, []string{"websocket handler"}))
	require.NoError(t, idx.Index(ctx, []string{"c1"}, []string{"graphql resolver"}))

	n, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hits, err := idx.Search(ctx, "websocket", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestKeywordIndexClosedErrors(t *testing.T) {
	idx, err := NewKeywordIndex("")
	require.NoError(t, err)
	require.NoError(t, idx.Close())
	require.NoError(t, idx.Close())

	assert.Error(t, idx.Index(context.Background(), []string{"a"}, []string{"x"}))
	_, err = idx.Search(context.Background(), "x", 5)
	assert.Error(t, err)
}
