package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testMeta() CollectionMeta {
	return CollectionMeta{
		ProjectPath: "/home/user/proj",
		Provider:    "ollama",
		Model:       "nomic-embed-text",
		Dimensions:  3,
	}
}

func testRecord(id, relPath, content string, vec []float32) Record {
	return Record{
		ID:      id,
		Content: content,
		Meta: Metadata{
			FilePath:  relPath,
			StartLine: 1,
			EndLine:   10,
			Language:  "python",
			FileHash:  "hash-" + relPath,
		},
		Vector: vec,
	}
}

func TestStoreGetOrCreate(t *testing.T) {
	s := newTestStore(t)

	c, err := s.GetOrCreate("proj_abc", testMeta())
	require.NoError(t, err)
	assert.Equal(t, "proj_abc", c.Name())
	assert.Equal(t, "ollama", c.Metadata().Provider)

	// Second call returns the same collection with the original meta.
	other := testMeta()
	other.Provider = "lmstudio"
	c2, err := s.GetOrCreate("proj_abc", other)
	require.NoError(t, err)
	assert.Same(t, c, c2)
	assert.Equal(t, "ollama", c2.Metadata().Provider)
}

func TestStoreGetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get("nope")
	assert.Error(t, err)
}

func TestCollectionUpsertAndSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c, err := s.GetOrCreate("proj", testMeta())
	require.NoError(t, err)

	err = c.Upsert(ctx, []Record{
		testRecord("f1_0", "app.py", "def authenticate(token):", []float32{1, 0, 0}),
		testRecord("f1_1", "app.py", "def render(template):", []float32{0, 1, 0}),
	})
	require.NoError(t, err)

	n, err := c.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	hits, err := c.Search(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "f1_0", hits[0].ID)

	kw, err := c.KeywordSearch(ctx, "authenticate", 5)
	require.NoError(t, err)
	require.Len(t, kw, 1)
	assert.Equal(t, "f1_0", kw[0].ID)
}

func TestCollectionFetch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c, err := s.GetOrCreate("proj", testMeta())
	require.NoError(t, err)
	require.NoError(t, c.Upsert(ctx, []Record{
		testRecord("f1_0", "app.py", "print('hi')", []float32{1, 0, 0}),
	}))

	records, err := c.Fetch(ctx, []string{"f1_0", "missing"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "print('hi')", records[0].Content)
	assert.Equal(t, "app.py", records[0].Meta.FilePath)
	assert.Equal(t, "/home/user/proj", records[0].Meta.ProjectPath)

	r, err := c.GetChunk(ctx, "f1_0")
	require.NoError(t, err)
	assert.Equal(t, "f1_0", r.ID)

	_, err = c.GetChunk(ctx, "missing")
	assert.Error(t, err)
}

func TestCollectionDeleteByFile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c, err := s.GetOrCreate("proj", testMeta())
	require.NoError(t, err)
	require.NoError(t, c.Upsert(ctx, []Record{
		testRecord("f1_0", "app.py", "one", []float32{1, 0, 0}),
		testRecord("f1_1", "app.py", "two", []float32{0, 1, 0}),
		testRecord("f2_0", "lib.py", "three", []float32{0, 0, 1}),
	}))

	removed, err := c.DeleteByFile(ctx, "app.py")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	n, err := c.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hash, err := c.FileHash("app.py")
	require.NoError(t, err)
	assert.Empty(t, hash)

	// Deleting again is a no-op.
	removed, err = c.DeleteByFile(ctx, "app.py")
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestCollectionFileHashes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c, err := s.GetOrCreate("proj", testMeta())
	require.NoError(t, err)
	require.NoError(t, c.Upsert(ctx, []Record{
		testRecord("f1_0", "app.py", "one", []float32{1, 0, 0}),
		testRecord("f2_0", "lib.py", "two", []float32{0, 1, 0}),
	}))

	hashes, err := c.FileHashes()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"app.py": "hash-app.py",
		"lib.py": "hash-lib.py",
	}, hashes)

	hash, err := c.FileHash("app.py")
	require.NoError(t, err)
	assert.Equal(t, "hash-app.py", hash)
}

func TestCollectionUpdateMetadata(t *testing.T) {
	s := newTestStore(t)

	c, err := s.GetOrCreate("proj", CollectionMeta{ProjectPath: "/p", Provider: "", Model: "", Dimensions: 3})
	require.NoError(t, err)

	meta := testMeta()
	require.NoError(t, c.UpdateMetadata(meta))
	assert.Equal(t, meta, c.Metadata())
}

func TestStoreList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.GetOrCreate("proj_a", testMeta())
	require.NoError(t, err)
	_, err = s.GetOrCreate("proj_b", testMeta())
	require.NoError(t, err)
	require.NoError(t, a.Upsert(ctx, []Record{
		testRecord("f1_0", "a.py", "x", []float32{1, 0, 0}),
	}))

	infos, err := s.List()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "proj_a", infos[0].Name)
	assert.Equal(t, 1, infos[0].Chunks)
	assert.Equal(t, "proj_b", infos[1].Name)
	assert.Equal(t, 0, infos[1].Chunks)
}

func TestStoreDrop(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c, err := s.GetOrCreate("proj", testMeta())
	require.NoError(t, err)
	require.NoError(t, c.Upsert(ctx, []Record{
		testRecord("f1_0", "a.py", "x", []float32{1, 0, 0}),
	}))

	require.NoError(t, s.Drop("proj"))

	_, err = s.Get("proj")
	assert.Error(t, err)

	infos, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestStoreReopenPersists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir)
	require.NoError(t, err)
	c, err := s.GetOrCreate("proj", testMeta())
	require.NoError(t, err)
	require.NoError(t, c.Upsert(ctx, []Record{
		testRecord("f1_0", "a.py", "def main():", []float32{1, 0, 0}),
	}))
	require.NoError(t, s.Close())

	s2, err := Open(dir)
	require.NoError(t, err)
	defer s2.Close()

	c2, err := s2.Get("proj")
	require.NoError(t, err)
	assert.Equal(t, "ollama", c2.Metadata().Provider)

	n, err := c2.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hits, err := c2.Search(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "f1_0", hits[0].ID)
}
