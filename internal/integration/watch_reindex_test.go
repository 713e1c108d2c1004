package integration

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semindex/semindex/internal/index"
	"github.com/semindex/semindex/internal/search"
	"github.com/semindex/semindex/internal/store"
	"github.com/semindex/semindex/internal/watch"
)

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(25 * time.Millisecond)
	}
	return cond()
}

func chunkCount(t *testing.T, st *store.Store, project string) int {
	t.Helper()
	coll, err := st.Get(store.CollectionName(project))
	require.NoError(t, err)
	n, err := coll.Count()
	require.NoError(t, err)
	return n
}

func TestWatchReindexesChangedFile(t *testing.T) {
	// Given a watched, indexed project with a short debounce
	env := newTestEnv(t)
	env.cfg.Watch.Debounce = "100ms"

	project := t.TempDir()
	writeFile(t, project, "orders.py",
		"def place_order(cart):\n    return checkout.submit(cart)\n")

	ctx := context.Background()
	m := index.New(env.cfg, env.store, env.embedder)
	_, err := m.IndexProject(ctx, project, false)
	require.NoError(t, err)

	coord := watch.NewCoordinator(env.cfg, m)
	defer coord.Close()
	require.NoError(t, coord.Watch(project))

	// When a file changes on disk
	writeFile(t, project, "orders.py",
		"def cancel_pending_order(order_id):\n    return checkout.cancel(order_id)\n")

	// Then after the debounce the index reflects the new content
	searcher := search.New(env.cfg, env.store, env.embedder)
	ok := waitFor(t, 5*time.Second, func() bool {
		results, err := searcher.Search(ctx, "cancel pending order", search.Options{TopK: 3})
		if err != nil || len(results) == 0 {
			return false
		}
		return results[0].SymbolName == "cancel_pending_order" ||
			strings.Contains(results[0].Content, "cancel_pending_order")
	})
	assert.True(t, ok, "watcher did not reindex the changed file")
}

func TestWatchIndexesNewFile(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Watch.Debounce = "100ms"

	project := t.TempDir()
	writeFile(t, project, "seed.py", "def seed():\n    pass\n")

	ctx := context.Background()
	m := index.New(env.cfg, env.store, env.embedder)
	_, err := m.IndexProject(ctx, project, false)
	require.NoError(t, err)
	before := chunkCount(t, env.store, project)

	coord := watch.NewCoordinator(env.cfg, m)
	defer coord.Close()
	require.NoError(t, coord.Watch(project))

	writeFile(t, project, "extra.py",
		"def brand_new_helper(x):\n    return x * 2\n")

	ok := waitFor(t, 5*time.Second, func() bool {
		return chunkCount(t, env.store, project) > before
	})
	assert.True(t, ok, "new file was not indexed")
}

func TestWatchRemovesDeletedFile(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Watch.Debounce = "100ms"

	project := t.TempDir()
	writeFile(t, project, "keep.py", "def keep():\n    pass\n")
	gone := writeFile(t, project, "gone.py", "def gone():\n    pass\n")

	ctx := context.Background()
	m := index.New(env.cfg, env.store, env.embedder)
	_, err := m.IndexProject(ctx, project, false)
	require.NoError(t, err)
	before := chunkCount(t, env.store, project)
	require.Greater(t, before, 0)

	coord := watch.NewCoordinator(env.cfg, m)
	defer coord.Close()
	require.NoError(t, coord.Watch(project))

	// Deletion skips the debounce entirely.
	require.NoError(t, os.Remove(gone))

	ok := waitFor(t, 5*time.Second, func() bool {
		return chunkCount(t, env.store, project) < before
	})
	assert.True(t, ok, "deleted file's chunks were not removed")
}

func TestUnwatchStopsReindexing(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Watch.Debounce = "100ms"

	project := t.TempDir()
	writeFile(t, project, "stable.py", "def stable():\n    pass\n")

	ctx := context.Background()
	m := index.New(env.cfg, env.store, env.embedder)
	_, err := m.IndexProject(ctx, project, false)
	require.NoError(t, err)
	before := chunkCount(t, env.store, project)

	coord := watch.NewCoordinator(env.cfg, m)
	defer coord.Close()
	require.NoError(t, coord.Watch(project))
	require.NoError(t, coord.Unwatch(project))

	writeFile(t, project, "ignored_after_unwatch.py", "def late():\n    pass\n")

	// Give the (stopped) watcher ample time to misbehave.
	time.Sleep(500 * time.Millisecond)
	assert.Equal(t, before, chunkCount(t, env.store, project))
}
