package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semindex/semindex/internal/config"
	"github.com/semindex/semindex/internal/embed"
	"github.com/semindex/semindex/internal/index"
	"github.com/semindex/semindex/internal/store"
)

// fakeSource feeds hand-crafted events to the coordinator.
type fakeSource struct {
	events chan Event
	errs   chan error
	once   sync.Once
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		events: make(chan Event, 16),
		errs:   make(chan error, 1),
	}
}

func (f *fakeSource) Events() <-chan Event { return f.events }
func (f *fakeSource) Errors() <-chan error { return f.errs }
func (f *fakeSource) Close() error {
	f.once.Do(func() { close(f.events) })
	return nil
}

// manualTimers records debounce timers so tests fire them deterministically.
type manualTimers struct {
	mu      sync.Mutex
	started int
	stopped int
	lastFn  func()
	lastDur time.Duration
}

type manualTimer struct {
	owner *manualTimers
}

func (t *manualTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	t.owner.stopped++
	return true
}

func (m *manualTimers) factory(d time.Duration, fn func()) timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started++
	m.lastFn = fn
	m.lastDur = d
	return &manualTimer{owner: m}
}

func (m *manualTimers) fire() {
	m.mu.Lock()
	fn := m.lastFn
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (m *manualTimers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

type fixture struct {
	coord   *Coordinator
	store   *store.Store
	timers  *manualTimers
	source  *fakeSource
	project string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := config.NewConfig()
	cfg.Storage.Home = t.TempDir()

	st, err := store.Open(filepath.Join(cfg.DataDir(), "collections"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	m := index.New(cfg, st, embed.NewStaticEmbedder())

	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, "app.py"),
		[]byte("def main():\n    return 0\n"), 0o644))
	_, err = m.IndexProject(context.Background(), project, false)
	require.NoError(t, err)

	timers := &manualTimers{}
	source := newFakeSource()
	coord := NewCoordinator(cfg, m,
		WithTimerFactory(timers.factory),
		WithSourceFactory(func(root string, skip func(string) bool) (Source, error) {
			return source, nil
		}),
	)
	t.Cleanup(func() { coord.Close() })

	return &fixture{coord: coord, store: st, timers: timers, source: source, project: project}
}

func (f *fixture) fileHash(t *testing.T, rel string) string {
	t.Helper()
	coll, err := f.store.Get(store.CollectionName(f.project))
	require.NoError(t, err)
	hash, err := coll.FileHash(rel)
	require.NoError(t, err)
	return hash
}

func TestCoordinatorDebouncedReindex(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.coord.Watch(f.project))

	path := filepath.Join(f.project, "new.py")
	require.NoError(t, os.WriteFile(path, []byte("def added():\n    pass\n"), 0o644))

	f.source.events <- Event{Path: path, Op: OpChange}

	require.Eventually(t, func() bool { return f.timers.count() == 1 },
		time.Second, 5*time.Millisecond)
	assert.Equal(t, 2*time.Second, f.timers.lastDur)

	// Nothing is indexed until the quiet period elapses.
	assert.Empty(t, f.fileHash(t, "new.py"))

	f.timers.fire()
	assert.NotEmpty(t, f.fileHash(t, "new.py"))
}

func TestCoordinatorBurstRestartsTimer(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.coord.Watch(f.project))

	a := filepath.Join(f.project, "a.py")
	b := filepath.Join(f.project, "b.py")
	require.NoError(t, os.WriteFile(a, []byte("def a():\n    pass\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("def b():\n    pass\n"), 0o644))

	f.source.events <- Event{Path: a, Op: OpChange}
	f.source.events <- Event{Path: a, Op: OpChange}
	f.source.events <- Event{Path: b, Op: OpChange}

	require.Eventually(t, func() bool { return f.timers.count() == 3 },
		time.Second, 5*time.Millisecond)

	// Duplicate events collapse to one pending entry per file.
	watched := f.coord.Watched()
	require.Len(t, watched, 1)
	assert.Equal(t, 2, watched[0].Pending)

	f.timers.fire()
	assert.NotEmpty(t, f.fileHash(t, "a.py"))
	assert.NotEmpty(t, f.fileHash(t, "b.py"))
	assert.Empty(t, f.coord.Watched()[0].Pending)
}

func TestCoordinatorDeleteBypassesDebounce(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.coord.Watch(f.project))
	require.NotEmpty(t, f.fileHash(t, "app.py"))

	path := filepath.Join(f.project, "app.py")
	require.NoError(t, os.Remove(path))
	f.source.events <- Event{Path: path, Op: OpRemove}

	// No timer fires; the chunks disappear on their own.
	require.Eventually(t, func() bool { return f.fileHash(t, "app.py") == "" },
		time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, f.timers.count())
}

func TestCoordinatorWatchTwice(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.coord.Watch(f.project))

	err := f.coord.Watch(f.project)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already watching")
}

func TestCoordinatorUnwatch(t *testing.T) {
	f := newFixture(t)

	err := f.coord.Unwatch(f.project)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not watching")

	require.NoError(t, f.coord.Watch(f.project))
	assert.True(t, f.coord.IsWatching(f.project))

	require.NoError(t, f.coord.Unwatch(f.project))
	assert.False(t, f.coord.IsWatching(f.project))
	assert.Empty(t, f.coord.Watched())
}

func TestCoordinatorUnwatchDiscardsPending(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.coord.Watch(f.project))

	path := filepath.Join(f.project, "new.py")
	require.NoError(t, os.WriteFile(path, []byte("def added():\n    pass\n"), 0o644))
	f.source.events <- Event{Path: path, Op: OpChange}

	require.Eventually(t, func() bool { return f.timers.count() == 1 },
		time.Second, 5*time.Millisecond)

	require.NoError(t, f.coord.Unwatch(f.project))

	f.timers.fire()
	assert.Empty(t, f.fileHash(t, "new.py"))
}

func TestCoordinatorIgnoredEventsNeverQueue(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.coord.Watch(f.project))
	require.NotEmpty(t, f.fileHash(t, "app.py"))

	bundle := filepath.Join(f.project, "bundle.min.js")
	require.NoError(t, os.WriteFile(bundle, []byte("var a=1;"), 0o644))
	dep := filepath.Join(f.project, "node_modules", "react", "index.js")
	require.NoError(t, os.MkdirAll(filepath.Dir(dep), 0o755))
	require.NoError(t, os.WriteFile(dep, []byte("module.exports = {};"), 0o644))

	f.source.events <- Event{Path: bundle, Op: OpChange}
	f.source.events <- Event{Path: dep, Op: OpChange}

	// The delete trails the noise so its completion proves both prior
	// events were handled.
	appPath := filepath.Join(f.project, "app.py")
	require.NoError(t, os.Remove(appPath))
	f.source.events <- Event{Path: appPath, Op: OpRemove}

	require.Eventually(t, func() bool { return f.fileHash(t, "app.py") == "" },
		time.Second, 5*time.Millisecond)

	assert.Equal(t, 0, f.timers.count())
	watched := f.coord.Watched()
	require.Len(t, watched, 1)
	assert.Equal(t, 0, watched[0].Pending)
}

func TestCoordinatorGitignoreChangeRefreshesRules(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.coord.Watch(f.project))

	// Warm the matcher cache while the project has no .gitignore.
	f.source.events <- Event{Path: filepath.Join(f.project, "app.py"), Op: OpChange}

	gi := filepath.Join(f.project, ".gitignore")
	require.NoError(t, os.WriteFile(gi, []byte("gen.py\n"), 0o644))
	f.source.events <- Event{Path: gi, Op: OpChange}

	gen := filepath.Join(f.project, "gen.py")
	require.NoError(t, os.WriteFile(gen, []byte("def g():\n    pass\n"), 0o644))
	f.source.events <- Event{Path: gen, Op: OpChange}

	util := filepath.Join(f.project, "util.py")
	require.NoError(t, os.WriteFile(util, []byte("def u():\n    pass\n"), 0o644))
	f.source.events <- Event{Path: util, Op: OpChange}

	// Three arms: app.py, .gitignore, util.py. The freshly ignored gen.py
	// never queues.
	require.Eventually(t, func() bool { return f.timers.count() == 3 },
		time.Second, 5*time.Millisecond)
	watched := f.coord.Watched()
	require.Len(t, watched, 1)
	assert.Equal(t, 3, watched[0].Pending)
}

func TestCoordinatorUnwatchLastProjectStopsTimer(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.coord.Watch(f.project))

	path := filepath.Join(f.project, "new.py")
	require.NoError(t, os.WriteFile(path, []byte("def added():\n    pass\n"), 0o644))
	f.source.events <- Event{Path: path, Op: OpChange}

	require.Eventually(t, func() bool { return f.timers.count() == 1 },
		time.Second, 5*time.Millisecond)

	require.NoError(t, f.coord.Unwatch(f.project))
	assert.Equal(t, 1, f.timers.stopped)
}

func TestCoordinatorCloseIsIdempotent(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.coord.Watch(f.project))
	require.NoError(t, f.coord.Close())
	require.NoError(t, f.coord.Close())

	err := f.coord.Watch(f.project)
	assert.Error(t, err)
}
