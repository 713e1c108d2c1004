package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/semindex/semindex/internal/config"
	semerrors "github.com/semindex/semindex/internal/errors"
	"github.com/semindex/semindex/internal/index"
	"github.com/semindex/semindex/internal/scanner"
)

// timer is the slice of *time.Timer the Coordinator needs, so tests can
// substitute a hand-fired implementation.
type timer interface {
	Stop() bool
}

type timerFactory func(d time.Duration, fn func()) timer

func defaultTimerFactory(d time.Duration, fn func()) timer {
	return time.AfterFunc(d, fn)
}

// projectWatch is one watched project. The scanner vets incoming events
// with the same rules the indexer applies, so ignored files never reach
// the pending queue.
type projectWatch struct {
	root    string
	source  Source
	scanner *scanner.Scanner
	done    chan struct{}
}

// Coordinator runs debounced re-indexing for any number of watched
// projects. Change events accumulate in one shared pending set; each new
// event restarts a single timer, so a burst of saves costs one re-index
// per file once the project goes quiet. Deletes skip the queue entirely.
type Coordinator struct {
	cfg        *config.Config
	maintainer *index.Maintainer
	logger     *slog.Logger

	newSource SourceFactory
	newTimer  timerFactory
	debounce  time.Duration

	mu       sync.Mutex
	projects map[string]*projectWatch
	pending  map[string]string // abs file path -> project root
	flushT   timer
	closed   bool

	wg sync.WaitGroup
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithSourceFactory substitutes the filesystem event source.
func WithSourceFactory(f SourceFactory) CoordinatorOption {
	return func(c *Coordinator) { c.newSource = f }
}

// WithTimerFactory substitutes the debounce timer.
func WithTimerFactory(f timerFactory) CoordinatorOption {
	return func(c *Coordinator) { c.newTimer = f }
}

// NewCoordinator creates a Coordinator driving m.
func NewCoordinator(cfg *config.Config, m *index.Maintainer, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		cfg:        cfg,
		maintainer: m,
		logger:     slog.Default().With("component", "watch"),
		newSource:  NewFSSource,
		newTimer:   defaultTimerFactory,
		debounce:   cfg.WatchDebounce(),
		projects:   make(map[string]*projectWatch),
		pending:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Watch starts watching root. The project must already be indexed; the
// caller checks that so a watch failure and an index failure stay distinct.
func (c *Coordinator) Watch(root string) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return semerrors.New(semerrors.ErrCodeInvalidPath, fmt.Sprintf("invalid project path: %s", root), err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return semerrors.New(semerrors.ErrCodeWatchFailed, "watcher is shut down", nil)
	}
	if _, ok := c.projects[root]; ok {
		return semerrors.New(semerrors.ErrCodeAlreadyWatching,
			fmt.Sprintf("already watching %s", root), nil)
	}

	skip := skipDirFunc(c.cfg.Indexing.ExcludeDirs)
	source, err := c.newSource(root, skip)
	if err != nil {
		return err
	}

	sc, err := scanner.New(root, scanner.Options{
		ExcludeDirs:  c.cfg.Indexing.ExcludeDirs,
		ExcludeExts:  c.cfg.Indexing.ExcludeExts,
		MaxFileSize:  c.cfg.Indexing.MaxFileSize,
		UseGitignore: c.cfg.Indexing.GitignoreEnabled(),
	})
	if err != nil {
		_ = source.Close()
		return err
	}

	pw := &projectWatch{root: root, source: source, scanner: sc, done: make(chan struct{})}
	c.projects[root] = pw

	c.wg.Add(1)
	go c.consume(pw)

	c.logger.Info("watching project", "project", root)
	return nil
}

// Unwatch stops watching root. Pending changes for the project are
// discarded.
func (c *Coordinator) Unwatch(root string) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return semerrors.New(semerrors.ErrCodeInvalidPath, fmt.Sprintf("invalid project path: %s", root), err)
	}

	c.mu.Lock()
	pw, ok := c.projects[root]
	if !ok {
		c.mu.Unlock()
		return semerrors.New(semerrors.ErrCodeNotWatching,
			fmt.Sprintf("not watching %s", root), nil)
	}
	delete(c.projects, root)
	for path, r := range c.pending {
		if r == root {
			delete(c.pending, path)
		}
	}
	if len(c.projects) == 0 && c.flushT != nil {
		// Nothing left to flush for; an armed timer would only fire on
		// an empty queue.
		c.flushT.Stop()
		c.flushT = nil
	}
	c.mu.Unlock()

	close(pw.done)
	if err := pw.source.Close(); err != nil {
		c.logger.Warn("failed to close watch source", "project", root, "error", err)
	}
	c.logger.Info("stopped watching project", "project", root)
	return nil
}

// Info describes one watched project.
type Info struct {
	Root    string `json:"root"`
	Pending int    `json:"pending"`
}

// Watched lists watched projects with their queued change counts, sorted
// by root.
func (c *Coordinator) Watched() []Info {
	c.mu.Lock()
	defer c.mu.Unlock()

	infos := make([]Info, 0, len(c.projects))
	for root := range c.projects {
		n := 0
		for _, r := range c.pending {
			if r == root {
				n++
			}
		}
		infos = append(infos, Info{Root: root, Pending: n})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Root < infos[j].Root })
	return infos
}

// IsWatching reports whether root is being watched.
func (c *Coordinator) IsWatching(root string) bool {
	root, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.projects[root]
	return ok
}

// Close stops every watch and discards pending work.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	if c.flushT != nil {
		c.flushT.Stop()
		c.flushT = nil
	}
	projects := make([]*projectWatch, 0, len(c.projects))
	for _, pw := range c.projects {
		projects = append(projects, pw)
	}
	c.projects = make(map[string]*projectWatch)
	c.pending = make(map[string]string)
	c.mu.Unlock()

	for _, pw := range projects {
		close(pw.done)
		if err := pw.source.Close(); err != nil {
			c.logger.Warn("failed to close watch source", "project", pw.root, "error", err)
		}
	}
	c.wg.Wait()
	return nil
}

func (c *Coordinator) consume(pw *projectWatch) {
	defer c.wg.Done()
	for {
		select {
		case <-pw.done:
			return
		case err, ok := <-pw.source.Errors():
			if ok {
				c.logger.Warn("watch error", "project", pw.root, "error", err)
			}
		case ev, ok := <-pw.source.Events():
			if !ok {
				return
			}
			c.handleEvent(pw, ev)
		}
	}
}

func (c *Coordinator) handleEvent(pw *projectWatch, ev Event) {
	if filepath.Base(ev.Path) == ".gitignore" {
		// The ignore rules just changed; stale matchers must not decide
		// which events get queued.
		pw.scanner.InvalidateGitignoreCache()
	}

	if ev.Op == OpRemove {
		// Deletes never wait: stale chunks must not answer queries.
		c.mu.Lock()
		delete(c.pending, ev.Path)
		c.mu.Unlock()
		c.reindex(pw.root, ev.Path)
		return
	}

	// Vet before queueing, outside the lock: a noisy ignored file (a
	// regenerated bundle, a gitignored artifact) must not keep restarting
	// the shared debounce timer. On a vet error the event still queues;
	// the maintainer re-vets with full status reporting.
	if verdict, _, err := pw.scanner.Vet(ev.Path); err == nil && verdict != scanner.VerdictOK {
		c.logger.Debug("skipping event", "project", pw.root, "path", ev.Path, "verdict", verdict)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.pending[ev.Path] = pw.root
	if c.flushT != nil {
		c.flushT.Stop()
	}
	c.flushT = c.newTimer(c.debounce, c.flush)
}

// flush drains the pending set and re-indexes each file. The lock is
// released before any indexing happens, so new events queue freely while
// embeddings run.
func (c *Coordinator) flush() {
	c.mu.Lock()
	batch := c.pending
	c.pending = make(map[string]string)
	c.flushT = nil
	c.mu.Unlock()

	for path, root := range batch {
		c.reindex(root, path)
	}
}

func (c *Coordinator) reindex(root, path string) {
	res, err := c.maintainer.IndexFile(context.Background(), root, path)
	if err != nil {
		attrs := []any{"project", root, "path", path}
		for k, v := range semerrors.FormatForLog(err) {
			attrs = append(attrs, k, v)
		}
		c.logger.Error("re-index failed", attrs...)
		return
	}
	attrs := []any{"project", root, "path", path, "status", string(res.Status), "chunks", res.Chunks}
	switch {
	case res.Err != nil:
		c.logger.Warn("re-index degraded", append(attrs, "error", res.Err)...)
	case res.Status.OK():
		c.logger.Info("re-indexed file", attrs...)
	default:
		c.logger.Debug("file skipped", attrs...)
	}
}

func skipDirFunc(names []string) func(string) bool {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return func(name string) bool {
		_, ok := set[name]
		return ok
	}
}
