// Package index builds and maintains per-project chunk collections. A full
// scan walks the project, chunks every admitted file, embeds the chunks in
// batches, and writes them to the store. Single-file updates cover the
// watcher's incremental path, including deletes.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/semindex/semindex/internal/chunk"
	"github.com/semindex/semindex/internal/config"
	"github.com/semindex/semindex/internal/embed"
	semerrors "github.com/semindex/semindex/internal/errors"
	"github.com/semindex/semindex/internal/scanner"
	"github.com/semindex/semindex/internal/store"
)

// Stats summarizes a full project index run.
type Stats struct {
	Collection    string        `json:"collection"`
	FilesScanned  int           `json:"files_scanned"`
	FilesIndexed  int           `json:"files_indexed"`
	FilesSkipped  int           `json:"files_skipped"`
	FilesRemoved  int           `json:"files_removed"`
	ChunksCreated int           `json:"chunks_created"`
	Duration      time.Duration `json:"duration"`
}

// Progress reports per-file advancement of a full index run.
type Progress struct {
	Done  int
	Total int
	Path  string
}

// Maintainer owns index writes for all projects: full scans, incremental
// single-file updates, and removals.
type Maintainer struct {
	cfg      *config.Config
	store    *store.Store
	embedder embed.Embedder
	cascade  *chunk.Cascade
	logger   *slog.Logger
	progress func(Progress)
}

// Option configures a Maintainer.
type Option func(*Maintainer)

// WithProgress installs a per-file progress callback for full index runs.
func WithProgress(fn func(Progress)) Option {
	return func(m *Maintainer) { m.progress = fn }
}

// WithCascade overrides the chunker cascade.
func WithCascade(c *chunk.Cascade) Option {
	return func(m *Maintainer) { m.cascade = c }
}

// New creates a Maintainer writing through st with vectors from embedder.
func New(cfg *config.Config, st *store.Store, embedder embed.Embedder, opts ...Option) *Maintainer {
	m := &Maintainer{
		cfg:      cfg,
		store:    st,
		embedder: embedder,
		cascade:  chunk.NewCascade(),
		logger:   slog.Default().With("component", "index"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// pending is a chunk waiting for its embedding, grouped into batches.
type pendingChunk struct {
	record store.Record
	text   string
}

// IndexProject walks root and brings its collection up to date. Unchanged
// files (same content fingerprint) are skipped unless force is set, which
// drops the collection and rebuilds from nothing. Files that vanished since
// the last run lose their chunks.
//
// Concurrent runs against the same project are rejected via an advisory
// file lock.
func (m *Maintainer) IndexProject(ctx context.Context, root string, force bool) (*Stats, error) {
	start := time.Now()

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, semerrors.New(semerrors.ErrCodeInvalidPath, fmt.Sprintf("invalid project path: %s", root), err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, semerrors.New(semerrors.ErrCodeProjectNotFound,
			fmt.Sprintf("project directory does not exist: %s", root), err)
	}
	if !info.IsDir() {
		return nil, semerrors.New(semerrors.ErrCodeNotAFile,
			fmt.Sprintf("project path is not a directory: %s", root), nil)
	}

	name := store.CollectionName(root)

	unlock, err := m.lockProject(name)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if force {
		if err := m.store.Drop(name); err != nil {
			return nil, err
		}
	}

	coll, err := m.store.GetOrCreate(name, store.CollectionMeta{
		ProjectPath: root,
		Provider:    m.embedder.Name(),
		Model:       m.embedder.Model(),
		Dimensions:  m.embedder.Dimensions(),
	})
	if err != nil {
		return nil, err
	}
	if err := m.ensureProvider(coll); err != nil {
		return nil, err
	}

	hashes, err := coll.FileHashes()
	if err != nil {
		return nil, err
	}

	sc, err := m.newScanner(root)
	if err != nil {
		return nil, err
	}

	var files []*scanner.FileInfo
	for r := range sc.Scan(ctx) {
		if r.Err != nil {
			m.logger.Warn("scan error", "project", root, "error", r.Err)
			continue
		}
		files = append(files, r.File)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats := &Stats{Collection: name, FilesScanned: len(files)}
	seen := make(map[string]bool, len(files))

	var batch []pendingChunk
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := m.flushBatch(ctx, coll, batch)
		stats.ChunksCreated += n
		batch = batch[:0]
		return err
	}

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seen[f.Path] = true
		m.report(Progress{Done: i, Total: len(files), Path: f.Path})

		data, err := os.ReadFile(f.AbsPath)
		if err != nil {
			m.logger.Warn("failed to read file", "path", f.Path, "error", err)
			continue
		}

		fingerprint := chunk.Fingerprint(data)
		if hashes[f.Path] == fingerprint {
			stats.FilesSkipped++
			continue
		}

		records, err := m.chunkFile(ctx, f.Path, string(data), fingerprint, root)
		if err != nil {
			m.logger.Warn("failed to chunk file", "path", f.Path, "error", err)
			continue
		}

		// Stale chunks go first so a file never holds old and new rows.
		if _, err := coll.DeleteByFile(ctx, f.Path); err != nil {
			return nil, err
		}
		stats.FilesIndexed++

		for _, rec := range records {
			batch = append(batch, rec)
			if len(batch) >= m.batchSize() {
				if err := flush(); err != nil {
					return nil, err
				}
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	// Drop chunks of files that disappeared between runs.
	for path := range hashes {
		if seen[path] {
			continue
		}
		if _, err := coll.DeleteByFile(ctx, path); err != nil {
			return nil, err
		}
		stats.FilesRemoved++
	}

	m.report(Progress{Done: len(files), Total: len(files)})
	stats.Duration = time.Since(start)

	m.logger.Info("project indexed",
		"project", root,
		"collection", name,
		"scanned", stats.FilesScanned,
		"indexed", stats.FilesIndexed,
		"skipped", stats.FilesSkipped,
		"removed", stats.FilesRemoved,
		"chunks", stats.ChunksCreated,
		"duration", stats.Duration)
	return stats, nil
}

// IndexFile re-indexes a single file inside an already indexed project.
// Outcomes that are part of normal operation (deleted file, ignored path,
// unindexed project) come back as a FileResult status, not an error.
func (m *Maintainer) IndexFile(ctx context.Context, root, path string) (*FileResult, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, semerrors.New(semerrors.ErrCodeInvalidPath, fmt.Sprintf("invalid project path: %s", root), err)
	}

	res := &FileResult{Path: path}

	coll, err := m.store.Get(store.CollectionName(root))
	if err != nil {
		res.Status = StatusProjectNotIndexed
		return res, nil
	}
	if err := m.ensureProvider(coll); err != nil {
		res.Status = StatusProviderMismatch
		res.Err = err
		return res, nil
	}

	sc, err := m.newScanner(root)
	if err != nil {
		return nil, err
	}

	verdict, info, err := sc.Vet(path)
	if err != nil {
		res.Status = StatusReadError
		res.Err = err
		return res, nil
	}
	switch verdict {
	case scanner.VerdictMissing:
		rel, relErr := relPath(root, path)
		if relErr != nil {
			res.Status = StatusNotInProject
			return res, nil
		}
		removed, err := coll.DeleteByFile(ctx, rel)
		if err != nil {
			return nil, err
		}
		res.Status = StatusFileDeleted
		res.Chunks = removed
		return res, nil
	case scanner.VerdictNotAFile:
		res.Status = StatusNotAFile
		return res, nil
	case scanner.VerdictIgnored:
		res.Status = StatusIgnored
		return res, nil
	case scanner.VerdictTooLarge:
		res.Status = StatusTooLarge
		return res, nil
	case scanner.VerdictNotInProject:
		res.Status = StatusNotInProject
		return res, nil
	}

	data, err := os.ReadFile(info.AbsPath)
	if err != nil {
		res.Status = StatusReadError
		res.Err = err
		return res, nil
	}

	fingerprint := chunk.Fingerprint(data)
	records, err := m.chunkFile(ctx, info.Path, string(data), fingerprint, root)
	if err != nil {
		res.Status = StatusChunkError
		res.Err = err
		return res, nil
	}
	if len(records) == 0 {
		// An emptied file keeps no stale chunks around.
		if _, err := coll.DeleteByFile(ctx, info.Path); err != nil {
			return nil, err
		}
		res.Status = StatusNoChunks
		return res, nil
	}

	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.text
	}
	vectors, err := m.embedder.Embed(ctx, texts)
	if err != nil {
		res.Status = StatusEmbedError
		res.Err = err
		return res, nil
	}

	if _, err := coll.DeleteByFile(ctx, info.Path); err != nil {
		res.Status = StatusUpsertError
		res.Err = err
		return res, nil
	}
	rows := make([]store.Record, len(records))
	for i, r := range records {
		rows[i] = r.record
		rows[i].Vector = vectors[i]
	}
	if err := coll.Upsert(ctx, rows); err != nil {
		res.Status = StatusUpsertError
		res.Err = err
		return res, nil
	}

	res.Status = StatusSuccess
	res.Chunks = len(rows)
	return res, nil
}

// RemoveFile drops every chunk a file holds in its project's collection and
// returns how many were removed.
func (m *Maintainer) RemoveFile(ctx context.Context, root, path string) (int, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return 0, semerrors.New(semerrors.ErrCodeInvalidPath, fmt.Sprintf("invalid project path: %s", root), err)
	}
	coll, err := m.store.Get(store.CollectionName(root))
	if err != nil {
		return 0, err
	}
	rel, err := relPath(root, path)
	if err != nil {
		return 0, err
	}
	return coll.DeleteByFile(ctx, rel)
}

// ensureProvider checks that the collection's vectors came from the active
// embedder. Collections written before provider tracking carry empty
// metadata and are assumed to be ollama.
func (m *Maintainer) ensureProvider(coll *store.Collection) error {
	meta := coll.Metadata()
	provider := meta.Provider
	if provider == "" {
		provider = embed.ProviderOllama
	}

	if provider != m.embedder.Name() {
		return semerrors.New(semerrors.ErrCodeProviderMismatch,
			fmt.Sprintf("collection %s was built with provider %q but %q is active",
				coll.Name(), provider, m.embedder.Name()), nil).
			WithSuggestion("re-index the project with force to rebuild with the active provider")
	}

	if meta.Provider == "" {
		meta.Provider = m.embedder.Name()
		meta.Model = m.embedder.Model()
		meta.Dimensions = m.embedder.Dimensions()
		if err := coll.UpdateMetadata(meta); err != nil {
			return err
		}
	}
	return nil
}

func (m *Maintainer) chunkFile(ctx context.Context, relPath, content, fingerprint, root string) ([]pendingChunk, error) {
	chunker := m.cascade.ForExtension(filepath.Ext(relPath))
	chunks, err := chunker.Chunk(ctx, content, relPath)
	if err != nil {
		return nil, semerrors.New(semerrors.ErrCodeChunkingFailed,
			fmt.Sprintf("failed to chunk %s", relPath), err)
	}

	records := make([]pendingChunk, 0, len(chunks))
	for i, c := range chunks {
		records = append(records, pendingChunk{
			text: c.Content,
			record: store.Record{
				ID:      chunk.ID(relPath, i),
				Content: c.Content,
				Meta: store.Metadata{
					FilePath:    relPath,
					StartLine:   c.StartLine,
					EndLine:     c.EndLine,
					Language:    c.Language,
					SymbolName:  c.SymbolName,
					FileHash:    fingerprint,
					ProjectPath: root,
				},
			},
		})
	}
	return records, nil
}

func (m *Maintainer) flushBatch(ctx context.Context, coll *store.Collection, batch []pendingChunk) (int, error) {
	texts := make([]string, len(batch))
	for i, p := range batch {
		texts[i] = p.text
	}
	vectors, err := m.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, semerrors.EmbedError("failed to embed chunk batch", err)
	}
	if len(vectors) != len(batch) {
		return 0, semerrors.EmbedError(
			fmt.Sprintf("provider returned %d vectors for %d texts", len(vectors), len(batch)), nil)
	}

	records := make([]store.Record, len(batch))
	for i, p := range batch {
		records[i] = p.record
		records[i].Vector = vectors[i]
	}
	if err := coll.Upsert(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

func (m *Maintainer) newScanner(root string) (*scanner.Scanner, error) {
	sc, err := scanner.New(root, scanner.Options{
		ExcludeDirs:  m.cfg.Indexing.ExcludeDirs,
		ExcludeExts:  m.cfg.Indexing.ExcludeExts,
		MaxFileSize:  m.cfg.Indexing.MaxFileSize,
		UseGitignore: m.cfg.Indexing.GitignoreEnabled(),
	})
	if err != nil {
		return nil, semerrors.ScanError("failed to create scanner", err)
	}
	return sc, nil
}

// lockProject takes the per-project advisory lock, returning the release
// function. A held lock means another index run is in flight.
func (m *Maintainer) lockProject(name string) (func(), error) {
	dir := filepath.Join(m.cfg.DataDir(), "locks")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, semerrors.StoreError("failed to create lock directory", err)
	}

	lock := flock.New(filepath.Join(dir, name+".lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, semerrors.StoreError("failed to acquire project lock", err)
	}
	if !ok {
		return nil, semerrors.New(semerrors.ErrCodeStoreLocked,
			fmt.Sprintf("project %s is already being indexed", name), nil).
			WithSuggestion("wait for the running index operation to finish")
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			m.logger.Warn("failed to release project lock", "collection", name, "error", err)
		}
	}, nil
}

func (m *Maintainer) batchSize() int {
	if m.cfg.Indexing.BatchSize > 0 {
		return m.cfg.Indexing.BatchSize
	}
	return 20
}

func (m *Maintainer) report(p Progress) {
	if m.progress != nil {
		m.progress(p)
	}
}

func relPath(root, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}
