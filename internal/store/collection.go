package store

import (
	"context"
	"database/sql"
	"sync"

	semerrors "github.com/semindex/semindex/internal/errors"
)

// Collection holds one project's chunks across the three backing indexes.
// Writes are serialized; reads run concurrently.
type Collection struct {
	mu       sync.RWMutex
	name     string
	store    *Store
	meta     CollectionMeta
	vectors  *VectorGraph
	keywords *KeywordIndex
	closed   bool
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// Metadata returns the collection's embedding metadata.
func (c *Collection) Metadata() CollectionMeta {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.meta
}

// UpdateMetadata rewrites the embedding metadata, used when migrating a
// collection created before provider tracking existed.
func (c *Collection) UpdateMetadata(meta CollectionMeta) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.store.db.Exec(
		`UPDATE collections SET project_path = ?, provider = ?, model = ?, dimensions = ? WHERE name = ?`,
		meta.ProjectPath, meta.Provider, meta.Model, meta.Dimensions, c.name,
	)
	if err != nil {
		return semerrors.StoreError("failed to update collection metadata", err)
	}
	c.meta = meta
	return nil
}

// Upsert inserts records, replacing any existing record with the same ID.
func (c *Collection) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return semerrors.StoreError("collection is closed", nil)
	}

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return semerrors.StoreError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO chunks
			(collection, id, content, file_path, start_line, end_line, language, symbol_name, file_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return semerrors.StoreError("failed to prepare insert", err)
	}
	defer stmt.Close()

	ids := make([]string, len(records))
	contents := make([]string, len(records))
	vectors := make([][]float32, len(records))
	for i, r := range records {
		ids[i] = r.ID
		contents[i] = r.Content
		vectors[i] = r.Vector
		_, err := stmt.ExecContext(ctx, c.name, r.ID, r.Content,
			r.Meta.FilePath, r.Meta.StartLine, r.Meta.EndLine,
			r.Meta.Language, r.Meta.SymbolName, r.Meta.FileHash)
		if err != nil {
			return semerrors.StoreError("failed to insert chunk", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return semerrors.StoreError("failed to commit chunks", err)
	}

	if err := c.vectors.Add(ids, vectors); err != nil {
		return semerrors.StoreError("failed to add vectors", err)
	}
	if err := c.keywords.Index(ctx, ids, contents); err != nil {
		return semerrors.StoreError("failed to index keywords", err)
	}
	return c.vectors.Save(c.store.vectorPath(c.name))
}

// DeleteByFile removes every chunk belonging to relPath and returns how
// many were removed.
func (c *Collection) DeleteByFile(ctx context.Context, relPath string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, semerrors.StoreError("collection is closed", nil)
	}

	rows, err := c.store.db.QueryContext(ctx,
		`SELECT id FROM chunks WHERE collection = ? AND file_path = ?`, c.name, relPath)
	if err != nil {
		return 0, semerrors.StoreError("failed to query chunks by file", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, semerrors.StoreError("failed to scan chunk id", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, semerrors.StoreError("failed to iterate chunk ids", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if _, err := c.store.db.ExecContext(ctx,
		`DELETE FROM chunks WHERE collection = ? AND file_path = ?`, c.name, relPath); err != nil {
		return 0, semerrors.StoreError("failed to delete chunks", err)
	}

	c.vectors.Delete(ids)
	if err := c.keywords.Delete(ctx, ids); err != nil {
		return 0, semerrors.StoreError("failed to delete keywords", err)
	}
	if err := c.vectors.Save(c.store.vectorPath(c.name)); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// FileHash returns the stored content hash for relPath, or "" when the
// file has no chunks.
func (c *Collection) FileHash(relPath string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var hash string
	err := c.store.db.QueryRow(
		`SELECT file_hash FROM chunks WHERE collection = ? AND file_path = ? LIMIT 1`,
		c.name, relPath,
	).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", semerrors.StoreError("failed to read file hash", err)
	}
	return hash, nil
}

// FileHashes returns the stored hash of every indexed file, keyed by
// relative path.
func (c *Collection) FileHashes() (map[string]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rows, err := c.store.db.Query(
		`SELECT file_path, MAX(file_hash) FROM chunks WHERE collection = ? GROUP BY file_path`, c.name)
	if err != nil {
		return nil, semerrors.StoreError("failed to query file hashes", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, semerrors.StoreError("failed to scan file hash", err)
		}
		hashes[path] = hash
	}
	return hashes, rows.Err()
}

// Count returns the number of chunks in the collection.
func (c *Collection) Count() (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var n int
	err := c.store.db.QueryRow(
		`SELECT COUNT(*) FROM chunks WHERE collection = ?`, c.name).Scan(&n)
	if err != nil {
		return 0, semerrors.StoreError("failed to count chunks", err)
	}
	return n, nil
}

// Search runs nearest-neighbor search over the vector index.
func (c *Collection) Search(ctx context.Context, vector []float32, k int) ([]VectorHit, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, semerrors.StoreError("collection is closed", nil)
	}
	return c.vectors.Search(vector, k)
}

// KeywordSearch runs BM25 search over the keyword index.
func (c *Collection) KeywordSearch(ctx context.Context, query string, k int) ([]KeywordHit, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, semerrors.StoreError("collection is closed", nil)
	}
	return c.keywords.Search(ctx, query, k)
}

// Fetch hydrates records by ID. Unknown IDs are silently skipped, so the
// result may be shorter than the input.
func (c *Collection) Fetch(ctx context.Context, ids []string) ([]Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		r, err := c.fetchOne(ctx, id)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, semerrors.StoreError("failed to fetch chunk", err)
		}
		records = append(records, r)
	}
	return records, nil
}

// GetChunk returns a single record by ID.
func (c *Collection) GetChunk(ctx context.Context, id string) (Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, err := c.fetchOne(ctx, id)
	if err == sql.ErrNoRows {
		return Record{}, semerrors.StoreError("chunk not found: "+id, nil)
	}
	if err != nil {
		return Record{}, semerrors.StoreError("failed to fetch chunk", err)
	}
	return r, nil
}

func (c *Collection) fetchOne(ctx context.Context, id string) (Record, error) {
	var r Record
	err := c.store.db.QueryRowContext(ctx, `
		SELECT id, content, file_path, start_line, end_line, language, symbol_name, file_hash
		FROM chunks WHERE collection = ? AND id = ?`, c.name, id,
	).Scan(&r.ID, &r.Content, &r.Meta.FilePath, &r.Meta.StartLine, &r.Meta.EndLine,
		&r.Meta.Language, &r.Meta.SymbolName, &r.Meta.FileHash)
	r.Meta.ProjectPath = c.meta.ProjectPath
	return r, err
}

// Close flushes the vector index and closes the keyword index. The SQLite
// handle is shared and stays open.
func (c *Collection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	var firstErr error
	if c.vectors.Count() > 0 {
		if err := c.vectors.Save(c.store.vectorPath(c.name)); err != nil {
			firstErr = err
		}
	}
	if err := c.vectors.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := c.keywords.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
