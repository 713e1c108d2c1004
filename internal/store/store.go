// Package store persists indexed chunks. Each project gets a collection:
// chunk rows in SQLite, an HNSW vector graph, and a Bleve keyword index,
// all living under a single data directory.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	semerrors "github.com/semindex/semindex/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS collections (
	name        TEXT PRIMARY KEY,
	project_path TEXT NOT NULL,
	provider    TEXT NOT NULL,
	model       TEXT NOT NULL,
	dimensions  INTEGER NOT NULL,
	created_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS chunks (
	collection  TEXT NOT NULL,
	id          TEXT NOT NULL,
	content     TEXT NOT NULL,
	file_path   TEXT NOT NULL,
	start_line  INTEGER NOT NULL,
	end_line    INTEGER NOT NULL,
	language    TEXT NOT NULL DEFAULT '',
	symbol_name TEXT NOT NULL DEFAULT '',
	file_hash   TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_chunks_file ON chunks(collection, file_path);
`

// Store manages all collections under one data directory.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	dir    string
	opened map[string]*Collection
	logger *slog.Logger
}

// Open opens (creating if needed) the store rooted at dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, semerrors.StoreError("failed to create data directory", err)
	}

	dbPath := filepath.Join(dir, "index.db")
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, semerrors.StoreError("failed to open database", err)
	}

	// Single writer keeps SQLite happy across both drivers.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, semerrors.StoreError(fmt.Sprintf("failed to set %s", pragma), err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, semerrors.StoreError("failed to create schema", err)
	}

	return &Store{
		db:     db,
		dir:    dir,
		opened: make(map[string]*Collection),
		logger: slog.Default().With("component", "store"),
	}, nil
}

// Dir returns the store's data directory.
func (s *Store) Dir() string {
	return s.dir
}

// GetOrCreate returns the named collection, creating it with meta if it
// does not exist. Meta of an existing collection is left untouched.
func (s *Store) GetOrCreate(name string, meta CollectionMeta) (*Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.opened[name]; ok {
		return c, nil
	}

	existing, err := s.loadMeta(name)
	switch {
	case err == sql.ErrNoRows:
		_, err = s.db.Exec(
			`INSERT INTO collections (name, project_path, provider, model, dimensions) VALUES (?, ?, ?, ?, ?)`,
			name, meta.ProjectPath, meta.Provider, meta.Model, meta.Dimensions,
		)
		if err != nil {
			return nil, semerrors.StoreError("failed to create collection", err)
		}
	case err != nil:
		return nil, semerrors.StoreError("failed to read collection", err)
	default:
		meta = existing
	}

	return s.openCollection(name, meta)
}

// Get returns the named collection, or an error if it does not exist.
func (s *Store) Get(name string) (*Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.opened[name]; ok {
		return c, nil
	}

	meta, err := s.loadMeta(name)
	if err == sql.ErrNoRows {
		return nil, semerrors.New(semerrors.ErrCodeProjectNotIndexed,
			fmt.Sprintf("collection %q does not exist", name), nil)
	}
	if err != nil {
		return nil, semerrors.StoreError("failed to read collection", err)
	}
	return s.openCollection(name, meta)
}

// List returns every collection with its chunk count.
func (s *Store) List() ([]CollectionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT name, project_path, provider, model, dimensions FROM collections ORDER BY name`)
	if err != nil {
		return nil, semerrors.StoreError("failed to list collections", err)
	}
	defer rows.Close()

	var infos []CollectionInfo
	for rows.Next() {
		var info CollectionInfo
		if err := rows.Scan(&info.Name, &info.Meta.ProjectPath, &info.Meta.Provider, &info.Meta.Model, &info.Meta.Dimensions); err != nil {
			return nil, semerrors.StoreError("failed to scan collection row", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, semerrors.StoreError("failed to iterate collections", err)
	}

	for i := range infos {
		var n int
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM chunks WHERE collection = ?`, infos[i].Name).Scan(&n); err != nil {
			return nil, semerrors.StoreError("failed to count chunks", err)
		}
		infos[i].Chunks = n
	}
	return infos, nil
}

// Drop removes a collection and its on-disk indexes.
func (s *Store) Drop(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.opened[name]; ok {
		if err := c.Close(); err != nil {
			s.logger.Warn("failed to close collection before drop", "collection", name, "error", err)
		}
		delete(s.opened, name)
	}

	if _, err := s.db.Exec(`DELETE FROM chunks WHERE collection = ?`, name); err != nil {
		return semerrors.StoreError("failed to delete chunks", err)
	}
	if _, err := s.db.Exec(`DELETE FROM collections WHERE name = ?`, name); err != nil {
		return semerrors.StoreError("failed to delete collection", err)
	}

	for _, path := range []string{
		s.vectorPath(name),
		s.vectorPath(name) + ".meta",
	} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove index file", "path", path, "error", err)
		}
	}
	if err := os.RemoveAll(s.keywordPath(name)); err != nil {
		s.logger.Warn("failed to remove keyword index", "path", s.keywordPath(name), "error", err)
	}
	return nil
}

// Close flushes and closes every open collection and the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for name, c := range s.opened {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close collection %s: %w", name, err)
		}
	}
	s.opened = make(map[string]*Collection)

	if err := s.db.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (s *Store) loadMeta(name string) (CollectionMeta, error) {
	var meta CollectionMeta
	err := s.db.QueryRow(
		`SELECT project_path, provider, model, dimensions FROM collections WHERE name = ?`, name,
	).Scan(&meta.ProjectPath, &meta.Provider, &meta.Model, &meta.Dimensions)
	return meta, err
}

func (s *Store) openCollection(name string, meta CollectionMeta) (*Collection, error) {
	vectors, err := LoadVectorGraph(s.vectorPath(name), meta.Dimensions)
	if err != nil {
		return nil, semerrors.StoreError("failed to open vector index", err)
	}

	keywords, err := NewKeywordIndex(s.keywordPath(name))
	if err != nil {
		vectors.Close()
		return nil, semerrors.StoreError("failed to open keyword index", err)
	}

	c := &Collection{
		name:     name,
		store:    s,
		meta:     meta,
		vectors:  vectors,
		keywords: keywords,
	}
	s.opened[name] = c
	return c, nil
}

func (s *Store) vectorPath(name string) string {
	return filepath.Join(s.dir, name+".hnsw")
}

func (s *Store) keywordPath(name string) string {
	return filepath.Join(s.dir, name+".bleve")
}
