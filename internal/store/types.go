// Package store persists chunk collections: one collection per indexed
// project. Chunk records and collection metadata live in SQLite, vectors in
// an HNSW graph per collection, and keyword search in a Bleve index per
// collection with a code-aware tokenizer.
package store

import (
	"crypto/md5"
	"encoding/hex"
	"path/filepath"
	"strings"
)

// Metadata is the per-record chunk metadata carried through the index.
type Metadata struct {
	FilePath    string `json:"file_path"` // relative to the project root
	StartLine   int    `json:"start_line"`
	EndLine     int    `json:"end_line"`
	Language    string `json:"language"`
	SymbolName  string `json:"symbol_name"`
	FileHash    string `json:"file_hash"` // fingerprint of the owning file at index time
	ProjectPath string `json:"project_path"`
}

// Record is one stored chunk: identifier, exact text, metadata, and the
// embedding vector it was indexed with.
type Record struct {
	ID      string
	Content string
	Meta    Metadata
	Vector  []float32
}

// CollectionMeta tags a collection with its project and the embedding
// provider that produced its vectors. Mixing providers would mix vector
// spaces, so the indexer checks Provider before writing.
type CollectionMeta struct {
	ProjectPath string
	Provider    string
	Model       string
	Dimensions  int
}

// CollectionInfo describes one collection for listings.
type CollectionInfo struct {
	Name   string
	Meta   CollectionMeta
	Chunks int
}

// VectorHit is one nearest-neighbor result.
type VectorHit struct {
	ID         string
	Distance   float32 // cosine distance, 0 identical to 2 opposite
	Similarity float32 // 1 - Distance/2
}

// KeywordHit is one keyword-search result.
type KeywordHit struct {
	ID    string
	Score float64
}

// CollectionName derives the deterministic collection name for a project:
// the base directory name (spaces replaced, capped at 30 chars) plus a short
// digest of the absolute path, so same-named projects in different places
// never collide.
func CollectionName(projectPath string) string {
	sum := md5.Sum([]byte(projectPath))
	base := strings.ReplaceAll(filepath.Base(projectPath), " ", "_")
	if len(base) > 30 {
		base = base[:30]
	}
	return base + "_" + hex.EncodeToString(sum[:])[:12]
}
