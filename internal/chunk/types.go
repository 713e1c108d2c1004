// Package chunk splits source files into semantically coherent line ranges.
//
// A family of boundary detectors finds top-level declarations per language:
// an AST detector backed by tree-sitter where a grammar is available, a
// regex-based detector per registered extension, and a generic sliding-window
// splitter as the last resort. Selection between them is handled by the
// Cascade, which never fails outright.
package chunk

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// SmallFileLimit is the line count at or below which every language
	// detector returns the whole file as a single chunk.
	SmallFileLimit = 30

	// GenericSmallFileLimit is the same threshold for the generic splitter,
	// which tolerates slightly larger files before windowing.
	GenericSmallFileLimit = 50

	// WindowSize is the sliding-window chunk height in lines.
	WindowSize = 50

	// WindowStride is the sliding-window advance in lines. The 10-line
	// overlap keeps context that straddles a window boundary searchable.
	WindowStride = 40
)

// Chunk is a contiguous, 1-indexed, inclusive line range of a single file.
// Ranges produced by one chunking pass never overlap and are ordered by
// StartLine; they need not cover every line of the file.
type Chunk struct {
	Content    string
	FilePath   string
	StartLine  int
	EndLine    int
	SymbolName string // declaration name, "(imports)", "(header)", "(trailing)", or empty
	Language   string // detector identity, "unknown" for generic splits
}

// Chunker splits file content into chunks. Implementations handle their own
// degenerate cases (small files, zero declarations) and only return an error
// on context cancellation.
type Chunker interface {
	Chunk(ctx context.Context, content, filePath string) ([]Chunk, error)
	Language() string
}

// Fingerprint returns the content digest used for change detection:
// the first 16 hex characters of the sha256 of the content.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:16]
}

// ID derives a chunk identifier from the owning file's relative path and the
// chunk's ordinal within that file. Identifiers are stable across runs for
// unchanged content, which makes upserts idempotent. Ordinals can shift when
// a detector change alters the chunk count, so every write path deletes a
// file's prior records before inserting.
func ID(relPath string, ordinal int) string {
	sum := md5.Sum([]byte(relPath))
	return fmt.Sprintf("%s_%d", hex.EncodeToString(sum[:])[:8], ordinal)
}

// splitLines splits content the way every detector counts lines: a bare
// strings.Split on "\n", so a trailing newline yields a final empty line.
func splitLines(content string) []string {
	return strings.Split(content, "\n")
}

// wholeFile wraps the entire content in a single chunk.
func wholeFile(content, filePath, language string, lineCount int) []Chunk {
	return []Chunk{{
		Content:   content,
		FilePath:  filePath,
		StartLine: 1,
		EndLine:   lineCount,
		Language:  language,
	}}
}

// joinRange renders lines[start:end+1] (0-indexed, inclusive) back to text.
func joinRange(lines []string, start, end int) string {
	return strings.Join(lines[start:end+1], "\n")
}
