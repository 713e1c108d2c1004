// Package scanner discovers indexable files under a project root. It
// applies the exclusion rules as one ordered list of checks (directory
// names, extensions, sensitive file patterns, gitignore rules, size) and
// offers the same checks for single paths, so the watcher and the indexer
// agree on what belongs in the index.
package scanner

import (
	"time"
)

// FileInfo describes one indexable file found under the project root.
type FileInfo struct {
	// Path is relative to the project root, slash-separated on every
	// platform. It is the identity files keep in the index.
	Path string

	// AbsPath is the absolute path on disk.
	AbsPath string

	Size    int64
	ModTime time.Time
}

// Options control which files a Scanner admits.
type Options struct {
	// ExcludeDirs are directory names pruned wherever they appear.
	ExcludeDirs []string

	// ExcludeExts are filename suffixes to skip, matched
	// case-insensitively against the basename (".pyc", ".min.js").
	ExcludeExts []string

	// MaxFileSize skips files larger than this many bytes. Zero means
	// no limit.
	MaxFileSize int64

	// UseGitignore applies .gitignore rules, including nested files.
	UseGitignore bool
}

// Result is one streamed scan entry: a discovered file or a walk error.
type Result struct {
	File *FileInfo
	Err  error
}

// Verdict is the outcome of checking a single path for admission.
type Verdict int

const (
	// VerdictOK admits the file.
	VerdictOK Verdict = iota
	// VerdictNotInProject rejects paths outside the project root.
	VerdictNotInProject
	// VerdictMissing means the path does not exist.
	VerdictMissing
	// VerdictNotAFile rejects directories, symlinks and other
	// non-regular files.
	VerdictNotAFile
	// VerdictIgnored rejects paths hit by an exclusion rule.
	VerdictIgnored
	// VerdictTooLarge rejects files over Options.MaxFileSize.
	VerdictTooLarge
)

// String returns the snake_case name used in statuses and logs.
func (v Verdict) String() string {
	switch v {
	case VerdictOK:
		return "ok"
	case VerdictNotInProject:
		return "not_in_project"
	case VerdictMissing:
		return "missing"
	case VerdictNotAFile:
		return "not_a_file"
	case VerdictIgnored:
		return "ignored"
	case VerdictTooLarge:
		return "too_large"
	default:
		return "unknown"
	}
}
