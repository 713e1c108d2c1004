package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/semindex/semindex/internal/gitignore"
)

const (
	// matcherCacheSize bounds how many per-directory gitignore matchers
	// stay parsed between scans and single-file checks.
	matcherCacheSize = 1000

	// resultBuffer decouples the walk from slower consumers.
	resultBuffer = 256
)

// sensitiveFilePatterns are basenames never admitted to the index, no
// matter what the configured exclusion lists say. Matched
// case-insensitively against the basename.
var sensitiveFilePatterns = []string{
	".env", ".env.*",
	"*.pem", "*.key", "*.p12", "*.pfx",
	"*credentials*", "*secrets*", "*password*",
	".netrc", ".npmrc", ".pypirc",
	"id_rsa", "id_dsa", "id_ecdsa", "id_ed25519",
}

// checkFn examines one candidate file. VerdictOK passes the file to the
// next check; any other verdict ends evaluation.
type checkFn func(rel, base string, size int64) Verdict

// Scanner walks one project root and filters what it finds. Safe for
// concurrent use; Scan and Vet share the gitignore matcher cache.
type Scanner struct {
	root string
	opts Options

	excludeDirs map[string]struct{}
	excludeExts []string
	checks      []checkFn

	// matchers caches per-directory gitignore matchers, keyed by the
	// root-relative directory ("" for the root itself). A nil value
	// records that the directory has no .gitignore.
	matchers *lru.Cache[string, *gitignore.Matcher]
}

// New creates a Scanner for the project at root. The root is resolved to
// an absolute path with symlinks evaluated, so relative paths reported by
// Scan and Vet stay stable however the root was spelled.
func New(root string, opts Options) (*Scanner, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat project root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project root %s is not a directory", abs)
	}

	matchers, err := lru.New[string, *gitignore.Matcher](matcherCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create gitignore cache: %w", err)
	}

	s := &Scanner{
		root:        abs,
		opts:        opts,
		excludeDirs: make(map[string]struct{}, len(opts.ExcludeDirs)),
		excludeExts: make([]string, 0, len(opts.ExcludeExts)),
		matchers:    matchers,
	}
	for _, d := range opts.ExcludeDirs {
		s.excludeDirs[d] = struct{}{}
	}
	for _, e := range opts.ExcludeExts {
		s.excludeExts = append(s.excludeExts, strings.ToLower(e))
	}

	// One ordered list, cheap name checks before gitignore and size.
	s.checks = []checkFn{
		s.checkDirNames,
		s.checkExtension,
		s.checkSensitive,
		s.checkGitignore,
		s.checkSize,
	}
	return s, nil
}

// Root returns the resolved absolute project root.
func (s *Scanner) Root() string {
	return s.root
}

// Scan walks the project and streams admitted files. The channel closes
// when the walk finishes or ctx is cancelled. Walk errors are streamed as
// Result.Err; excluded files are skipped silently.
func (s *Scanner) Scan(ctx context.Context) <-chan Result {
	out := make(chan Result, resultBuffer)

	go func() {
		defer close(out)

		_ = filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
			select {
			case <-ctx.Done():
				return filepath.SkipAll
			default:
			}

			if err != nil {
				s.send(ctx, out, Result{Err: fmt.Errorf("failed to walk %s: %w", p, err)})
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if p == s.root {
				return nil
			}

			rel, err := filepath.Rel(s.root, p)
			if err != nil {
				s.send(ctx, out, Result{Err: fmt.Errorf("failed to resolve %s: %w", p, err)})
				return nil
			}
			rel = filepath.ToSlash(rel)

			if d.IsDir() {
				if s.skipDir(rel, d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				s.send(ctx, out, Result{Err: fmt.Errorf("failed to stat %s: %w", p, err)})
				return nil
			}
			if s.vet(rel, info.Size()) != VerdictOK {
				return nil
			}

			ok := s.send(ctx, out, Result{File: &FileInfo{
				Path:    rel,
				AbsPath: p,
				Size:    info.Size(),
				ModTime: info.ModTime(),
			}})
			if !ok {
				return filepath.SkipAll
			}
			return nil
		})
	}()

	return out
}

// Vet checks a single path for admission the same way Scan does. The
// verdict is meaningful only when err is nil; info is non-nil only for
// VerdictOK.
func (s *Scanner) Vet(p string) (Verdict, *FileInfo, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return VerdictOK, nil, fmt.Errorf("failed to resolve %s: %w", p, err)
	}
	// Resolve symlinks in the parent so the path lands under the
	// resolved root; the leaf itself stays unresolved for Lstat.
	if dir, rerr := filepath.EvalSymlinks(filepath.Dir(abs)); rerr == nil {
		abs = filepath.Join(dir, filepath.Base(abs))
	}
	rel, err := filepath.Rel(s.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return VerdictNotInProject, nil, nil
	}
	rel = filepath.ToSlash(rel)

	info, err := os.Lstat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return VerdictMissing, nil, nil
	}
	if err != nil {
		return VerdictOK, nil, fmt.Errorf("failed to stat %s: %w", p, err)
	}
	if !info.Mode().IsRegular() {
		return VerdictNotAFile, nil, nil
	}

	if v := s.vet(rel, info.Size()); v != VerdictOK {
		return v, nil, nil
	}
	return VerdictOK, &FileInfo{
		Path:    rel,
		AbsPath: abs,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// InvalidateGitignoreCache drops all cached matchers. The watcher calls
// this when a .gitignore file changes.
func (s *Scanner) InvalidateGitignoreCache() {
	s.matchers.Purge()
}

// send delivers r unless ctx is done; reports whether delivery happened.
func (s *Scanner) send(ctx context.Context, out chan<- Result, r Result) bool {
	select {
	case out <- r:
		return true
	case <-ctx.Done():
		return false
	}
}

// skipDir reports whether a directory and everything under it is pruned.
func (s *Scanner) skipDir(rel, name string) bool {
	if _, ok := s.excludeDirs[name]; ok {
		return true
	}
	return s.opts.UseGitignore && s.gitignored(rel, true)
}

// vet runs the ordered checks over a root-relative file path.
func (s *Scanner) vet(rel string, size int64) Verdict {
	base := path.Base(rel)
	for _, check := range s.checks {
		if v := check(rel, base, size); v != VerdictOK {
			return v
		}
	}
	return VerdictOK
}

func (s *Scanner) checkDirNames(rel, _ string, _ int64) Verdict {
	for _, part := range strings.Split(rel, "/") {
		if _, ok := s.excludeDirs[part]; ok {
			return VerdictIgnored
		}
	}
	return VerdictOK
}

func (s *Scanner) checkExtension(_, base string, _ int64) Verdict {
	lower := strings.ToLower(base)
	for _, ext := range s.excludeExts {
		if strings.HasSuffix(lower, ext) {
			return VerdictIgnored
		}
	}
	return VerdictOK
}

func (s *Scanner) checkSensitive(_, base string, _ int64) Verdict {
	lower := strings.ToLower(base)
	for _, pattern := range sensitiveFilePatterns {
		if ok, _ := filepath.Match(pattern, lower); ok {
			return VerdictIgnored
		}
	}
	return VerdictOK
}

func (s *Scanner) checkGitignore(rel, _ string, _ int64) Verdict {
	if s.opts.UseGitignore && s.gitignored(rel, false) {
		return VerdictIgnored
	}
	return VerdictOK
}

func (s *Scanner) checkSize(_, _ string, size int64) Verdict {
	if s.opts.MaxFileSize > 0 && size > s.opts.MaxFileSize {
		return VerdictTooLarge
	}
	return VerdictOK
}

// gitignored checks rel against the root .gitignore and every nested
// .gitignore above it. A match at any level ignores the path.
func (s *Scanner) gitignored(rel string, isDir bool) bool {
	if m := s.matcherFor(""); m != nil && m.Match(rel, isDir) {
		return true
	}

	parts := strings.Split(rel, "/")
	dir := ""
	for _, part := range parts[:len(parts)-1] {
		if dir == "" {
			dir = part
		} else {
			dir += "/" + part
		}
		if m := s.matcherFor(dir); m != nil && m.Match(rel, isDir) {
			return true
		}
	}
	return false
}

// matcherFor returns the compiled matcher for relDir's .gitignore, nil
// when the directory has none. Concurrent misses may parse the same file
// twice; the cache keeps one copy.
func (s *Scanner) matcherFor(relDir string) *gitignore.Matcher {
	if m, ok := s.matchers.Get(relDir); ok {
		return m
	}

	var m *gitignore.Matcher
	giPath := filepath.Join(s.root, filepath.FromSlash(relDir), ".gitignore")
	if info, err := os.Stat(giPath); err == nil && info.Mode().IsRegular() {
		parsed := gitignore.New()
		if err := parsed.AddFromFile(giPath, relDir); err != nil {
			slog.Debug("failed to parse gitignore file",
				slog.String("path", giPath),
				slog.String("error", err.Error()))
		} else {
			m = parsed
		}
	}
	s.matchers.Add(relDir, m)
	return m
}
