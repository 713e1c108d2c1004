package gitignore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Matcher holds compiled ignore rules. Build it fully (AddPattern /
// AddFromFile) before sharing; Match is safe for concurrent use on a
// finished matcher.
type Matcher struct {
	rules []rule
}

// rule is one compiled pattern.
type rule struct {
	regex    *regexp.Regexp
	negation bool   // leading !
	dirOnly  bool   // trailing /
	anchored bool   // leading / or internal /
	base     string // subdirectory this rule applies under, "" for root
}

// New creates an empty Matcher.
func New() *Matcher {
	return &Matcher{}
}

// AddPattern adds one gitignore pattern applied from the project root.
func (m *Matcher) AddPattern(pattern string) {
	m.AddPatternWithBase(pattern, "")
}

// AddPatternWithBase adds a pattern that only applies under base, which is
// how nested .gitignore files scope their rules.
func (m *Matcher) AddPatternWithBase(pattern, base string) {
	if r, ok := compile(pattern, base); ok {
		m.rules = append(m.rules, r)
	}
}

// compile parses one gitignore line. ok is false for blanks and comments.
func compile(pattern, base string) (rule, bool) {
	// "\ " at the end keeps the space; note it before trimming.
	keepTrailingSpace := strings.HasSuffix(pattern, `\ `)
	pattern = strings.TrimSpace(pattern)

	if pattern == "" || strings.HasPrefix(pattern, "#") {
		return rule{}, false
	}

	r := rule{base: base}

	switch {
	case strings.HasPrefix(pattern, `\#`), strings.HasPrefix(pattern, `\!`):
		pattern = pattern[1:]
	case strings.HasPrefix(pattern, "!"):
		r.negation = true
		pattern = pattern[1:]
	}

	if keepTrailingSpace && strings.HasSuffix(pattern, `\`) {
		pattern = pattern[:len(pattern)-1] + " "
	}

	if strings.HasSuffix(pattern, "/") {
		r.dirOnly = true
		pattern = pattern[:len(pattern)-1]
	}

	if strings.HasPrefix(pattern, "/") {
		r.anchored = true
		pattern = pattern[1:]
	}
	// An internal slash anchors too: "doc/frotz" means "/doc/frotz",
	// not "**/doc/frotz".
	if strings.Contains(pattern, "/") && !strings.HasPrefix(pattern, "**/") && !strings.HasPrefix(pattern, "*") {
		r.anchored = true
	}

	r.regex = regexp.MustCompile("^" + globToRegex(pattern) + "$")
	return r, true
}

// AddFromFile reads patterns from a .gitignore file, scoped under base.
func (m *Matcher) AddFromFile(path, base string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open gitignore file: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m.AddPatternWithBase(scanner.Text(), base)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read gitignore file: %w", err)
	}
	return nil
}

// Len reports the number of compiled rules.
func (m *Matcher) Len() int {
	return len(m.rules)
}

// Match reports whether path (slash-separated, relative to the root) is
// ignored. The last matching rule wins, so rules are scanned in reverse
// and the first hit decides.
func (m *Matcher) Match(path string, isDir bool) bool {
	path = filepath.ToSlash(path)

	for i := len(m.rules) - 1; i >= 0; i-- {
		r := m.rules[i]
		if r.matches(path, isDir) {
			return !r.negation
		}
	}
	return false
}

// matches checks one rule against a path.
func (r rule) matches(path string, isDir bool) bool {
	path, ok := r.rebase(path)
	if !ok {
		return false
	}
	if r.anchored {
		return r.matchAnchored(path, isDir)
	}
	return r.matchFloating(path, isDir)
}

// rebase strips the rule's base directory off path. A rule from a nested
// .gitignore sees only paths under its own directory.
func (r rule) rebase(path string) (string, bool) {
	if r.base == "" {
		return path, true
	}
	if path == r.base {
		return filepath.Base(path), true
	}
	if rest, found := strings.CutPrefix(path, r.base+"/"); found {
		return rest, true
	}
	return "", false
}

func (r rule) matchAnchored(path string, isDir bool) bool {
	if r.regex.MatchString(path) {
		return !r.dirOnly || isDir
	}
	if !r.dirOnly {
		return false
	}
	// A dir-only anchored rule also covers everything inside the
	// matched directory.
	for i := strings.IndexByte(path, '/'); i > 0; {
		if r.regex.MatchString(path[:i]) {
			return true
		}
		next := strings.IndexByte(path[i+1:], '/')
		if next < 0 {
			break
		}
		i += 1 + next
	}
	return false
}

func (r rule) matchFloating(path string, isDir bool) bool {
	parts := strings.Split(path, "/")

	if r.dirOnly {
		// "temp/" matches a temp directory anywhere and the files
		// inside it.
		for i, part := range parts {
			if r.regex.MatchString(part) {
				if i == len(parts)-1 {
					return isDir
				}
				return true
			}
		}
		return false
	}

	// Basename, the full path (for ** patterns), or any single
	// component may satisfy a floating rule.
	if r.regex.MatchString(parts[len(parts)-1]) || r.regex.MatchString(path) {
		return true
	}
	for _, part := range parts[:len(parts)-1] {
		if r.regex.MatchString(part) {
			return true
		}
	}
	return false
}

// globToRegex compiles a gitignore glob into a regular expression body.
func globToRegex(pattern string) string {
	var b strings.Builder

	for i := 0; i < len(pattern); {
		rest := pattern[i:]
		switch {
		case strings.HasPrefix(rest, "**/"):
			// "**/" crosses any number of directories.
			b.WriteString("(?:.*/)?")
			i += 3
		case strings.HasPrefix(rest, "**") && (i == 0 || pattern[i-1] == '/'):
			// trailing or /-delimited "**" matches anything.
			b.WriteString(".*")
			i += 2
		case rest[0] == '*':
			// single "*" stops at separators.
			b.WriteString("[^/]*")
			i++
		case rest[0] == '?':
			b.WriteString("[^/]")
			i++
		case rest[0] == '[':
			// pass character classes through unchanged when closed.
			if j := strings.IndexByte(rest, ']'); j > 0 {
				b.WriteString(rest[:j+1])
				i += j + 1
			} else {
				b.WriteString(`\[`)
				i++
			}
		case rest[0] == '\\' && len(rest) > 1:
			b.WriteString(regexp.QuoteMeta(rest[1:2]))
			i += 2
		default:
			b.WriteString(regexp.QuoteMeta(rest[:1]))
			i++
		}
	}

	return b.String()
}
