package chunk

import (
	"context"
	"strings"
)

// declaration is a detected top-level declaration start, 0-indexed.
type declaration struct {
	line int
	name string
}

// patternChunker is the shared shape of the regex-based detectors: scan for
// column-zero declaration starts, close each span at the next declaration
// (refined by brace-depth counting for brace languages), emit an "(imports)"
// header for leading lines, and fall back to the sliding window when the
// file has no recognizable declarations.
type patternChunker struct {
	language   string
	match      func(line string) (name string, ok bool)
	braceDepth bool
}

func (p *patternChunker) Language() string { return p.language }

func (p *patternChunker) Chunk(ctx context.Context, content, filePath string) ([]Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lines := splitLines(content)
	if len(lines) <= SmallFileLimit {
		return wholeFile(content, filePath, p.language, len(lines)), nil
	}

	var decls []declaration
	for i, line := range lines {
		if line == "" || isSpaceByte(line[0]) {
			continue
		}
		if name, ok := p.match(line); ok {
			decls = append(decls, declaration{line: i, name: name})
		}
	}

	if len(decls) == 0 {
		return slidingWindow(lines, filePath, p.language), nil
	}

	chunks := headerChunk(lines, decls[0].line, filePath, p.language, "(imports)")

	for idx, d := range decls {
		maxEnd := len(lines) - 1
		if idx+1 < len(decls) {
			maxEnd = decls[idx+1].line - 1
		}
		end := maxEnd
		if p.braceDepth {
			end = findBlockEnd(lines, d.line, maxEnd)
		}
		chunks = append(chunks, Chunk{
			Content:    joinRange(lines, d.line, end),
			FilePath:   filePath,
			StartLine:  d.line + 1,
			EndLine:    end + 1,
			SymbolName: d.name,
			Language:   p.language,
		})
	}
	return chunks, nil
}

// findBlockEnd walks lines from the declaration, tracking net brace depth per
// line. The span ends at the first line past the declaration where depth
// returns to zero or below after having risen, so a one-line binding without
// braces keeps the whole gap to the next declaration. A block left open by
// end-of-range is clamped to maxEnd.
func findBlockEnd(lines []string, start, maxEnd int) int {
	depth := 0
	rose := false
	for i := start; i <= maxEnd; i++ {
		depth += strings.Count(lines[i], "{") - strings.Count(lines[i], "}")
		if depth > 0 {
			rose = true
		}
		if rose && depth <= 0 && i > start {
			return i
		}
	}
	return maxEnd
}

// headerChunk wraps the lines before the first declaration, when any are
// non-blank, in a single labeled span.
func headerChunk(lines []string, firstDecl int, filePath, language, label string) []Chunk {
	if firstDecl == 0 {
		return nil
	}
	header := joinRange(lines, 0, firstDecl-1)
	if strings.TrimSpace(header) == "" {
		return nil
	}
	return []Chunk{{
		Content:    header,
		FilePath:   filePath,
		StartLine:  1,
		EndLine:    firstDecl,
		SymbolName: label,
		Language:   language,
	}}
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\v' || b == '\f'
}
