package chunk

import (
	"context"
	"regexp"
	"strings"
)

var (
	sqlStmt = regexp.MustCompile(`(?i)^\s*(?:CREATE|ALTER|DROP|INSERT|UPDATE|DELETE|SELECT|WITH|GRANT|REVOKE|BEGIN|COMMIT|MERGE)\b`)
	sqlName = regexp.MustCompile(`(?i)^\s*(CREATE|ALTER|DROP|INSERT|UPDATE|DELETE|SELECT)\s+(?:OR\s+REPLACE\s+)?(?:TABLE|VIEW|FUNCTION|PROCEDURE|INDEX|TYPE|TRIGGER)?\s*(\w+)?`)
)

// SQLChunker splits by statement boundaries. It differs from the other
// pattern detectors: statements may be indented, spans close at the next
// statement with no brace counting, the leading span is labeled "(header)",
// and a file with no recognizable statements stays one whole-file chunk.
type SQLChunker struct{}

// NewSQLChunker returns the SQL statement splitter.
func NewSQLChunker() *SQLChunker {
	return &SQLChunker{}
}

// Language reports the detector identity.
func (s *SQLChunker) Language() string { return "sql" }

// Chunk splits content at statement keywords.
func (s *SQLChunker) Chunk(ctx context.Context, content, filePath string) ([]Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lines := splitLines(content)
	if len(lines) <= SmallFileLimit {
		return wholeFile(content, filePath, s.Language(), len(lines)), nil
	}

	var starts []int
	for i, line := range lines {
		if sqlStmt.MatchString(line) {
			starts = append(starts, i)
		}
	}
	if len(starts) == 0 {
		return wholeFile(content, filePath, s.Language(), len(lines)), nil
	}

	chunks := headerChunk(lines, starts[0], filePath, s.Language(), "(header)")

	for idx, start := range starts {
		end := len(lines) - 1
		if idx+1 < len(starts) {
			end = starts[idx+1] - 1
		}
		chunks = append(chunks, Chunk{
			Content:    joinRange(lines, start, end),
			FilePath:   filePath,
			StartLine:  start + 1,
			EndLine:    end + 1,
			SymbolName: statementName(lines[start]),
			Language:   s.Language(),
		})
	}
	return chunks, nil
}

// statementName labels a statement with its uppercased verb plus the object
// name when one follows, e.g. "CREATE users". Statements outside the named
// verb set (WITH, BEGIN, GRANT, ...) stay unlabeled.
func statementName(line string) string {
	m := sqlName.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	name := strings.ToUpper(m[1])
	if m[2] != "" {
		name += " " + m[2]
	}
	return name
}
