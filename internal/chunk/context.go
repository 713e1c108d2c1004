package chunk

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	semerrors "github.com/semindex/semindex/internal/errors"
)

// DefaultContextLines is how far a chunk is widened in each direction when
// the caller does not say.
const DefaultContextLines = 15

// Context is a chunk rendered with its surrounding lines. Marker prefixes
// on each line show where the chunk itself starts and ends inside the
// widened window.
type Context struct {
	Content string `json:"content"`
	// ActualStartLine and ActualEndLine are the widened window's bounds
	// in the file, 1-based.
	ActualStartLine int `json:"actual_start_line"`
	ActualEndLine   int `json:"actual_end_line"`
	// ChunkStartLine and ChunkEndLine locate the chunk inside Content,
	// 1-based from the top of the window.
	ChunkStartLine int    `json:"chunk_start_line"`
	ChunkEndLine   int    `json:"chunk_end_line"`
	FilePath       string `json:"file_path"`
}

// ExpandContext reads filePath and returns lines startLine..endLine widened
// by before and after lines, clamped to the file. Negative widths use
// DefaultContextLines.
func ExpandContext(filePath string, startLine, endLine, before, after int) (*Context, error) {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return nil, semerrors.New(semerrors.ErrCodeInvalidPath,
			fmt.Sprintf("invalid file path: %s", filePath), err)
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return nil, semerrors.New(semerrors.ErrCodeFileNotFound,
			fmt.Sprintf("file not found: %s", abs), err)
	}

	if startLine < 1 || endLine < 1 {
		return nil, semerrors.New(semerrors.ErrCodeInvalidInput, "line numbers must be >= 1", nil)
	}
	if startLine > endLine {
		return nil, semerrors.New(semerrors.ErrCodeInvalidInput,
			fmt.Sprintf("start line %d is after end line %d", startLine, endLine), nil)
	}
	if before < 0 {
		before = DefaultContextLines
	}
	if after < 0 {
		after = DefaultContextLines
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, semerrors.New(semerrors.ErrCodeFilePermission,
			fmt.Sprintf("cannot read file: %s", abs), err)
	}

	lines := splitLines(string(data))
	total := len(lines)
	if startLine > total {
		return nil, semerrors.New(semerrors.ErrCodeInvalidInput,
			fmt.Sprintf("start line %d exceeds file length %d", startLine, total), nil)
	}

	expandedStart := startLine - before
	if expandedStart < 1 {
		expandedStart = 1
	}
	expandedEnd := endLine + after
	if expandedEnd > total {
		expandedEnd = total
	}

	var b strings.Builder
	for i := expandedStart; i <= expandedEnd; i++ {
		if i > expandedStart {
			b.WriteByte('\n')
		}
		line := lines[i-1]
		switch {
		case i == startLine && i == endLine:
			b.WriteString(">>> CHUNK START >>> " + line + " <<< CHUNK END <<<")
		case i == startLine:
			b.WriteString(">>> CHUNK START >>> " + line)
		case i == endLine:
			b.WriteString("<<< CHUNK END <<<   " + line)
		default:
			b.WriteString("                    " + line)
		}
	}

	return &Context{
		Content:         b.String(),
		ActualStartLine: expandedStart,
		ActualEndLine:   expandedEnd,
		ChunkStartLine:  startLine - expandedStart + 1,
		ChunkEndLine:    endLine - expandedStart + 1,
		FilePath:        abs,
	}, nil
}
