package chunk

import "context"

// GenericChunker is the cascade's last resort for unrecognized file types:
// fixed 50-line windows advancing 40 lines at a time. Files of 50 lines or
// fewer come back as one whole-file chunk.
type GenericChunker struct{}

// NewGenericChunker returns the sliding-window splitter.
func NewGenericChunker() *GenericChunker {
	return &GenericChunker{}
}

// Language reports the detector identity for generic chunks.
func (g *GenericChunker) Language() string { return "unknown" }

// Chunk splits content into overlapping fixed-size windows.
func (g *GenericChunker) Chunk(ctx context.Context, content, filePath string) ([]Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lines := splitLines(content)
	if len(lines) <= GenericSmallFileLimit {
		return wholeFile(content, filePath, g.Language(), len(lines)), nil
	}
	return slidingWindow(lines, filePath, g.Language()), nil
}

// slidingWindow covers all lines with WindowSize-high chunks every
// WindowStride lines. The final chunk may be shorter. Shared by the generic
// splitter and by any detector that finds zero declarations.
func slidingWindow(lines []string, filePath, language string) []Chunk {
	var chunks []Chunk
	for i := 0; i < len(lines); i += WindowStride {
		end := i + WindowSize
		if end > len(lines) {
			end = len(lines)
		}
		chunks = append(chunks, Chunk{
			Content:   joinRange(lines, i, end-1),
			FilePath:  filePath,
			StartLine: i + 1,
			EndLine:   end,
			Language:  language,
		})
	}
	return chunks
}
