package chunk

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// numberedLines builds n lines of distinct content so window boundaries are
// checkable by content as well as by line numbers.
func numberedLines(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i+1)
	}
	return lines
}

func TestGenericChunker_SmallFile_SingleChunk(t *testing.T) {
	// Given: a file at the generic small-file threshold
	content := buildFile(numberedLines(50)...)
	c := NewGenericChunker()

	// When: chunking
	chunks, err := c.Chunk(context.Background(), content, "notes.txt")
	require.NoError(t, err)

	// Then: one whole-file chunk
	require.Len(t, chunks, 1)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 50, chunks[0].EndLine)
	assert.Equal(t, content, chunks[0].Content)
	assert.Equal(t, "unknown", chunks[0].Language)
	assert.Empty(t, chunks[0].SymbolName)
}

func TestGenericChunker_LargeFile_WindowsOverlapByTen(t *testing.T) {
	// Given: a 120-line file
	c := NewGenericChunker()
	content := buildFile(numberedLines(120)...)

	// When: chunking
	chunks, err := c.Chunk(context.Background(), content, "data.csv")
	require.NoError(t, err)

	// Then: windows start every 40 lines and span 50, last clamped to EOF
	require.Len(t, chunks, 3)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 50, chunks[0].EndLine)
	assert.Equal(t, 41, chunks[1].StartLine)
	assert.Equal(t, 90, chunks[1].EndLine)
	assert.Equal(t, 81, chunks[2].StartLine)
	assert.Equal(t, 120, chunks[2].EndLine)
}

func TestGenericChunker_WindowContent_MatchesLineRange(t *testing.T) {
	// Given: a file just past the threshold
	lines := numberedLines(60)
	c := NewGenericChunker()

	// When: chunking
	chunks, err := c.Chunk(context.Background(), buildFile(lines...), "log.out")
	require.NoError(t, err)

	// Then: each window's content is exactly its declared line range
	require.Len(t, chunks, 2)
	assert.Equal(t, buildFile(lines[0:50]...), chunks[0].Content)
	assert.Equal(t, buildFile(lines[40:60]...), chunks[1].Content)
	assert.Equal(t, 41, chunks[1].StartLine)
	assert.Equal(t, 60, chunks[1].EndLine)
}

func TestGenericChunker_RepeatedRuns_IdenticalChunks(t *testing.T) {
	// Given: fixed content
	content := buildFile(numberedLines(95)...)
	c := NewGenericChunker()

	// When: chunking twice
	first, err := c.Chunk(context.Background(), content, "a.bin")
	require.NoError(t, err)
	second, err := c.Chunk(context.Background(), content, "a.bin")
	require.NoError(t, err)

	// Then: boundaries are identical run to run
	assert.Equal(t, first, second)
}
