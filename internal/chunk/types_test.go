package chunk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint_SameContent_StableAcrossCalls(t *testing.T) {
	// Given: identical content
	content := []byte("def main():\n    pass\n")

	// When: fingerprinting twice
	first := Fingerprint(content)
	second := Fingerprint(content)

	// Then: the fingerprint is deterministic and 16 hex characters
	assert.Equal(t, first, second)
	assert.Len(t, first, 16)
	assert.Regexp(t, "^[0-9a-f]{16}$", first)
}

func TestFingerprint_DifferentContent_DifferentFingerprint(t *testing.T) {
	// Given: two contents differing by one byte
	a := Fingerprint([]byte("x = 1\n"))
	b := Fingerprint([]byte("x = 2\n"))

	// Then: fingerprints differ
	assert.NotEqual(t, a, b)
}

func TestID_SamePathAndOrdinal_Stable(t *testing.T) {
	// Given: a relative path and ordinal
	first := ID("src/main.py", 0)
	second := ID("src/main.py", 0)

	// Then: the ID is deterministic with an 8-hex prefix and ordinal suffix
	assert.Equal(t, first, second)
	assert.Regexp(t, "^[0-9a-f]{8}_0$", first)
}

func TestID_Ordinals_ShareFilePrefix(t *testing.T) {
	// Given: three chunks of the same file
	ids := []string{ID("pkg/util.go", 0), ID("pkg/util.go", 1), ID("pkg/util.go", 2)}

	// Then: IDs share the path prefix and differ only in ordinal
	prefix := ids[0][:9]
	assert.Equal(t, prefix+"0", ids[0])
	assert.Equal(t, prefix+"1", ids[1])
	assert.Equal(t, prefix+"2", ids[2])
}

func TestID_DifferentPaths_DifferentPrefix(t *testing.T) {
	// Given: the same ordinal under two paths
	a := ID("a.py", 0)
	b := ID("b.py", 0)

	// Then: prefixes differ so chunk IDs never collide across files
	assert.NotEqual(t, a, b)
}

func TestChunker_CanceledContext_ReturnsError(t *testing.T) {
	// Given: a canceled context
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chunkers := []Chunker{
		NewGenericChunker(),
		NewPythonChunker(),
		NewKotlinChunker(),
		NewJavaChunker(),
		NewJSTSChunker(".js"),
		NewSQLChunker(),
	}

	// When/Then: every chunker surfaces the cancellation
	for _, c := range chunkers {
		chunks, err := c.Chunk(ctx, "x = 1\n", "f")
		require.Error(t, err, "chunker %s should observe cancellation", c.Language())
		assert.Nil(t, chunks)
	}
}
