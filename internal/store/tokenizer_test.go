package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitCamelCase(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"simple camel", "getUserById", []string{"get", "User", "By", "Id"}},
		{"acronym run", "HTTPHandler", []string{"HTTP", "Handler"}},
		{"embedded acronym", "parseHTTPRequest", []string{"parse", "HTTP", "Request"}},
		{"single word", "handler", []string{"handler"}},
		{"empty", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitCamelCase(tt.input))
		})
	}
}

func TestSplitCodeToken(t *testing.T) {
	assert.Equal(t, []string{"max", "file", "size"}, SplitCodeToken("max_file_size"))
	assert.Equal(t, []string{"get", "User", "ID"}, SplitCodeToken("getUserID"))
	assert.Equal(t, []string{"parse", "Config", "file"}, SplitCodeToken("parseConfig_file"))
}

func TestTokenizeCode(t *testing.T) {
	tokens := TokenizeCode("func ParseConfigFile(path string) error")

	assert.Contains(t, tokens, "parse")
	assert.Contains(t, tokens, "config")
	assert.Contains(t, tokens, "file")
	assert.Contains(t, tokens, "path")
	assert.Contains(t, tokens, "string")
	assert.Contains(t, tokens, "error")
}

func TestTokenizeCodeDropsShortTokens(t *testing.T) {
	tokens := TokenizeCode("x = a + getB()")

	assert.NotContains(t, tokens, "x")
	assert.NotContains(t, tokens, "a")
	assert.NotContains(t, tokens, "b")
	assert.Contains(t, tokens, "get")
}

func TestCollectionName(t *testing.T) {
	name := CollectionName("/home/user/projects/my project")

	assert.Contains(t, name, "my_project")
	assert.Contains(t, name, "_")
	// Suffix is a 12-char hash of the path.
	assert.Len(t, name[len(name)-12:], 12)

	// Deterministic, and distinct paths get distinct names.
	assert.Equal(t, name, CollectionName("/home/user/projects/my project"))
	assert.NotEqual(t, name, CollectionName("/home/user/projects/other"))
}

func TestCollectionNameTruncatesLongBase(t *testing.T) {
	name := CollectionName("/tmp/this-is-an-extremely-long-project-directory-name-here")

	// base is capped at 30 chars plus "_" plus 12-char hash
	assert.LessOrEqual(t, len(name), 30+1+12)
}
