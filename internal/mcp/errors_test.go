package mcp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	semerrors "github.com/semindex/semindex/internal/errors"
)

func TestMapErrorNil(t *testing.T) {
	assert.Nil(t, MapError(nil))
}

func TestMapErrorByCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"project not indexed", semerrors.New(semerrors.ErrCodeProjectNotIndexed, "not indexed", nil), ErrCodeProjectNotIndexed},
		{"no collections", semerrors.New(semerrors.ErrCodeNoCollections, "nothing indexed", nil), ErrCodeProjectNotIndexed},
		{"provider mismatch", semerrors.New(semerrors.ErrCodeProviderMismatch, "wrong provider", nil), ErrCodeProviderMismatch},
		{"file not found", semerrors.New(semerrors.ErrCodeFileNotFound, "gone", nil), ErrCodeFileNotFound},
		{"empty query", semerrors.New(semerrors.ErrCodeQueryEmpty, "empty", nil), ErrCodeInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := MapError(tt.err)
			require.NotNil(t, mapped)
			assert.Equal(t, tt.want, mapped.Code)
		})
	}
}

func TestMapErrorByCategory(t *testing.T) {
	assert.Equal(t, ErrCodeEmbeddingFailed, MapError(semerrors.EmbedError("provider down", nil)).Code)
	assert.Equal(t, ErrCodeStoreFailed, MapError(semerrors.StoreError("disk full", nil)).Code)
	assert.Equal(t, ErrCodeWatchFailed, MapError(semerrors.New(semerrors.ErrCodeWatchFailed, "no inotify", nil)).Code)
}

func TestMapErrorIncludesSuggestion(t *testing.T) {
	err := semerrors.New(semerrors.ErrCodeProviderMismatch, "wrong provider", nil).
		WithSuggestion("re-index with force")

	mapped := MapError(err)
	assert.Contains(t, mapped.Message, "wrong provider")
	assert.Contains(t, mapped.Message, "re-index with force")
}

func TestMapErrorPlainError(t *testing.T) {
	mapped := MapError(errors.New("something odd"))
	assert.Equal(t, ErrCodeInternalError, mapped.Code)
	assert.Equal(t, "something odd", mapped.Message)
}

func TestMapErrorPassesThroughMCPError(t *testing.T) {
	orig := NewInvalidParamsError("bad input")
	assert.Same(t, orig, MapError(orig))
}
