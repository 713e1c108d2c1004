// Package mcp exposes the index over the Model Context Protocol so AI
// clients can index projects, search them, and manage watches through one
// stdio server.
package mcp

import (
	"errors"
	"fmt"

	semerrors "github.com/semindex/semindex/internal/errors"
)

// Custom MCP error codes, alongside the standard JSON-RPC ones.
const (
	ErrCodeProjectNotIndexed = -32001
	ErrCodeEmbeddingFailed   = -32002
	ErrCodeProviderMismatch  = -32003
	ErrCodeFileNotFound      = -32004
	ErrCodeWatchFailed       = -32005
	ErrCodeStoreFailed       = -32006

	ErrCodeInvalidParams = -32602
	ErrCodeInternalError = -32603
)

// MCPError is an MCP protocol error with a JSON-RPC code.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// NewInvalidParamsError creates an invalid-params error.
func NewInvalidParamsError(message string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: message}
}

// MapError converts internal errors to MCP errors. Structured errors map by
// code first, then category; anything else is an internal error.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}
	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}

	var semErr *semerrors.SemError
	if !errors.As(err, &semErr) {
		return &MCPError{Code: ErrCodeInternalError, Message: err.Error()}
	}

	message := semErr.Message
	if semErr.Suggestion != "" {
		message += ". " + semErr.Suggestion
	}

	switch semErr.Code {
	case semerrors.ErrCodeProjectNotIndexed, semerrors.ErrCodeNoCollections:
		return &MCPError{Code: ErrCodeProjectNotIndexed, Message: message}
	case semerrors.ErrCodeProviderMismatch, semerrors.ErrCodeDimensionMismatch:
		return &MCPError{Code: ErrCodeProviderMismatch, Message: message}
	case semerrors.ErrCodeFileNotFound, semerrors.ErrCodeProjectNotFound:
		return &MCPError{Code: ErrCodeFileNotFound, Message: message}
	case semerrors.ErrCodeQueryEmpty, semerrors.ErrCodeInvalidInput, semerrors.ErrCodeInvalidPath:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	}

	switch semErr.Category {
	case semerrors.CategoryEmbed:
		return &MCPError{Code: ErrCodeEmbeddingFailed, Message: message}
	case semerrors.CategoryWatch:
		return &MCPError{Code: ErrCodeWatchFailed, Message: message}
	case semerrors.CategoryStore:
		return &MCPError{Code: ErrCodeStoreFailed, Message: message}
	case semerrors.CategoryConfig:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
