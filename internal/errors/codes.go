// Package errors provides structured error handling for semindex.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration and input validation errors
//   - 2XX: Filesystem and scan errors
//   - 3XX: Chunking errors
//   - 4XX: Embedding provider errors
//   - 5XX: Storage errors
//   - 6XX: Watch errors
//   - 7XX: Search errors
//   - 8XX: Server errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration and validation errors.
	CategoryConfig Category = "CONFIG"
	// CategoryFS indicates filesystem and scan errors.
	CategoryFS Category = "FS"
	// CategoryChunk indicates chunk-boundary detection errors.
	CategoryChunk Category = "CHUNK"
	// CategoryEmbed indicates embedding provider errors.
	CategoryEmbed Category = "EMBED"
	// CategoryStore indicates storage errors.
	CategoryStore Category = "STORE"
	// CategoryWatch indicates file-watch errors.
	CategoryWatch Category = "WATCH"
	// CategorySearch indicates search errors.
	CategorySearch Category = "SEARCH"
	// CategoryServer indicates MCP server errors.
	CategoryServer Category = "SERVER"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config and validation errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"
	ErrCodeInvalidInput   = "ERR_103_INVALID_INPUT"
	ErrCodeInvalidPath    = "ERR_104_INVALID_PATH"
	ErrCodeQueryEmpty     = "ERR_105_QUERY_EMPTY"

	// Filesystem and scan errors (200-299)
	ErrCodeFileNotFound    = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission  = "ERR_202_FILE_PERMISSION"
	ErrCodeFileTooLarge    = "ERR_203_FILE_TOO_LARGE"
	ErrCodeNotAFile        = "ERR_204_NOT_A_FILE"
	ErrCodeProjectNotFound = "ERR_205_PROJECT_NOT_FOUND"
	ErrCodeScanFailed      = "ERR_206_SCAN_FAILED"

	// Chunking errors (300-399)
	ErrCodeChunkingFailed = "ERR_301_CHUNKING_FAILED"

	// Embedding errors (400-499)
	ErrCodeEmbeddingFailed     = "ERR_401_EMBEDDING_FAILED"
	ErrCodeProviderUnavailable = "ERR_402_PROVIDER_UNAVAILABLE"
	ErrCodeProviderMismatch    = "ERR_403_PROVIDER_MISMATCH"
	ErrCodeDimensionMismatch   = "ERR_404_DIMENSION_MISMATCH"
	ErrCodeModelMissing        = "ERR_405_MODEL_MISSING"

	// Storage errors (500-599)
	ErrCodeStoreOpen         = "ERR_501_STORE_OPEN"
	ErrCodeProjectNotIndexed = "ERR_502_PROJECT_NOT_INDEXED"
	ErrCodeUpsertFailed      = "ERR_503_UPSERT_FAILED"
	ErrCodeCorruptIndex      = "ERR_504_CORRUPT_INDEX"
	ErrCodeStoreLocked       = "ERR_505_STORE_LOCKED"

	// Watch errors (600-699)
	ErrCodeWatchFailed     = "ERR_601_WATCH_FAILED"
	ErrCodeNotWatching     = "ERR_602_NOT_WATCHING"
	ErrCodeAlreadyWatching = "ERR_603_ALREADY_WATCHING"

	// Search errors (700-799)
	ErrCodeSearchFailed  = "ERR_701_SEARCH_FAILED"
	ErrCodeNoCollections = "ERR_702_NO_COLLECTIONS"

	// Server errors (800-899)
	ErrCodeServerFailed = "ERR_801_SERVER_FAILED"
	ErrCodeToolFailed   = "ERR_802_TOOL_FAILED"
)

// categoryFromCode extracts category from the numeric portion of an error
// code, e.g. "101" from "ERR_101_CONFIG_NOT_FOUND".
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryServer
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryFS
	case '3':
		return CategoryChunk
	case '4':
		return CategoryEmbed
	case '5':
		return CategoryStore
	case '6':
		return CategoryWatch
	case '7':
		return CategorySearch
	default:
		return CategoryServer
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeCorruptIndex, ErrCodeStoreOpen:
		return SeverityFatal
	}

	if isRetryableCode(code) {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeProviderUnavailable, ErrCodeStoreLocked:
		return true
	default:
		return false
	}
}
