package errors

import "fmt"

// SemError carries an error code plus everything the formatters need:
// category and severity for logs, a retryable flag for callers that loop,
// details and a suggestion for the user-facing renderers.
type SemError struct {
	Code       string
	Message    string
	Category   Category
	Severity   Severity
	Details    map[string]string
	Cause      error
	Retryable  bool
	Suggestion string
}

func (e *SemError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *SemError) Unwrap() error {
	return e.Cause
}

// Is matches SemErrors by code, so errors.Is works against a sentinel
// built with the same code.
func (e *SemError) Is(target error) bool {
	t, ok := target.(*SemError)
	return ok && e.Code == t.Code
}

// WithDetail attaches a key-value pair for formatters. Chainable.
func (e *SemError) WithDetail(key, value string) *SemError {
	if e.Details == nil {
		e.Details = map[string]string{}
	}
	e.Details[key] = value
	return e
}

// WithSuggestion sets the action the user should take. Chainable.
func (e *SemError) WithSuggestion(s string) *SemError {
	e.Suggestion = s
	return e
}

// New builds a SemError for code. Category, severity, and retryability all
// derive from the code itself, so call sites only pick the code.
func New(code string, message string, cause error) *SemError {
	return &SemError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap lifts a plain error into a SemError, reusing its message.
// Returns nil for a nil error.
func Wrap(code string, err error) *SemError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// Shorthand constructors for the common categories.

func ConfigError(message string, cause error) *SemError {
	return New(ErrCodeConfigInvalid, message, cause)
}

func ScanError(message string, cause error) *SemError {
	return New(ErrCodeScanFailed, message, cause)
}

func EmbedError(message string, cause error) *SemError {
	return New(ErrCodeEmbeddingFailed, message, cause)
}

func StoreError(message string, cause error) *SemError {
	return New(ErrCodeUpsertFailed, message, cause)
}

func SearchError(message string, cause error) *SemError {
	return New(ErrCodeSearchFailed, message, cause)
}

// IsRetryable reports whether err is a SemError marked retryable.
func IsRetryable(err error) bool {
	se, ok := err.(*SemError)
	return ok && se.Retryable
}

// GetCode returns err's error code, or "" for non-SemErrors.
func GetCode(err error) string {
	if se, ok := err.(*SemError); ok {
		return se.Code
	}
	return ""
}
