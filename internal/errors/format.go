package errors

import (
	"fmt"
	"strings"
)

// FormatForCLI renders err for stderr. Plain errors get wrapped so every
// CLI failure shows a code.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}
	se, ok := err.(*SemError)
	if !ok {
		se = Wrap(ErrCodeServerFailed, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Error: %s\n", se.Message)
	if se.Suggestion != "" {
		fmt.Fprintf(&b, "  Hint: %s\n", se.Suggestion)
	}
	fmt.Fprintf(&b, "  Code: %s\n", se.Code)
	return b.String()
}

// FormatForLog flattens err into slog attributes. Detail keys get a
// "detail_" prefix so they cannot shadow the fixed attributes.
func FormatForLog(err error) map[string]any {
	if err == nil {
		return nil
	}
	se, ok := err.(*SemError)
	if !ok {
		return map[string]any{"error": err.Error()}
	}

	attrs := map[string]any{
		"error_code": se.Code,
		"message":    se.Message,
		"category":   string(se.Category),
		"severity":   string(se.Severity),
		"retryable":  se.Retryable,
	}
	if se.Cause != nil {
		attrs["cause"] = se.Cause.Error()
	}
	if se.Suggestion != "" {
		attrs["suggestion"] = se.Suggestion
	}
	for k, v := range se.Details {
		attrs["detail_"+k] = v
	}
	return attrs
}
