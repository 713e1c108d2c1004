package chunk

import "strings"

// buildFile joins lines into file content. Tests describe fixtures as line
// slices so expected boundaries stay readable.
func buildFile(lines ...string) string {
	return strings.Join(lines, "\n")
}

// blankLines returns n empty lines for padding fixtures past the small-file
// threshold.
func blankLines(n int) []string {
	return make([]string, n)
}

// withPadding appends n blank lines to the given lines.
func withPadding(lines []string, n int) string {
	return buildFile(append(append([]string{}, lines...), blankLines(n)...)...)
}
