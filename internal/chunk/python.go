package chunk

import "regexp"

var pythonDecl = regexp.MustCompile(`^(?:class|def|async\s+def)\s+(\w+)`)

// NewPythonChunker detects top-level def, async def, and class declarations.
// Spans run to the next declaration; Python's indentation makes brace
// counting meaningless, so nested bodies are absorbed by position alone.
func NewPythonChunker() Chunker {
	return &patternChunker{
		language: "python",
		match: func(line string) (string, bool) {
			m := pythonDecl.FindStringSubmatch(line)
			if m == nil {
				return "", false
			}
			return m[1], true
		},
	}
}
