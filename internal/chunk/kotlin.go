package chunk

import "regexp"

var (
	kotlinDecl = regexp.MustCompile(`^(?:(?:public|private|protected|internal|abstract|open|data|sealed|inline|value|annotation|override|suspend)\s+)*(?:class|interface|object|fun|val|var)\s+`)
	kotlinName = regexp.MustCompile(`(?:class|interface|object|fun)\s+(\w+)`)
)

// NewKotlinChunker detects top-level class, interface, object, fun, val, and
// var declarations, with any run of modifiers in front. Handles .kt and .kts.
// Property bindings (val/var) carry no symbol name.
func NewKotlinChunker() Chunker {
	return &patternChunker{
		language:   "kotlin",
		braceDepth: true,
		match: func(line string) (string, bool) {
			if !kotlinDecl.MatchString(line) {
				return "", false
			}
			if m := kotlinName.FindStringSubmatch(line); m != nil {
				return m[1], true
			}
			return "", true
		},
	}
}
