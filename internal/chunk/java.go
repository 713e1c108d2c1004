package chunk

import "regexp"

var javaDecl = regexp.MustCompile(`^(?:(?:public|private|protected|static|final|abstract|sealed|non-sealed|strictfp)\s+)*(?:class|interface|enum|record|@interface)\s+(\w+)`)

// NewJavaChunker detects top-level type declarations (class, interface,
// enum, record, annotation type) with any run of modifiers in front.
// Methods live inside a type body and are absorbed by the enclosing span.
func NewJavaChunker() Chunker {
	return &patternChunker{
		language:   "java",
		braceDepth: true,
		match: func(line string) (string, bool) {
			m := javaDecl.FindStringSubmatch(line)
			if m == nil {
				return "", false
			}
			return m[1], true
		},
	}
}
