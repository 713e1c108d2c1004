package chunk

import (
	"regexp"
	"strings"
)

var jsDecl = regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:async\s+)?(?:function\*?\s+(\w+)|class\s+(\w+)|(?:const|let|var)\s+(\w+)\s*=)`)

// NewJSTSChunker detects top-level function, class, and initialized
// const/let/var declarations, with optional export/default/async prefixes.
// The detector identity follows the extension: "typescript" for .ts and
// .tsx, "javascript" otherwise.
func NewJSTSChunker(ext string) Chunker {
	language := "javascript"
	if strings.EqualFold(ext, ".ts") || strings.EqualFold(ext, ".tsx") {
		language = "typescript"
	}
	return &patternChunker{
		language:   language,
		braceDepth: true,
		match: func(line string) (string, bool) {
			m := jsDecl.FindStringSubmatch(line)
			if m == nil {
				return "", false
			}
			for _, name := range m[1:] {
				if name != "" {
					return name, true
				}
			}
			return "", true
		},
	}
}
