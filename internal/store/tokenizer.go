package store

import (
	"regexp"
	"strings"
	"unicode"
)

// identRegex matches identifier-shaped runs: letters, digits, underscores.
var identRegex = regexp.MustCompile(`[a-zA-Z0-9_]+`)

// codeStopWords are language keywords and throwaway identifier names that
// carry no signal in a code search.
var codeStopWords = []string{
	"var", "let", "const", "func", "function", "def", "class",
	"return", "if", "else", "for", "while",
	"data", "result", "value", "item", "key", "err", "ctx", "tmp",
}

// TokenizeCode splits text into lowercased search terms using code-aware
// rules: identifiers are broken on snake_case and camelCase boundaries,
// and tokens shorter than two characters are dropped.
func TokenizeCode(text string) []string {
	var tokens []string
	for _, word := range identRegex.FindAllString(text, -1) {
		for _, t := range SplitCodeToken(word) {
			if len(t) < 2 {
				continue
			}
			tokens = append(tokens, strings.ToLower(t))
		}
	}
	return tokens
}

// SplitCodeToken splits an identifier on snake_case and camelCase boundaries.
func SplitCodeToken(token string) []string {
	if !strings.Contains(token, "_") {
		return SplitCamelCase(token)
	}
	var parts []string
	for _, part := range strings.Split(token, "_") {
		if part == "" {
			continue
		}
		parts = append(parts, SplitCamelCase(part)...)
	}
	return parts
}

// SplitCamelCase splits camelCase and PascalCase identifiers, keeping
// acronym runs together: "parseHTTPRequest" -> ["parse", "HTTP", "Request"].
func SplitCamelCase(s string) []string {
	if s == "" {
		return []string{}
	}

	runes := []rune(s)
	var parts []string
	start := 0
	for i := 1; i < len(runes); i++ {
		if !unicode.IsUpper(runes[i]) {
			continue
		}
		// An upper rune starts a new word when it follows a lower rune,
		// or when it ends an acronym run before a lower rune.
		newWord := unicode.IsLower(runes[i-1]) ||
			(i+1 < len(runes) && unicode.IsLower(runes[i+1]))
		if newWord && i > start {
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}
	return append(parts, string(runes[start:]))
}

func buildStopWordMap(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[strings.ToLower(w)] = struct{}{}
	}
	return m
}
