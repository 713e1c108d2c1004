package embed

import (
	"context"
	"hash/fnv"
	"regexp"
	"strings"
	"unicode"
)

// StaticDimensions is the vector width of the built-in hash embedder.
const StaticDimensions = 384

// Blend weights for the two hashing channels.
const (
	tokenWeight = 0.7
	ngramWeight = 0.3
	ngramSize   = 3
)

// tokenRegex matches alphanumeric runs; everything else separates tokens.
var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9]+`)

// programmingStopWords are language keywords too common to carry meaning.
var programmingStopWords = map[string]bool{
	"func": true, "function": true, "def": true, "class": true,
	"return": true, "import": true, "const": true, "var": true,
	"let": true, "int": true, "string": true, "bool": true,
	"void": true, "true": true, "false": true, "nil": true,
	"null": true, "this": true, "self": true, "new": true,
}

// StaticEmbedder hashes tokens and character trigrams into a fixed-width
// vector. It needs no network and no model, and the same text always maps
// to the same vector, so search still works when every real provider is
// out of reach.
type StaticEmbedder struct{}

var _ Embedder = (*StaticEmbedder)(nil)

// NewStaticEmbedder returns the built-in fallback embedder.
func NewStaticEmbedder() *StaticEmbedder {
	return &StaticEmbedder{}
}

func (e *StaticEmbedder) Name() string    { return ProviderStatic }
func (e *StaticEmbedder) Model() string   { return "static" }
func (e *StaticEmbedder) Dimensions() int { return StaticDimensions }

// Available always reports true.
func (e *StaticEmbedder) Available(_ context.Context) bool { return true }

func (e *StaticEmbedder) Close() error { return nil }

// Embed hashes each text independently. Blank texts map to the zero
// vector.
func (e *StaticEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range sanitizeTexts(texts, DefaultMaxChars) {
		out[i] = embedStatic(text)
	}
	return out, nil
}

// embedStatic blends two channels: whole identifier-split tokens weighted
// at 0.7 and character trigrams weighted at 0.3, each hashed to a vector
// index with FNV-64. The result is unit-normalized.
func embedStatic(text string) []float32 {
	vector := make([]float32, StaticDimensions)
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return vector
	}

	for _, token := range filterStopWords(tokenize(trimmed)) {
		vector[hashToIndex(token, StaticDimensions)] += tokenWeight
	}
	for _, ngram := range extractNgrams(normalizeForNgrams(trimmed), ngramSize) {
		vector[hashToIndex(ngram, StaticDimensions)] += ngramWeight
	}

	return normalizeVector(vector)
}

// tokenize splits text into lowercase tokens, breaking camelCase and
// snake_case identifiers into their words.
func tokenize(text string) []string {
	var tokens []string
	for _, word := range tokenRegex.FindAllString(text, -1) {
		for _, t := range splitCodeToken(word) {
			tokens = append(tokens, strings.ToLower(t))
		}
	}
	return tokens
}

// splitCodeToken splits snake_case first, then camelCase within each part.
func splitCodeToken(token string) []string {
	if !strings.Contains(token, "_") {
		return splitCamelCase(token)
	}
	var words []string
	for _, part := range strings.Split(token, "_") {
		if part != "" {
			words = append(words, splitCamelCase(part)...)
		}
	}
	return words
}

// splitCamelCase splits on lower-to-upper boundaries. An uppercase run
// stays together until a lowercase letter follows, so HTTPServer becomes
// HTTP and Server.
func splitCamelCase(s string) []string {
	if s == "" {
		return nil
	}

	runes := []rune(s)
	var words []string
	start := 0
	for i := 1; i < len(runes); i++ {
		if !unicode.IsUpper(runes[i]) {
			continue
		}
		boundary := unicode.IsLower(runes[i-1]) ||
			(i+1 < len(runes) && unicode.IsLower(runes[i+1]))
		if boundary && i > start {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	return append(words, string(runes[start:]))
}

func filterStopWords(tokens []string) []string {
	kept := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if programmingStopWords[t] {
			continue
		}
		kept = append(kept, t)
	}
	return kept
}

// normalizeForNgrams lowercases and keeps only letters and digits, so
// getUserName and get_user_name produce the same trigrams.
func normalizeForNgrams(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, text)
}

// extractNgrams returns every n-byte sliding window of text.
func extractNgrams(text string, n int) []string {
	if len(text) < n {
		return nil
	}
	windows := make([]string, len(text)-n+1)
	for i := range windows {
		windows[i] = text[i : i+n]
	}
	return windows
}

// hashToIndex maps a string to a vector index with FNV-64.
func hashToIndex(s string, size int) int {
	h := fnv.New64()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(size))
}
