package chunk

import "strings"

// Cascade picks the best available detector for a file extension in fixed
// priority order: AST grammar, per-extension pattern detector, generic
// sliding window. Every tier that cannot serve falls through; selection
// never fails.
type Cascade struct {
	disableAST bool
}

// CascadeOption configures detector selection.
type CascadeOption func(*Cascade)

// WithoutAST skips the AST tier so the pattern detectors are selected
// directly. Escape hatch for a misbehaving grammar.
func WithoutAST() CascadeOption {
	return func(c *Cascade) { c.disableAST = true }
}

// NewCascade builds a detector selector.
func NewCascade(opts ...CascadeOption) *Cascade {
	c := &Cascade{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ForExtension returns the detector for ext (leading dot, any case).
func (c *Cascade) ForExtension(ext string) Chunker {
	ext = strings.ToLower(ext)
	if !c.disableAST {
		if ts := NewTreeSitterChunker(ext); ts != nil {
			return ts
		}
	}
	if p := patternFor(ext); p != nil {
		return p
	}
	return NewGenericChunker()
}

func patternFor(ext string) Chunker {
	switch ext {
	case ".py":
		return NewPythonChunker()
	case ".kt", ".kts":
		return NewKotlinChunker()
	case ".java":
		return NewJavaChunker()
	case ".sql":
		return NewSQLChunker()
	case ".js", ".jsx", ".ts", ".tsx":
		return NewJSTSChunker(ext)
	}
	return nil
}
