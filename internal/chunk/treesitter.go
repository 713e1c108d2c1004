package chunk

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// TreeSitterChunker parses content with the registered grammar and chunks at
// the root node's declaration children. Compared with the pattern detectors
// it survives decorators, export wrappers, and multi-line signatures, and it
// additionally labels trailing module-level code.
type TreeSitterChunker struct {
	cfg *LanguageConfig
}

// NewTreeSitterChunker returns the AST detector for ext, or nil when no
// grammar is registered for that extension.
func NewTreeSitterChunker(ext string) *TreeSitterChunker {
	cfg, ok := DefaultRegistry().ByExtension(ext)
	if !ok {
		return nil
	}
	return &TreeSitterChunker{cfg: cfg}
}

// Language reports the detector identity.
func (t *TreeSitterChunker) Language() string { return t.cfg.Name }

// astDecl is a top-level declaration span in 0-indexed rows.
type astDecl struct {
	start int
	end   int
	name  string
}

// Chunk parses and splits content. Parse trouble never aborts: tree-sitter
// always yields a tree, and chunking proceeds on whatever it recovered.
func (t *TreeSitterChunker) Chunk(ctx context.Context, content, filePath string) ([]Chunk, error) {
	lines := splitLines(content)
	if len(lines) <= SmallFileLimit {
		return wholeFile(content, filePath, t.cfg.Name, len(lines)), nil
	}

	src := []byte(content)
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(t.cfg.Sitter)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		slog.Debug("parse recovered with errors, chunking partial tree",
			slog.String("path", filePath),
			slog.String("language", t.cfg.Name))
	}

	decls := t.collectDeclarations(root, src)
	if len(decls) == 0 {
		return slidingWindow(lines, filePath, t.cfg.Name), nil
	}

	chunks := headerChunk(lines, decls[0].start, filePath, t.cfg.Name, "(imports)")

	for _, d := range decls {
		chunks = append(chunks, Chunk{
			Content:    joinRange(lines, d.start, d.end),
			FilePath:   filePath,
			StartLine:  d.start + 1,
			EndLine:    d.end + 1,
			SymbolName: d.name,
			Language:   t.cfg.Name,
		})
	}

	lastEnd := decls[len(decls)-1].end
	if lastEnd < len(lines)-1 {
		trailing := joinRange(lines, lastEnd+1, len(lines)-1)
		if strings.TrimSpace(trailing) != "" {
			chunks = append(chunks, Chunk{
				Content:    trailing,
				FilePath:   filePath,
				StartLine:  lastEnd + 2,
				EndLine:    len(lines),
				SymbolName: "(trailing)",
				Language:   t.cfg.Name,
			})
		}
	}

	return chunks, nil
}

// collectDeclarations gathers the root's declaration children, ordered by
// start row, merging spans that overlap or sit on adjacent lines (gap of at
// most one). The merge de-duplicates an export wrapper and the declaration
// it directly surrounds.
func (t *TreeSitterChunker) collectDeclarations(root *sitter.Node, src []byte) []astDecl {
	var decls []astDecl
	for i := 0; i < int(root.ChildCount()); i++ {
		node := root.Child(i)
		if !t.cfg.TopLevelTypes[node.Type()] {
			continue
		}
		decls = append(decls, astDecl{
			start: int(node.StartPoint().Row),
			end:   int(node.EndPoint().Row),
			name:  t.extractName(node, src),
		})
	}

	sort.SliceStable(decls, func(i, j int) bool { return decls[i].start < decls[j].start })

	var merged []astDecl
	for _, d := range decls {
		if len(merged) > 0 && d.start <= merged[len(merged)-1].end+1 {
			prev := &merged[len(merged)-1]
			if d.end > prev.end {
				prev.end = d.end
			}
			if d.name != "" && prev.name == "" {
				prev.name = d.name
			}
			continue
		}
		merged = append(merged, d)
	}
	return merged
}

// extractName digs the symbol name out of a declaration node: unwrap wrapper
// nodes to the declaration they carry, look for an identifier-ish child, then
// one level deeper, and fall back to the node type as a last-resort label.
func (t *TreeSitterChunker) extractName(node *sitter.Node, src []byte) string {
	target := node
	if t.cfg.WrapperTypes[node.Type()] {
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if !t.cfg.WrapperTypes[child.Type()] && child.IsNamed() {
				target = child
				break
			}
		}
	}

	for i := 0; i < int(target.ChildCount()); i++ {
		child := target.Child(i)
		switch child.Type() {
		case "identifier", "name", "property_identifier", "type_identifier":
			return string(src[child.StartByte():child.EndByte()])
		}
	}

	for i := 0; i < int(target.ChildCount()); i++ {
		child := target.Child(i)
		if !child.IsNamed() {
			continue
		}
		for j := 0; j < int(child.ChildCount()); j++ {
			grandchild := child.Child(j)
			switch grandchild.Type() {
			case "identifier", "name":
				return string(src[grandchild.StartByte():grandchild.EndByte()])
			}
		}
	}

	return node.Type()
}
