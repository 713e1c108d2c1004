package chunk

import (
	"sort"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/sql"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// LanguageConfig describes how the AST detector treats one language: which
// grammar to parse with, which parse-tree root children count as top-level
// declarations, and which node types merely wrap the declaration they export.
type LanguageConfig struct {
	Name          string
	Sitter        *sitter.Language
	TopLevelTypes map[string]bool
	WrapperTypes  map[string]bool
}

// LanguageRegistry maps file extensions to AST language configs.
type LanguageRegistry struct {
	configs   map[string]*LanguageConfig
	extToLang map[string]string
}

// NewLanguageRegistry builds a registry with every supported grammar.
func NewLanguageRegistry() *LanguageRegistry {
	r := &LanguageRegistry{
		configs:   make(map[string]*LanguageConfig),
		extToLang: make(map[string]string),
	}
	r.registerPython()
	r.registerJavaScript()
	r.registerTypeScript()
	r.registerTSX()
	r.registerJava()
	r.registerKotlin()
	r.registerSQL()
	return r
}

func (r *LanguageRegistry) register(cfg *LanguageConfig, extensions ...string) {
	r.configs[cfg.Name] = cfg
	for _, ext := range extensions {
		r.extToLang[ext] = cfg.Name
	}
}

func (r *LanguageRegistry) registerPython() {
	r.register(&LanguageConfig{
		Name:   "python",
		Sitter: python.GetLanguage(),
		TopLevelTypes: typeSet(
			"function_definition",
			"class_definition",
			"decorated_definition",
		),
		WrapperTypes: typeSet("decorated_definition"),
	}, ".py")
}

func (r *LanguageRegistry) registerJavaScript() {
	r.register(&LanguageConfig{
		Name:   "javascript",
		Sitter: javascript.GetLanguage(),
		TopLevelTypes: typeSet(
			"function_declaration",
			"class_declaration",
			"export_statement",
			"lexical_declaration",
			"variable_declaration",
		),
		WrapperTypes: typeSet("export_statement"),
	}, ".js", ".jsx")
}

func (r *LanguageRegistry) registerTypeScript() {
	r.register(&LanguageConfig{
		Name:   "typescript",
		Sitter: typescript.GetLanguage(),
		TopLevelTypes: typeSet(
			"function_declaration",
			"class_declaration",
			"export_statement",
			"lexical_declaration",
			"variable_declaration",
			"interface_declaration",
			"type_alias_declaration",
			"enum_declaration",
		),
		WrapperTypes: typeSet("export_statement"),
	}, ".ts")
}

func (r *LanguageRegistry) registerTSX() {
	r.register(&LanguageConfig{
		Name:   "tsx",
		Sitter: tsx.GetLanguage(),
		TopLevelTypes: typeSet(
			"function_declaration",
			"class_declaration",
			"export_statement",
			"lexical_declaration",
			"variable_declaration",
			"interface_declaration",
			"type_alias_declaration",
			"enum_declaration",
		),
		WrapperTypes: typeSet("export_statement"),
	}, ".tsx")
}

func (r *LanguageRegistry) registerJava() {
	r.register(&LanguageConfig{
		Name:   "java",
		Sitter: java.GetLanguage(),
		TopLevelTypes: typeSet(
			"class_declaration",
			"interface_declaration",
			"enum_declaration",
			"method_declaration",
			"constructor_declaration",
			"annotation_type_declaration",
		),
	}, ".java")
}

func (r *LanguageRegistry) registerKotlin() {
	r.register(&LanguageConfig{
		Name:   "kotlin",
		Sitter: kotlin.GetLanguage(),
		TopLevelTypes: typeSet(
			"class_declaration",
			"object_declaration",
			"function_declaration",
			"property_declaration",
		),
	}, ".kt", ".kts")
}

func (r *LanguageRegistry) registerSQL() {
	r.register(&LanguageConfig{
		Name:   "sql",
		Sitter: sql.GetLanguage(),
		TopLevelTypes: typeSet(
			"create_table_statement",
			"create_view_statement",
			"create_function_statement",
			"select_statement",
			"insert_statement",
			"update_statement",
			"delete_statement",
		),
	}, ".sql")
}

// ByExtension returns the config registered for a file extension.
func (r *LanguageRegistry) ByExtension(ext string) (*LanguageConfig, bool) {
	name, ok := r.extToLang[ext]
	if !ok {
		return nil, false
	}
	cfg, ok := r.configs[name]
	return cfg, ok
}

// SupportedExtensions lists registered extensions, sorted.
func (r *LanguageRegistry) SupportedExtensions() []string {
	exts := make([]string, 0, len(r.extToLang))
	for ext := range r.extToLang {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func typeSet(types ...string) map[string]bool {
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}

var (
	defaultRegistry     *LanguageRegistry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the shared language registry.
func DefaultRegistry() *LanguageRegistry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewLanguageRegistry()
	})
	return defaultRegistry
}
