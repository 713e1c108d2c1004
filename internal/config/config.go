package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ProjectType classifies a project by its build/manifest marker files.
type ProjectType string

const (
	ProjectTypeGo      ProjectType = "go"
	ProjectTypeNode    ProjectType = "node"
	ProjectTypePython  ProjectType = "python"
	ProjectTypeKotlin  ProjectType = "kotlin"
	ProjectTypeJava    ProjectType = "java"
	ProjectTypeUnknown ProjectType = "unknown"
)

// Config is the complete semindex configuration.
type Config struct {
	Version   int             `yaml:"version" json:"version"`
	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Indexing  IndexingConfig  `yaml:"indexing" json:"indexing"`
	Embedding EmbeddingConfig `yaml:"embedding" json:"embedding"`
	Watch     WatchConfig     `yaml:"watch" json:"watch"`
	Search    SearchConfig    `yaml:"search" json:"search"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// StorageConfig locates the data home where collections, indexes, usage
// metrics, and logs live.
type StorageConfig struct {
	// Home overrides the data home directory. Empty uses ~/.semindex,
	// or $SEMINDEX_HOME when set.
	Home string `yaml:"home" json:"home"`
}

// IndexingConfig controls which files a scan considers and how chunks are
// batched for embedding.
type IndexingConfig struct {
	// ExcludeDirs are directory names skipped during scans. Values from
	// config files are added to the built-in list, not replacing it.
	ExcludeDirs []string `yaml:"exclude_dirs" json:"exclude_dirs"`

	// ExcludeExts are file name suffixes skipped during scans (".pyc",
	// ".min.js"). Added to the built-in list.
	ExcludeExts []string `yaml:"exclude_exts" json:"exclude_exts"`

	// MaxFileSize is the per-file size ceiling in bytes. Larger files are
	// skipped, not errored. 0 disables the limit.
	MaxFileSize int64 `yaml:"max_file_size" json:"max_file_size"`

	// BatchSize is the number of chunks sent to the embedding provider per
	// call during a full scan.
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// Gitignore honors .gitignore rules while scanning. Unset means true.
	Gitignore *bool `yaml:"gitignore" json:"gitignore"`
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	// Provider is one of ollama, google, openai, voyage, static. Empty
	// triggers auto-detection: ollama reachable, then keyed cloud
	// providers, then static.
	Provider string `yaml:"provider" json:"provider"`

	// Model overrides the provider's default model.
	Model string `yaml:"model" json:"model"`

	// Dimensions overrides the provider's vector width. 0 auto-detects.
	Dimensions int `yaml:"dimensions" json:"dimensions"`

	// OllamaHost is the Ollama endpoint. Empty uses $OLLAMA_HOST or
	// http://localhost:11434.
	OllamaHost string `yaml:"ollama_host" json:"ollama_host"`

	// MaxChars truncates each text before embedding. 0 disables.
	MaxChars int `yaml:"max_chars" json:"max_chars"`

	// CacheSize is the embedding LRU cache capacity in entries. 0 disables
	// the cache.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// WatchConfig tunes the file watcher.
type WatchConfig struct {
	// Debounce is the quiet period after the last write event before a
	// changed file is re-indexed, as a Go duration string ("2s", "500ms").
	Debounce string `yaml:"debounce" json:"debounce"`
}

// SearchConfig tunes query behavior.
type SearchConfig struct {
	// TopK is the default number of results returned.
	TopK int `yaml:"top_k" json:"top_k"`

	// Hybrid fuses keyword and vector rankings. Unset means true; false
	// searches vectors only.
	Hybrid *bool `yaml:"hybrid" json:"hybrid"`

	// RRFConstant is the reciprocal-rank-fusion smoothing parameter (k).
	// 60 is the widely used default.
	RRFConstant int `yaml:"rrf_constant" json:"rrf_constant"`
}

// LoggingConfig tunes the structured log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" json:"level"`

	// File is the log file path. Empty uses <data-home>/logs/semindex.log.
	File string `yaml:"file" json:"file"`

	MaxSizeMB int `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int `yaml:"max_files" json:"max_files"`
}

// defaultExcludeDirs are directory names never descended into.
var defaultExcludeDirs = []string{
	".git", ".idea", ".vscode", "node_modules", "__pycache__",
	".gradle", "build", "dist", "target", ".next", "venv", ".venv",
	".mypy_cache", ".pytest_cache", ".tox", "vendor",
}

// defaultExcludeExts are file suffixes never indexed: compiled artifacts,
// media, archives, lockfiles, and minified bundles.
var defaultExcludeExts = []string{
	".pyc", ".class", ".jar", ".war", ".o", ".so", ".dylib",
	".exe", ".dll", ".png", ".jpg", ".jpeg", ".gif", ".svg",
	".ico", ".woff", ".woff2", ".ttf", ".eot", ".mp3", ".mp4",
	".zip", ".tar", ".gz", ".lock", ".min.js", ".min.css",
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Storage: StorageConfig{
			Home: "",
		},
		Indexing: IndexingConfig{
			ExcludeDirs: defaultExcludeDirs,
			ExcludeExts: defaultExcludeExts,
			MaxFileSize: 500_000,
			BatchSize:   20,
			Gitignore:   nil, // unset = true
		},
		Embedding: EmbeddingConfig{
			Provider:   "", // empty triggers auto-detection
			Model:      "", // empty uses the provider default
			Dimensions: 0,  // auto-detect from provider
			OllamaHost: "",
			MaxChars:   6000,
			CacheSize:  1000,
		},
		Watch: WatchConfig{
			Debounce: "2s",
		},
		Search: SearchConfig{
			TopK:        5,
			Hybrid:      nil, // unset = true
			RRFConstant: 60,
		},
		Logging: LoggingConfig{
			Level:     "info",
			File:      "",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// DataHome returns the data home directory: $SEMINDEX_HOME when set,
// otherwise ~/.semindex. Falls back to the temp directory when the home
// directory is unavailable.
func DataHome() string {
	if v := os.Getenv("SEMINDEX_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".semindex")
	}
	return filepath.Join(home, ".semindex")
}

// DataDir resolves the effective data home for this configuration.
func (c *Config) DataDir() string {
	if c.Storage.Home != "" {
		return c.Storage.Home
	}
	return DataHome()
}

// LogFile resolves the effective log file path.
func (c *Config) LogFile() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	return filepath.Join(c.DataDir(), "logs", "semindex.log")
}

// WatchDebounce parses the configured debounce window. Validate guarantees
// the string parses; a zero-value Config still gets the 2s default.
func (c *Config) WatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d < 0 {
		return 2 * time.Second
	}
	return d
}

// HybridEnabled reports whether keyword+vector fusion is on.
func (s SearchConfig) HybridEnabled() bool {
	return s.Hybrid == nil || *s.Hybrid
}

// GitignoreEnabled reports whether .gitignore rules apply during scans.
func (i IndexingConfig) GitignoreEnabled() bool {
	return i.Gitignore == nil || *i.Gitignore
}

// UserConfigPath returns the path of the user configuration file. It lives
// inside the data home so one directory holds everything semindex owns.
// Note Storage.Home cannot relocate it: the file defines that setting.
func UserConfigPath() string {
	return filepath.Join(DataHome(), "config.yaml")
}

// UserConfigDir returns the directory containing the user configuration.
func UserConfigDir() string {
	return filepath.Dir(UserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(UserConfigPath())
}

// loadUserConfig loads the user configuration file if present.
// A missing file is not an error.
func loadUserConfig() (*Config, error) {
	path := UserConfigPath()
	if !fileExists(path) {
		return nil, nil
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", path, err)
	}
	return cfg, nil
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

// Load builds the effective configuration for a project directory.
// Sources apply in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (<data-home>/config.yaml)
//  3. Project config (.semindex.yaml in the project root)
//  4. Environment variables (SEMINDEX_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFile builds configuration from defaults plus one explicit file,
// skipping the user and project config lookup. Environment variables still
// take precedence.
func LoadFile(path string) (*Config, error) {
	cfg := NewConfig()

	if err := cfg.loadYAML(path); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads .semindex.yaml or .semindex.yml from dir, .yaml first.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".semindex.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".semindex.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	// No project config is fine.
	return nil
}

// loadYAML parses a YAML file into a fresh struct and merges the non-zero
// values into c, so partial files only override what they mention.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith copies non-zero values from other into c. Exclude lists append
// to the existing entries so config files extend the built-in ignore rules
// rather than silently dropping them.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Storage.Home != "" {
		c.Storage.Home = other.Storage.Home
	}

	if len(other.Indexing.ExcludeDirs) > 0 {
		c.Indexing.ExcludeDirs = append(c.Indexing.ExcludeDirs, other.Indexing.ExcludeDirs...)
	}
	if len(other.Indexing.ExcludeExts) > 0 {
		c.Indexing.ExcludeExts = append(c.Indexing.ExcludeExts, other.Indexing.ExcludeExts...)
	}
	if other.Indexing.MaxFileSize != 0 {
		c.Indexing.MaxFileSize = other.Indexing.MaxFileSize
	}
	if other.Indexing.BatchSize != 0 {
		c.Indexing.BatchSize = other.Indexing.BatchSize
	}
	if other.Indexing.Gitignore != nil {
		c.Indexing.Gitignore = other.Indexing.Gitignore
	}

	if other.Embedding.Provider != "" {
		c.Embedding.Provider = other.Embedding.Provider
	}
	if other.Embedding.Model != "" {
		c.Embedding.Model = other.Embedding.Model
	}
	if other.Embedding.Dimensions != 0 {
		c.Embedding.Dimensions = other.Embedding.Dimensions
	}
	if other.Embedding.OllamaHost != "" {
		c.Embedding.OllamaHost = other.Embedding.OllamaHost
	}
	if other.Embedding.MaxChars != 0 {
		c.Embedding.MaxChars = other.Embedding.MaxChars
	}
	if other.Embedding.CacheSize != 0 {
		c.Embedding.CacheSize = other.Embedding.CacheSize
	}

	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
	}

	if other.Search.TopK != 0 {
		c.Search.TopK = other.Search.TopK
	}
	if other.Search.Hybrid != nil {
		c.Search.Hybrid = other.Search.Hybrid
	}
	if other.Search.RRFConstant != 0 {
		c.Search.RRFConstant = other.Search.RRFConstant
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}
}

// applyEnvOverrides applies SEMINDEX_* environment variable overrides.
// Provider API keys (OPENAI_API_KEY and friends) are read by the embedding
// layer directly, not here.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SEMINDEX_HOME"); v != "" {
		c.Storage.Home = v
	}
	if v := os.Getenv("SEMINDEX_EMBEDDING_PROVIDER"); v != "" {
		c.Embedding.Provider = v
	}
	if v := os.Getenv("SEMINDEX_EMBEDDING_MODEL"); v != "" {
		c.Embedding.Model = v
	}
	if v := os.Getenv("SEMINDEX_OLLAMA_HOST"); v != "" {
		c.Embedding.OllamaHost = v
	}
	if v := os.Getenv("SEMINDEX_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Indexing.BatchSize = n
		}
	}
	if v := os.Getenv("SEMINDEX_MAX_FILE_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			c.Indexing.MaxFileSize = n
		}
	}
	if v := os.Getenv("SEMINDEX_WATCH_DEBOUNCE"); v != "" {
		c.Watch.Debounce = v
	}
	if v := os.Getenv("SEMINDEX_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.TopK = n
		}
	}
	if v := os.Getenv("SEMINDEX_RRF_CONSTANT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.RRFConstant = n
		}
	}
	if v := os.Getenv("SEMINDEX_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// validProviders are the accepted embedding provider names. Empty string
// means auto-detect and is also accepted.
var validProviders = map[string]bool{
	"ollama": true,
	"google": true,
	"openai": true,
	"voyage": true,
	"static": true,
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if p := strings.ToLower(c.Embedding.Provider); p != "" && !validProviders[p] {
		return fmt.Errorf("embedding.provider must be ollama, google, openai, voyage, static, or empty (auto-detect), got %q", c.Embedding.Provider)
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must be non-negative, got %d", c.Embedding.Dimensions)
	}
	if c.Embedding.MaxChars < 0 {
		return fmt.Errorf("embedding.max_chars must be non-negative, got %d", c.Embedding.MaxChars)
	}
	if c.Embedding.CacheSize < 0 {
		return fmt.Errorf("embedding.cache_size must be non-negative, got %d", c.Embedding.CacheSize)
	}

	if c.Indexing.BatchSize < 1 {
		return fmt.Errorf("indexing.batch_size must be at least 1, got %d", c.Indexing.BatchSize)
	}
	if c.Indexing.MaxFileSize < 0 {
		return fmt.Errorf("indexing.max_file_size must be non-negative, got %d", c.Indexing.MaxFileSize)
	}

	if d, err := time.ParseDuration(c.Watch.Debounce); err != nil {
		return fmt.Errorf("watch.debounce is not a valid duration: %q", c.Watch.Debounce)
	} else if d < 0 {
		return fmt.Errorf("watch.debounce must be non-negative, got %s", c.Watch.Debounce)
	}

	if c.Search.TopK < 1 {
		return fmt.Errorf("search.top_k must be at least 1, got %d", c.Search.TopK)
	}
	if c.Search.RRFConstant < 1 {
		return fmt.Errorf("search.rrf_constant must be at least 1, got %d", c.Search.RRFConstant)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	if c.Logging.MaxSizeMB < 1 {
		return fmt.Errorf("logging.max_size_mb must be at least 1, got %d", c.Logging.MaxSizeMB)
	}
	if c.Logging.MaxFiles < 1 {
		return fmt.Errorf("logging.max_files must be at least 1, got %d", c.Logging.MaxFiles)
	}

	return nil
}

// YAML renders the configuration as YAML for display and export.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// DetectProjectType classifies a project directory by its marker files.
// Priority: go.mod > package.json > pyproject.toml/requirements.txt >
// Gradle Kotlin scripts > pom.xml/Gradle Groovy scripts.
func DetectProjectType(dir string) ProjectType {
	if fileExists(filepath.Join(dir, "go.mod")) {
		return ProjectTypeGo
	}
	if fileExists(filepath.Join(dir, "package.json")) {
		return ProjectTypeNode
	}
	if fileExists(filepath.Join(dir, "pyproject.toml")) ||
		fileExists(filepath.Join(dir, "requirements.txt")) {
		return ProjectTypePython
	}
	if fileExists(filepath.Join(dir, "build.gradle.kts")) ||
		fileExists(filepath.Join(dir, "settings.gradle.kts")) {
		return ProjectTypeKotlin
	}
	if fileExists(filepath.Join(dir, "pom.xml")) ||
		fileExists(filepath.Join(dir, "build.gradle")) ||
		fileExists(filepath.Join(dir, "settings.gradle")) {
		return ProjectTypeJava
	}
	return ProjectTypeUnknown
}

// FindProjectRoot walks up from startDir looking for a .git directory or a
// .semindex.yaml/.yml file. Returns startDir (absolute) when nothing is
// found.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}
		if fileExists(filepath.Join(currentDir, ".semindex.yaml")) ||
			fileExists(filepath.Join(currentDir, ".semindex.yml")) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// dirExists checks if a directory exists.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// String returns the project type name.
func (p ProjectType) String() string {
	return string(p)
}

// IsKnown returns true if the project type was detected.
func (p ProjectType) IsKnown() bool {
	return p != ProjectTypeUnknown
}
