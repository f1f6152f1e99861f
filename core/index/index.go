// Package index builds and queries an in-memory keyword index over a
// project's documentation and source files. The whole file set is rebuilt and
// swapped atomically on re-index, so concurrent queries always observe a
// fully-consistent snapshot.
package index

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Category tags an indexed file as documentation or source code. Fixed at
// creation, never reinterpreted.
type Category string

const (
	CategoryDoc  Category = "doc"
	CategoryCode Category = "code"
)

// File is one indexed file. Immutable once created.
type File struct {
	// Path is the file's path relative to its category root.
	Path string

	// Content is the raw file text.
	Content string

	// Category is the root this file was indexed under.
	Category Category

	// lower is the lowercased content, computed once so repeated searches do
	// not re-normalize per query.
	lower string
}

// Config controls what gets indexed.
type Config struct {
	// DocsDir is the documentation root. Empty disables doc indexing.
	DocsDir string `yaml:"docs_dir"`

	// CodeDir is the source root. Empty disables code indexing.
	CodeDir string `yaml:"code_dir"`

	// DocExtensions is the allow-list for documentation files.
	DocExtensions []string `yaml:"doc_extensions"`

	// CodeExtensions is the allow-list for source files.
	CodeExtensions []string `yaml:"code_extensions"`

	// ExcludeDirs are directory names pruned at any depth, by exact name.
	ExcludeDirs []string `yaml:"exclude_dirs"`

	// ExcludePatterns are optional glob patterns matched against relative
	// paths; matching files are skipped.
	ExcludePatterns []string `yaml:"exclude_patterns"`

	// MaxFileSize excludes files larger than this many bytes. The boundary is
	// inclusive: a file of exactly MaxFileSize bytes is indexed.
	MaxFileSize int64 `yaml:"max_file_size"`

	// APISpecPath optionally points at an external API spec file surfaced in
	// the project summary.
	APISpecPath string `yaml:"api_spec_path"`

	// Logger defaults to slog.Default.
	Logger *slog.Logger `yaml:"-"`
}

// DefaultMaxFileSize is the indexing size cutoff (100KB).
const DefaultMaxFileSize int64 = 100_000

// DefaultDocExtensions is the documentation allow-list.
var DefaultDocExtensions = []string{".md", ".mdx", ".txt", ".rst"}

// DefaultCodeExtensions is the source allow-list.
var DefaultCodeExtensions = []string{
	".go", ".js", ".jsx", ".ts", ".tsx", ".py", ".rb", ".rs", ".java",
	".kt", ".c", ".h", ".cpp", ".hpp", ".cs", ".php", ".swift", ".scala",
	".sh", ".sql", ".html", ".css", ".scss", ".vue", ".svelte",
	".json", ".yaml", ".yml", ".toml",
}

// DefaultExcludeDirs are directory names never descended into.
var DefaultExcludeDirs = []string{
	"node_modules", "dist", ".git", "build", ".next", "__pycache__",
	".venv", "vendor", ".turbo", ".cache", "coverage",
}

// ErrInvalidLimit indicates a negative result cap.
var ErrInvalidLimit = errors.New("result limit must not be negative")

const searchCacheSize = 256

// snapshot is one immutable generation of the indexed file set.
type snapshot struct {
	gen    uint64
	files  []*File
	byPath map[string]*File
}

// Index is the queryable corpus. All reads go through an atomically swapped
// snapshot pointer; Reindex is the only writer.
type Index struct {
	cfg    Config
	logger *slog.Logger

	snap  atomic.Pointer[snapshot]
	gen   atomic.Uint64
	cache *lru.Cache[string, []Match]
}

// New creates an empty index. Call Reindex to populate it.
func New(cfg Config) (*Index, error) {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if len(cfg.DocExtensions) == 0 {
		cfg.DocExtensions = DefaultDocExtensions
	}
	if len(cfg.CodeExtensions) == 0 {
		cfg.CodeExtensions = DefaultCodeExtensions
	}
	if len(cfg.ExcludeDirs) == 0 {
		cfg.ExcludeDirs = DefaultExcludeDirs
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	cache, err := lru.New[string, []Match](searchCacheSize)
	if err != nil {
		return nil, err
	}

	ix := &Index{
		cfg:    cfg,
		logger: cfg.Logger,
		cache:  cache,
	}
	ix.snap.Store(&snapshot{byPath: map[string]*File{}})
	return ix, nil
}

// Reindex rebuilds the file set from scratch and swaps it in atomically.
// Filesystem problems degrade to a partial (or empty) file set rather than
// failing the rebuild; the only returned errors are configuration mistakes
// such as uncompilable exclude patterns.
func (ix *Index) Reindex(ctx context.Context) error {
	scanner, err := newScanner(ix.cfg)
	if err != nil {
		return err
	}

	var files []*File
	if ix.cfg.DocsDir != "" {
		files = append(files, scanner.scan(ctx, ix.cfg.DocsDir, CategoryDoc, ix.cfg.DocExtensions)...)
	}
	if ix.cfg.CodeDir != "" {
		files = append(files, scanner.scan(ctx, ix.cfg.CodeDir, CategoryCode, ix.cfg.CodeExtensions)...)
	}

	byPath := make(map[string]*File, len(files))
	for _, f := range files {
		byPath[f.Path] = f
	}

	ix.snap.Store(&snapshot{
		gen:    ix.gen.Add(1),
		files:  files,
		byPath: byPath,
	})
	ix.cache.Purge()

	ix.logger.Info("index rebuilt", "files", len(files))
	return nil
}

// Files returns every indexed file in encounter order.
func (ix *Index) Files() []*File {
	return ix.snap.Load().files
}

// FilesByCategory returns indexed files of one category in encounter order.
func (ix *Index) FilesByCategory(cat Category) []*File {
	snap := ix.snap.Load()
	var out []*File
	for _, f := range snap.files {
		if f.Category == cat {
			out = append(out, f)
		}
	}
	return out
}

// Lookup returns the file at an exact relative path.
func (ix *Index) Lookup(path string) (*File, bool) {
	f, ok := ix.snap.Load().byPath[path]
	return f, ok
}

// Stats reports file counts by category.
func (ix *Index) Stats() (docs, code int) {
	for _, f := range ix.snap.Load().files {
		if f.Category == CategoryDoc {
			docs++
		} else {
			code++
		}
	}
	return docs, code
}

// APISpecPath returns the configured external API spec path, if any.
func (ix *Index) APISpecPath() string {
	return ix.cfg.APISpecPath
}
