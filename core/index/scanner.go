package index

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// ErrInvalidPattern indicates an exclude glob pattern could not be compiled.
var ErrInvalidPattern = errors.New("invalid exclude pattern")

// scanner walks a category root and collects indexable files. A missing root,
// an unreadable file, or an oversized file never aborts the walk; those
// entries are skipped and the rest of the tree is still indexed.
type scanner struct {
	excludeDirs     map[string]struct{}
	excludeMatchers []glob.Glob
	maxFileSize     int64
}

func newScanner(cfg Config) (*scanner, error) {
	dirs := make(map[string]struct{}, len(cfg.ExcludeDirs))
	for _, d := range cfg.ExcludeDirs {
		dirs[d] = struct{}{}
	}

	matchers := make([]glob.Glob, 0, len(cfg.ExcludePatterns))
	for _, pattern := range cfg.ExcludePatterns {
		matcher, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, errors.Join(ErrInvalidPattern, err)
		}
		matchers = append(matchers, matcher)
	}

	return &scanner{
		excludeDirs:     dirs,
		excludeMatchers: matchers,
		maxFileSize:     cfg.MaxFileSize,
	}, nil
}

// scan walks root and returns every matching file tagged with cat. Paths are
// relative to root.
func (s *scanner) scan(ctx context.Context, root string, cat Category, extensions []string) []*File {
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}

	var files []*File

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		select {
		case <-ctx.Done():
			return fs.SkipAll
		default:
		}

		if walkErr != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if s.shouldSkipDir(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}

		if _, ok := allowed[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if s.matchesExclude(rel, d.Name()) {
			return nil
		}

		if f := s.readFile(path, rel, cat); f != nil {
			files = append(files, f)
		}
		return nil
	})

	return files
}

// shouldSkipDir checks the exact-name deny-list. It applies at every depth,
// so a deny-listed name anywhere in the tree prunes that subtree.
func (s *scanner) shouldSkipDir(name string) bool {
	_, excluded := s.excludeDirs[name]
	return excluded
}

// matchesExclude returns true if the file matches any exclude glob.
func (s *scanner) matchesExclude(relPath, name string) bool {
	for _, matcher := range s.excludeMatchers {
		if matcher.Match(relPath) || matcher.Match(name) {
			return true
		}
	}
	return false
}

// readFile loads one file, applying the size cutoff. Stat or read failures
// skip the file silently.
func (s *scanner) readFile(path, rel string, cat Category) *File {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	if info.Size() > s.maxFileSize {
		return nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	raw := string(content)
	return &File{
		Path:     rel,
		Content:  raw,
		Category: cat,
		lower:    strings.ToLower(raw),
	}
}
