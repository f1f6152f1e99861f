package tools

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-git/v5"

	"github.com/docentsh/docent/core/index"
)

const (
	// readmeBudget caps the README excerpt in the project summary.
	readmeBudget = 3000

	// specPreviewLines caps the API spec preview in the project summary.
	specPreviewLines = 40

	// maxPathCandidates caps the retry suggestions on a read_file miss.
	maxPathCandidates = 20
)

// NewProjectRegistry builds the standard docent tool set over an index:
// search_docs, search_code, read_file, list_files, get_project_summary.
// repoRoot, when non-empty, lets get_project_summary report git head info.
func NewProjectRegistry(ix *index.Index, repoRoot string) *Registry {
	r := NewRegistry()

	querySchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Keywords to search for",
			},
		},
		"required": []any{"query"},
	}

	must := func(t Tool) {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}

	must(Tool{
		Name:        "search_docs",
		Description: "Search the project's documentation for keywords and return the most relevant excerpts.",
		InputSchema: querySchema,
		Handler:     searchHandler(ix, index.CategoryDoc, index.DefaultDocRadius, "documentation"),
	})

	must(Tool{
		Name:        "search_code",
		Description: "Search the project's source code for keywords and return the most relevant excerpts.",
		InputSchema: querySchema,
		Handler:     searchHandler(ix, index.CategoryCode, index.DefaultCodeRadius, "code"),
	})

	must(Tool{
		Name:        "read_file",
		Description: "Read an indexed file by its relative path.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Relative path of the file to read",
				},
			},
			"required": []any{"path"},
		},
		Handler: readFileHandler(ix),
	})

	must(Tool{
		Name:        "list_files",
		Description: "List all indexed files, optionally filtered by a path substring, grouped by category.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"filter": map[string]any{
					"type":        "string",
					"description": "Optional substring to filter paths",
				},
			},
		},
		Handler: listFilesHandler(ix),
	})

	must(Tool{
		Name:        "get_project_summary",
		Description: "Get an overview of the project: file counts, the README, and the API spec if present.",
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
		Handler:     summaryHandler(ix, repoRoot),
	})

	return r
}

// searchHandler returns ranked excerpts for one category. A search that finds
// nothing still returns an explanatory message, never an empty success.
func searchHandler(ix *index.Index, cat index.Category, radius int, label string) Handler {
	return func(ctx context.Context, args map[string]any) (*Result, error) {
		query := stringArg(args, "query")

		if len(ix.FilesByCategory(cat)) == 0 {
			return TextResult(fmt.Sprintf("No %s files are indexed.", label)), nil
		}

		matches, err := ix.Search(cat, query, 0)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return TextResult(fmt.Sprintf("No %s matches for %q.", label, query)), nil
		}

		segments := make([]string, 0, len(matches))
		for _, m := range matches {
			segments = append(segments, fmt.Sprintf("## %s (score %d)\n%s",
				m.File.Path, m.Score, index.Snippet(m.File.Content, query, radius)))
		}
		return TextResult(segments...), nil
	}
}

// readFileHandler reads one indexed file by exact relative path. On a miss it
// returns an error-flagged result with candidate paths to guide a retry.
func readFileHandler(ix *index.Index) Handler {
	return func(ctx context.Context, args map[string]any) (*Result, error) {
		p := stringArg(args, "path")

		if f, ok := ix.Lookup(p); ok {
			return TextResult(f.Content), nil
		}

		candidates := candidatePaths(ix, p)
		msg := fmt.Sprintf("File not found: %s", p)
		if len(candidates) > 0 {
			msg += "\nDid you mean one of:\n" + strings.Join(candidates, "\n")
		}
		return Errorf("%s", msg), nil
	}
}

// candidatePaths suggests up to maxPathCandidates indexed paths for a missed
// lookup: paths containing the requested base name, falling back to the first
// indexed paths when nothing is close.
func candidatePaths(ix *index.Index, missed string) []string {
	base := strings.ToLower(path.Base(missed))

	var close, all []string
	for _, f := range ix.Files() {
		if len(all) < maxPathCandidates {
			all = append(all, f.Path)
		}
		if base != "" && base != "." && strings.Contains(strings.ToLower(f.Path), base) {
			if len(close) < maxPathCandidates {
				close = append(close, f.Path)
			}
		}
	}

	if len(close) > 0 {
		return close
	}
	return all
}

// listFilesHandler lists indexed paths grouped by category, optionally
// substring-filtered.
func listFilesHandler(ix *index.Index) Handler {
	return func(ctx context.Context, args map[string]any) (*Result, error) {
		filter := strings.ToLower(stringArg(args, "filter"))

		var docs, code []string
		for _, f := range ix.Files() {
			if filter != "" && !strings.Contains(strings.ToLower(f.Path), filter) {
				continue
			}
			if f.Category == index.CategoryDoc {
				docs = append(docs, f.Path)
			} else {
				code = append(code, f.Path)
			}
		}

		if len(docs) == 0 && len(code) == 0 {
			if filter != "" {
				return TextResult(fmt.Sprintf("No indexed files match %q.", filter)), nil
			}
			return TextResult("No files are indexed."), nil
		}

		var b strings.Builder
		if len(docs) > 0 {
			b.WriteString(fmt.Sprintf("Documentation (%d):\n  %s\n", len(docs), strings.Join(docs, "\n  ")))
		}
		if len(code) > 0 {
			b.WriteString(fmt.Sprintf("Code (%d):\n  %s\n", len(code), strings.Join(code, "\n  ")))
		}
		return TextResult(strings.TrimRight(b.String(), "\n")), nil
	}
}

// summaryHandler aggregates project stats, the README, the API spec preview,
// and git head info. Every enrichment degrades silently when its source is
// absent.
func summaryHandler(ix *index.Index, repoRoot string) Handler {
	return func(ctx context.Context, args map[string]any) (*Result, error) {
		docs, code := ix.Stats()

		segments := []string{
			fmt.Sprintf("Indexed files: %d documentation, %d code.", docs, code),
		}

		if head := repoHead(repoRoot); head != "" {
			segments = append(segments, head)
		}

		if readme := findReadme(ix); readme != nil {
			segments = append(segments, "## README ("+readme.Path+")\n"+truncate(readme.Content, readmeBudget))
		}

		if preview := specPreview(ix.APISpecPath()); preview != "" {
			segments = append(segments, "## API spec preview\n"+preview)
		}

		return TextResult(segments...), nil
	}
}

// repoHead reports the current branch and commit when root is inside a git
// repository, and nothing otherwise.
func repoHead(root string) string {
	if root == "" {
		return ""
	}

	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}

	head, err := repo.Head()
	if err != nil {
		return ""
	}

	return fmt.Sprintf("Git: %s @ %s", head.Name().Short(), head.Hash().String()[:8])
}

// findReadme locates the first indexed file whose base name starts with
// "readme", documentation first.
func findReadme(ix *index.Index) *index.File {
	for _, cat := range []index.Category{index.CategoryDoc, index.CategoryCode} {
		for _, f := range ix.FilesByCategory(cat) {
			if strings.HasPrefix(strings.ToLower(path.Base(f.Path)), "readme") {
				return f
			}
		}
	}
	return nil
}

// specPreview returns the first specPreviewLines lines of the API spec file.
func specPreview(specPath string) string {
	if specPath == "" {
		return ""
	}

	f, err := os.Open(specPath)
	if err != nil {
		return ""
	}
	defer f.Close()

	var lines []string
	s := bufio.NewScanner(f)
	for len(lines) < specPreviewLines && s.Scan() {
		lines = append(lines, s.Text())
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n")
}

// truncate cuts s at budget characters with a marker.
func truncate(s string, budget int) string {
	if len(s) <= budget {
		return s
	}
	return s[:budget] + "\n...[truncated]"
}
