package index

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T, files ...*File) *Index {
	t.Helper()

	ix, err := New(Config{})
	require.NoError(t, err)

	byPath := make(map[string]*File, len(files))
	for _, f := range files {
		f.lower = strings.ToLower(f.Content)
		byPath[f.Path] = f
	}
	ix.snap.Store(&snapshot{gen: ix.gen.Add(1), files: files, byPath: byPath})
	return ix
}

func TestSearchScoring(t *testing.T) {
	ix := newTestIndex(t,
		&File{Path: "guide.md", Content: "install install install", Category: CategoryDoc},
		&File{Path: "install.md", Content: "install once", Category: CategoryDoc},
		&File{Path: "other.md", Content: "nothing relevant", Category: CategoryDoc},
	)

	matches, err := ix.Search(CategoryDoc, "install", 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	// Path bonus (5) + one occurrence beats three occurrences.
	assert.Equal(t, "install.md", matches[0].File.Path)
	assert.Equal(t, 6, matches[0].Score)
	assert.Equal(t, "guide.md", matches[1].File.Path)
	assert.Equal(t, 3, matches[1].Score)
}

func TestSearchStableOrdering(t *testing.T) {
	ix := newTestIndex(t,
		&File{Path: "a.md", Content: "term", Category: CategoryDoc},
		&File{Path: "b.md", Content: "term", Category: CategoryDoc},
		&File{Path: "c.md", Content: "term", Category: CategoryDoc},
	)

	first, err := ix.Search(CategoryDoc, "term", 0)
	require.NoError(t, err)

	// Ties keep encounter order, on this call and every repeat.
	require.Len(t, first, 3)
	assert.Equal(t, "a.md", first[0].File.Path)
	assert.Equal(t, "b.md", first[1].File.Path)
	assert.Equal(t, "c.md", first[2].File.Path)

	for range 5 {
		again, err := ix.Search(CategoryDoc, "term", 0)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSearchCap(t *testing.T) {
	var files []*File
	for i := range 20 {
		files = append(files, &File{
			Path:     "doc" + string(rune('a'+i)) + ".md",
			Content:  "keyword",
			Category: CategoryDoc,
		})
	}
	ix := newTestIndex(t, files...)

	matches, err := ix.Search(CategoryDoc, "keyword", 3)
	require.NoError(t, err)
	assert.Len(t, matches, 3)

	matches, err = ix.Search(CategoryDoc, "keyword", 0)
	require.NoError(t, err)
	assert.Len(t, matches, DefaultMaxResults)
}

func TestSearchEmptyQuery(t *testing.T) {
	ix := newTestIndex(t,
		&File{Path: "a.md", Content: "content", Category: CategoryDoc},
	)

	for _, query := range []string{"", "   ", "\t\n"} {
		matches, err := ix.Search(CategoryDoc, query, 0)
		require.NoError(t, err)
		assert.Empty(t, matches)
	}
}

func TestSearchNegativeCap(t *testing.T) {
	ix := newTestIndex(t)

	_, err := ix.Search(CategoryDoc, "anything", -1)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestSearchCategoryIsolation(t *testing.T) {
	ix := newTestIndex(t,
		&File{Path: "readme.md", Content: "install docs", Category: CategoryDoc},
		&File{Path: "main.go", Content: "install code", Category: CategoryCode},
	)

	matches, err := ix.Search(CategoryCode, "install", 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "main.go", matches[0].File.Path)
}

func TestSearchMultiTerm(t *testing.T) {
	ix := newTestIndex(t,
		&File{Path: "a.md", Content: "alpha beta", Category: CategoryDoc},
		&File{Path: "b.md", Content: "alpha only here", Category: CategoryDoc},
	)

	matches, err := ix.Search(CategoryDoc, "Alpha BETA", 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a.md", matches[0].File.Path)
	assert.Equal(t, 2, matches[0].Score)
}

func TestSearchCacheInvalidatedOnReindex(t *testing.T) {
	ix := newTestIndex(t,
		&File{Path: "a.md", Content: "cached term", Category: CategoryDoc},
	)

	matches, err := ix.Search(CategoryDoc, "cached", 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	// Swap in a new generation with different content; the cached result for
	// the old snapshot must not leak through.
	newFile := &File{Path: "b.md", Content: "cached elsewhere", Category: CategoryDoc, lower: "cached elsewhere"}
	ix.snap.Store(&snapshot{
		gen:    ix.gen.Add(1),
		files:  []*File{newFile},
		byPath: map[string]*File{"b.md": newFile},
	})

	matches, err = ix.Search(CategoryDoc, "cached", 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "b.md", matches[0].File.Path)
}

func TestSnippetAroundMatch(t *testing.T) {
	lines := []string{
		"line 0", "line 1", "line 2", "line 3", "line 4",
		"the needle is here", "line 6", "line 7", "line 8", "line 9",
	}
	content := strings.Join(lines, "\n")

	snippet := Snippet(content, "needle", 2)
	assert.Equal(t, strings.Join(lines[3:8], "\n"), snippet)
}

func TestSnippetClampsToBounds(t *testing.T) {
	content := "needle on first line\nsecond\nthird"

	snippet := Snippet(content, "needle", 3)
	assert.Equal(t, content, snippet)
}

func TestSnippetFallback(t *testing.T) {
	lines := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	content := strings.Join(lines, "\n")

	// No line matches: first 2*radius+1 lines come back.
	snippet := Snippet(content, "absent", 3)
	assert.Equal(t, strings.Join(lines[:7], "\n"), snippet)
}

func TestSnippetCaseInsensitive(t *testing.T) {
	content := "before\nThe NEEDLE Line\nafter"

	snippet := Snippet(content, "needle", 0)
	assert.Equal(t, "The NEEDLE Line", snippet)
}
