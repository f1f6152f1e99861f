package index

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultMaxResults caps search output when no cap is given.
const DefaultMaxResults = 5

// pathBonus is awarded per term appearing in a file's path.
const pathBonus = 5

// Match is one ranked search hit.
type Match struct {
	File  *File
	Score int
}

// Search ranks one category's files against a free-text query and returns at
// most maxResults hits. Scoring: for each whitespace-delimited lowercase term,
// the count of non-overlapping occurrences in the file content, plus a bonus
// when the term appears in the file path. Zero-score files are dropped. The
// sort is stable, so ties keep encounter order and repeated calls return the
// same ranking. An empty query returns no results; a negative cap is the one
// caller error this package reports.
func (ix *Index) Search(cat Category, query string, maxResults int) ([]Match, error) {
	if maxResults < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, maxResults)
	}
	if maxResults == 0 {
		maxResults = DefaultMaxResults
	}

	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, nil
	}

	snap := ix.snap.Load()
	key := fmt.Sprintf("%d\x00%s\x00%d\x00%s", snap.gen, cat, maxResults, strings.Join(terms, " "))
	if cached, ok := ix.cache.Get(key); ok {
		return cached, nil
	}

	var matches []Match
	for _, f := range snap.files {
		if f.Category != cat {
			continue
		}
		if score := scoreFile(f, terms); score > 0 {
			matches = append(matches, Match{File: f, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}

	ix.cache.Add(key, matches)
	return matches, nil
}

// scoreFile computes the relevance score of one file for the given terms.
func scoreFile(f *File, terms []string) int {
	lowerPath := strings.ToLower(f.Path)

	score := 0
	for _, term := range terms {
		score += strings.Count(f.lower, term)
		if strings.Contains(lowerPath, term) {
			score += pathBonus
		}
	}
	return score
}
