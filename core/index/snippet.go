package index

import "strings"

const (
	// DefaultDocRadius is the snippet context radius for documentation.
	DefaultDocRadius = 3

	// DefaultCodeRadius is the wider snippet context radius for source code.
	DefaultCodeRadius = 5
)

// Snippet extracts a single context window around the first line containing
// any query term (case-insensitive substring), with radius lines of context on
// each side, clamped to the file. When no line matches, the first 2*radius+1
// lines are returned instead. Deliberately one window per file, not all
// matches, so tool output stays bounded.
func Snippet(content, query string, radius int) string {
	if radius < 0 {
		radius = 0
	}

	lines := strings.Split(content, "\n")
	terms := strings.Fields(strings.ToLower(query))

	matchLine := -1
	for i, line := range lines {
		lower := strings.ToLower(line)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				matchLine = i
				break
			}
		}
		if matchLine >= 0 {
			break
		}
	}

	if matchLine < 0 {
		end := min(2*radius+1, len(lines))
		return strings.Join(lines[:end], "\n")
	}

	start := max(matchLine-radius, 0)
	end := min(matchLine+radius+1, len(lines))
	return strings.Join(lines[start:end], "\n")
}
