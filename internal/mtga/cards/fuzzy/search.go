// Package fuzzy ranks card names by similarity to a possibly misspelled query.
package fuzzy

import (
	"sort"
	"strings"
)

// Match is a candidate with its similarity score (0-100).
type Match struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	index int
}

// SearchOptions configures fuzzy search behavior.
type SearchOptions struct {
	// MaxResults limits the number of results returned (0 = unlimited)
	MaxResults int
	// MinScore sets minimum score threshold (0-100)
	MinScore int
}

// DefaultSearchOptions returns sensible default search options.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		MaxResults: 10,
		MinScore:   60,
	}
}

// Search scores every candidate against query, case-insensitively, and returns
// the matches at or above MinScore, best first. Ties keep candidate order.
func Search(query string, candidates []string, options SearchOptions) []Match {
	q := normalize(query)
	if q == "" {
		return nil
	}

	matches := make([]Match, 0)
	for i, name := range candidates {
		score := Score(q, normalize(name))
		if score >= options.MinScore {
			matches = append(matches, Match{Name: name, Score: score, index: i})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].index < matches[j].index
	})

	if options.MaxResults > 0 && len(matches) > options.MaxResults {
		matches = matches[:options.MaxResults]
	}
	return matches
}

// normalize lower-cases and collapses runs of whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Score rates how similar two normalized strings are: 100 for equality, 80-100 when
// one contains the other, otherwise edit-distance similarity.
func Score(query, target string) int {
	if query == target {
		return 100
	}
	if query == "" || target == "" {
		return 0
	}

	q, t := []rune(query), []rune(target)
	if strings.Contains(target, query) {
		return 80 + len(q)*20/len(t)
	}
	if strings.Contains(query, target) {
		return 80 + len(t)*20/len(q)
	}

	longest := len(q)
	if len(t) > longest {
		longest = len(t)
	}
	return 100 - levenshtein(q, t)*100/longest
}

// levenshtein returns the edit distance between a and b using two rows.
func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
