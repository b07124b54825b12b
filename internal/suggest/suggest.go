// Package suggest provides "did you mean" fuzzy matching over symbol
// names for query-surface errors (e.g. find_references on a mistyped
// id). It is presentation-layer sugar on top of the facade's NotFound
// errors, not a core graph component.
package suggest

import (
	"sort"

	"github.com/hbollon/go-edlib"
)

// Matcher scores candidate strings against a query using Jaro-Winkler
// similarity.
type Matcher struct {
	Threshold float64
}

// Default returns a Matcher with the default threshold.
func Default() Matcher {
	return Matcher{Threshold: 0.80}
}

type scored struct {
	value string
	score float64
}

// Top returns up to limit candidates whose similarity to query meets
// the matcher's threshold, ordered by descending similarity then
// lexicographically for ties.
func (m Matcher) Top(query string, candidates []string, limit int) []string {
	if query == "" || len(candidates) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(candidates))
	var results []scored
	for _, c := range candidates {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		sim := similarity(query, c)
		if sim >= m.Threshold {
			results = append(results, scored{value: c, score: sim})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].value < results[j].value
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.value
	}
	return out
}

func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	score, err := edlib.StringsSimilarity(a, b, edlib.JaroWinkler)
	if err != nil {
		return 0.0
	}
	return float64(score)
}
