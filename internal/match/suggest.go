package match

import (
	"sort"
	"strings"
)

const (
	// DefaultLimit is the number of suggestions attached to a diagnostic.
	DefaultLimit = 3
	// DefaultThreshold is the minimum similarity for a key to be suggested.
	DefaultThreshold = 0.6
)

// Suggestion is one ranked mapping key.
type Suggestion struct {
	Key   string
	Score float64
}

// Rank scores every key against name and returns those at or above
// threshold, best first. Ties keep the order of keys.
func Rank(name string, keys []string, threshold float64) []Suggestion {
	var out []Suggestion

	for _, key := range keys {
		score := max(Similarity(name, key), Similarity(LastSegment(name), LastSegment(key)))
		if score >= threshold {
			out = append(out, Suggestion{Key: key, Score: score})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	return out
}

// Suggest returns at most limit keys similar to any of names, best first.
func Suggest(names []string, keys []string, limit int) []string {
	at := make(map[string]int)

	var ranked []Suggestion

	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}

		for _, s := range Rank(name, keys, DefaultThreshold) {
			if i, ok := at[s.Key]; ok {
				ranked[i].Score = max(ranked[i].Score, s.Score)
				continue
			}

			at[s.Key] = len(ranked)
			ranked = append(ranked, s)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]string, 0, len(ranked))
	for _, s := range ranked {
		out = append(out, s.Key)
	}

	return out
}
