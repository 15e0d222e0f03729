package manager

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// relevance ranks a hit against the query; lower is better.
func relevance(h Hit, query string) int {
	name := strings.ToLower(h.Name)
	id := strings.ToLower(h.ID)
	switch {
	case name == query || id == query:
		return 0
	case strings.HasPrefix(name, query) || strings.HasPrefix(id, query):
		return 1
	case strings.Contains(name, query) || strings.Contains(id, query):
		return 2
	case fuzzy.MatchNormalizedFold(query, h.Name) || fuzzy.MatchNormalizedFold(query, h.ID):
		return 3
	default:
		return 4
	}
}

// Rank orders hits by relevance to query: exact names first, then prefix,
// substring and fuzzy matches, with ties broken alphabetically.
func Rank(hits []Hit, query string) {
	query = strings.ToLower(strings.TrimSpace(query))

	sort.SliceStable(hits, func(i, j int) bool {
		ri, rj := relevance(hits[i], query), relevance(hits[j], query)
		if ri != rj {
			return ri < rj
		}
		ni, nj := strings.ToLower(hits[i].Name), strings.ToLower(hits[j].Name)
		if ni != nj {
			return ni < nj
		}
		return hits[i].Manager < hits[j].Manager
	})
}
