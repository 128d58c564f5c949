package templating

import (
	"slices"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

const (
	maxSuggestions  = 3
	maxEditDistance = 2
)

// Suggest returns up to three loaded template names resembling name, best
// match first. Names containing name's letters in order are preferred, then
// names within a small edit distance.
func (tm *TemplateManager) Suggest(name string) []string {
	if name == "" {
		return nil
	}
	names := tm.GetTemplateNames()

	ranks := fuzzy.RankFindFold(name, names)
	sort.Sort(ranks)
	suggestions := make([]string, 0, maxSuggestions)
	for _, r := range ranks {
		if len(suggestions) == maxSuggestions {
			return suggestions
		}
		suggestions = append(suggestions, r.Target)
	}

	type candidate struct {
		name     string
		distance int
	}
	var near []candidate
	for _, n := range names {
		if slices.Contains(suggestions, n) {
			continue
		}
		if d := fuzzy.LevenshteinDistance(name, n); d <= maxEditDistance {
			near = append(near, candidate{n, d})
		}
	}
	slices.SortStableFunc(near, func(a, b candidate) int { return a.distance - b.distance })
	for _, c := range near {
		if len(suggestions) == maxSuggestions {
			break
		}
		suggestions = append(suggestions, c.name)
	}
	return suggestions
}
