package catalog

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// suggestMaxDistance caps how far a suggestion may be from the query.
const suggestMaxDistance = 3

// nearest picks the candidate with the smallest edit distance to name,
// ignoring case. No candidate within the cap returns ok=false.
func nearest(name string, candidates []string) (string, bool) {
	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return "", false
	}
	best := ""
	bestDist := suggestMaxDistance + 1
	for _, cand := range candidates {
		d := levenshtein.ComputeDistance(query, strings.ToLower(cand))
		if d < bestDist {
			best, bestDist = cand, d
		}
	}
	if bestDist > suggestMaxDistance {
		return "", false
	}
	return best, true
}

// SuggestMotion proposes the closest known motion group for a name the
// catalog does not know.
func (c *Catalog) SuggestMotion(group string) (string, bool) {
	names := make([]string, 0, len(c.motions))
	for _, def := range c.motions {
		names = append(names, def.Group)
	}
	return nearest(group, names)
}

// SuggestExpression proposes the closest known expression name.
func (c *Catalog) SuggestExpression(name string) (string, bool) {
	names := make([]string, 0, len(c.expressions))
	for _, def := range c.expressions {
		names = append(names, def.Name)
	}
	return nearest(name, names)
}
