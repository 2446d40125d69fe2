package chatbot

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"dialog-backend/internal/models"
)

// A Comparator scores how alike two statements are, from 0 to 1.
type Comparator func(a, b *models.Statement) float64

// LevenshteinDistance scores the edit distance of the lower-cased texts
// relative to the longer one.
func LevenshteinDistance(a, b *models.Statement) float64 {
	ta := strings.ToLower(a.Text)
	tb := strings.ToLower(b.Text)

	longest := utf8.RuneCountInString(ta)
	if n := utf8.RuneCountInString(tb); n > longest {
		longest = n
	}
	if longest == 0 {
		return 0
	}

	dist := levenshtein.ComputeDistance(ta, tb)
	return round2(1 - float64(dist)/float64(longest))
}

// JaccardSimilarity scores the overlap of the search text tokens.
func JaccardSimilarity(a, b *models.Statement) float64 {
	sa := tokenSet(a.SearchText)
	sb := tokenSet(b.SearchText)
	if len(sa) == 0 && len(sb) == 0 {
		return 0
	}

	shared := 0
	for w := range sa {
		if _, ok := sb[w]; ok {
			shared++
		}
	}
	union := len(sa) + len(sb) - shared
	return round2(float64(shared) / float64(union))
}

// ComparatorByName resolves the configured comparison function.
func ComparatorByName(name string) (Comparator, error) {
	switch strings.ToLower(name) {
	case "", "levenshtein", "levenshtein_distance":
		return LevenshteinDistance, nil
	case "jaccard", "jaccard_similarity":
		return JaccardSimilarity, nil
	default:
		return nil, fmt.Errorf("unknown statement comparison %q", name)
	}
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
