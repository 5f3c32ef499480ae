package threads

import (
	"math"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
)

// Normalize case-folds text, collapses runs of whitespace into single spaces
// and trims both ends. Normalize(Normalize(x)) == Normalize(x).
func Normalize(text string) string {
	folded := cases.Fold().String(text)
	return strings.Join(strings.Fields(folded), " ")
}

// FuzzyRatio returns an edit-distance similarity in [0,1] between two strings,
// computed over runes as 1 - distance/max(len(a), len(b)).
func FuzzyRatio(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// CosineSimilarity computes cosine similarity between two vectors. Mismatched
// or zero vectors yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
