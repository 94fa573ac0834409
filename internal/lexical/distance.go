// Package lexical provides surface-form similarity between words.
package lexical

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Distance returns the case-insensitive Levenshtein distance between a and b:
// insertions, deletions and substitutions each cost 1.
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(strings.ToLower(a), strings.ToLower(b))
}

// LengthDiff returns the absolute difference in rune count.
func LengthDiff(a, b string) int {
	d := utf8.RuneCountInString(a) - utf8.RuneCountInString(b)
	if d < 0 {
		return -d
	}
	return d
}
