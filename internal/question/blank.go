package question

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// BlankMarker replaces the target word in a prompt.
const BlankMarker = "( )"

// Blanked is a caption with the target cut out.
type Blanked struct {
	Prompt string
	// Surface is the caption's spelling of the target ("Hugging", "dogs").
	Surface string
}

// Blank replaces every caption word matching target, allowing simple
// inflections, with BlankMarker. ok is false when the target does not occur.
func Blank(caption, target string) (Blanked, bool) {
	target = strings.ToLower(strings.TrimSpace(target))
	if target == "" {
		return Blanked{}, false
	}

	var (
		b       strings.Builder
		surface string
	)
	rs := []rune(caption)
	for i := 0; i < len(rs); {
		if !isWordRune(rs[i]) {
			b.WriteRune(rs[i])
			i++
			continue
		}
		j := i
		for j < len(rs) && isWordRune(rs[j]) {
			j++
		}
		word := string(rs[i:j])
		if matches(strings.ToLower(word), target) {
			if surface == "" {
				surface = word
			}
			b.WriteString(BlankMarker)
		} else {
			b.WriteString(word)
		}
		i = j
	}

	if surface == "" {
		return Blanked{}, false
	}
	return Blanked{Prompt: b.String(), Surface: surface}, true
}

// Complete fills every blank of prompt with word.
func Complete(prompt, word string) string {
	return strings.ReplaceAll(prompt, BlankMarker, word)
}

// matches reports whether word is target or a regular inflection of it.
func matches(word, target string) bool {
	if word == target || word == target+"s" || word == target+"'s" {
		return true
	}
	if word == target+"es" && takesES(target) {
		return true
	}

	if utf8.RuneCountInString(target) < 3 {
		return false
	}
	if strings.HasSuffix(target, "e") {
		// bake -> baked, ride -> riding, see -> seeing
		if strings.HasSuffix(target, "ee") && word == target+"ing" {
			return true
		}
		return word == target+"d" || word == strings.TrimSuffix(target, "e")+"ing"
	}

	for _, sfx := range []string{"ed", "ing"} {
		if !strings.HasSuffix(word, sfx) {
			continue
		}
		stem := strings.TrimSuffix(word, sfx)
		if stem == target {
			// hat -> hatted, never hated
			return !doublesFinal(target)
		}
		if doublesFinal(target) && stem == target+string(lastRune(target)) {
			return true
		}
	}
	return false
}

func takesES(w string) bool {
	for _, end := range []string{"s", "x", "z", "ch", "sh", "o"} {
		if strings.HasSuffix(w, end) {
			return true
		}
	}
	return false
}

// doublesFinal reports whether a one-syllable word ending in a single vowel
// and a consonant doubles that consonant before -ed and -ing (run, hug, stop).
func doublesFinal(w string) bool {
	rs := []rune(w)
	n := len(rs)
	if n < 3 || !isVowel(rs[n-2]) || isVowel(rs[n-1]) || isVowel(rs[n-3]) {
		return false
	}
	if strings.ContainsRune("wxy", rs[n-1]) {
		return false
	}
	groups := 0
	for i, r := range rs {
		if isVowel(r) && (i == 0 || !isVowel(rs[i-1])) {
			groups++
		}
	}
	return groups == 1
}

func lastRune(w string) rune {
	r, _ := utf8.DecodeLastRuneInString(w)
	return r
}

func isVowel(r rune) bool { return strings.ContainsRune("aeiou", r) }

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '\''
}
