package imagegen

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// softened replaces words that image providers tend to refuse.
var softened = map[string]string{
	"violent":   "peaceful",
	"scary":     "calm",
	"dangerous": "safe",
	"blood":     "red",
	"weapon":    "object",
	"gun":       "tool",
	"knife":     "utensil",
	"death":     "sleep",
	"kill":      "stop",
	"hurt":      "touch",
}

var softenedRe = func() *regexp.Regexp {
	words := make([]string, 0, len(softened))
	for w := range softened {
		words = append(words, regexp.QuoteMeta(w))
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(words, "|") + `)\b`)
}()

// BuildPrompt turns the learner's wrong sentence into an image prompt: unsafe
// words are softened, the first letter is capitalised and the sentence is
// quoted.
func BuildPrompt(sentence string) string {
	s := softenedRe.ReplaceAllStringFunc(strings.TrimSpace(sentence), func(m string) string {
		return softened[strings.ToLower(m)]
	})
	if r, size := utf8.DecodeRuneInString(s); r != utf8.RuneError {
		s = string(unicode.ToUpper(r)) + s[size:]
	}
	return `"` + s + `"`
}

// ObjectKey is the storage key of the error image for a (target, wrong word)
// pair. It is stable so regenerated images overwrite the same object.
func ObjectKey(target, wrong string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(target) + "\x00" + strings.ToLower(wrong)))
	return "errors/" + sanitizeSegment(target) + "/" + hex.EncodeToString(sum[:6]) + ".png"
}

func sanitizeSegment(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
