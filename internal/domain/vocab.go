package domain

import "strings"

// VocabEntry is one word of the vocabulary catalog.
type VocabEntry struct {
	Word      string
	Level     Level
	POS       PartOfSpeech
	CaptionID string
	ImageID   string
	Metadata  map[string]string
}

// WordKey is the lookup key of a vocabulary word: lower case with inner
// whitespace collapsed to single spaces.
func WordKey(word string) string {
	return strings.ToLower(strings.Join(strings.Fields(word), " "))
}

// HasCaption reports whether the entry is linked to an image caption.
func (e VocabEntry) HasCaption() bool { return e.CaptionID != "" }

// CaptionContext is an image caption the blank is cut from.
type CaptionContext struct {
	CaptionID string
	ImageID   string
	Text      string
}

// Candidate is a scored distractor. Higher Score means closer to the target.
type Candidate struct {
	Word     string
	Distance int
	TierGap  int
	Score    float64
}

// CatalogStats summarises catalog contents.
type CatalogStats struct {
	Total   int
	ByLevel map[Level]int
	ByPOS   map[PartOfSpeech]int
}
