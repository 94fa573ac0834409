package domain

import "strings"

// Level is a CEFR proficiency tier. Tiers are ordered A1 < A2 < ... < C2.
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

// Levels lists every tier in ascending order.
var Levels = []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

func (l Level) String() string { return string(l) }

func (l Level) IsValid() bool { return l.Rank() >= 0 }

// Rank returns the zero-based position of the tier, or -1 for an unknown tier.
func (l Level) Rank() int {
	switch l {
	case LevelA1:
		return 0
	case LevelA2:
		return 1
	case LevelB1:
		return 2
	case LevelB2:
		return 3
	case LevelC1:
		return 4
	case LevelC2:
		return 5
	}
	return -1
}

// Distance is the absolute number of tiers between l and o.
func (l Level) Distance(o Level) int {
	d := l.Rank() - o.Rank()
	if d < 0 {
		return -d
	}
	return d
}

// ParseLevel accepts any casing and surrounding whitespace ("b1", " B1 ").
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	if !l.IsValid() {
		return "", NewValidationError("level", "unknown CEFR level "+s)
	}
	return l, nil
}

// PartOfSpeech represents the grammatical category of a word.
type PartOfSpeech string

const (
	PartOfSpeechNoun         PartOfSpeech = "NOUN"
	PartOfSpeechVerb         PartOfSpeech = "VERB"
	PartOfSpeechAdjective    PartOfSpeech = "ADJECTIVE"
	PartOfSpeechAdverb       PartOfSpeech = "ADVERB"
	PartOfSpeechPronoun      PartOfSpeech = "PRONOUN"
	PartOfSpeechPreposition  PartOfSpeech = "PREPOSITION"
	PartOfSpeechConjunction  PartOfSpeech = "CONJUNCTION"
	PartOfSpeechInterjection PartOfSpeech = "INTERJECTION"
	PartOfSpeechOther        PartOfSpeech = "OTHER"
)

func (p PartOfSpeech) String() string { return string(p) }

func (p PartOfSpeech) IsValid() bool {
	switch p {
	case PartOfSpeechNoun, PartOfSpeechVerb, PartOfSpeechAdjective, PartOfSpeechAdverb,
		PartOfSpeechPronoun, PartOfSpeechPreposition, PartOfSpeechConjunction,
		PartOfSpeechInterjection, PartOfSpeechOther:
		return true
	}
	return false
}

// ParsePartOfSpeech maps dataset spellings ("noun", "adj", "v") onto a
// PartOfSpeech. Empty input yields "" (unknown); unrecognised input yields OTHER.
func ParsePartOfSpeech(s string) PartOfSpeech {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return ""
	case "noun", "n":
		return PartOfSpeechNoun
	case "verb", "v":
		return PartOfSpeechVerb
	case "adjective", "adj", "a":
		return PartOfSpeechAdjective
	case "adverb", "adv", "r":
		return PartOfSpeechAdverb
	case "pronoun", "pron":
		return PartOfSpeechPronoun
	case "preposition", "prep":
		return PartOfSpeechPreposition
	case "conjunction", "conj":
		return PartOfSpeechConjunction
	case "interjection", "interj":
		return PartOfSpeechInterjection
	}
	return PartOfSpeechOther
}

// SessionMode selects how a quiz session picks its targets.
type SessionMode string

const (
	// SessionModeLearning draws fresh words from the catalog.
	SessionModeLearning SessionMode = "LEARNING"
	// SessionModeReview replays words the learner already answered, misses first.
	SessionModeReview SessionMode = "REVIEW"
)

func (m SessionMode) String() string { return string(m) }

func (m SessionMode) IsValid() bool {
	return m == SessionModeLearning || m == SessionModeReview
}

// QuestionState is a step in the QuestionItem lifecycle.
type QuestionState string

const (
	QuestionStateCreated             QuestionState = "CREATED"
	QuestionStatePresented           QuestionState = "PRESENTED"
	QuestionStateAnswered            QuestionState = "ANSWERED"
	QuestionStateErrorImageRequested QuestionState = "ERROR_IMAGE_REQUESTED"
	QuestionStateResolved            QuestionState = "RESOLVED"
)

func (s QuestionState) String() string { return string(s) }
