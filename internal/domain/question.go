package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// QuestionItem is a three-option fill-in-the-blank question.
//
// Lifecycle: CREATED -> PRESENTED -> ANSWERED and, for an incorrect answer
// only, ANSWERED -> ERROR_IMAGE_REQUESTED -> RESOLVED. A correct answer stops
// at ANSWERED. Options keep their order for the whole lifecycle.
type QuestionItem struct {
	ID           uuid.UUID
	Target       string
	Level        Level
	POS          PartOfSpeech
	Options      []string
	CorrectIndex int
	ImageRef     string
	Context      CaptionContext
	Prompt       string

	State              QuestionState
	Selected           string
	Correct            bool
	ErrorImageRef      string
	ErrorImageFallback bool
	CreatedAt          time.Time
	AnsweredAt         *time.Time
}

// CorrectAnswer returns the option equal to the target.
func (q *QuestionItem) CorrectAnswer() string {
	return q.Options[q.CorrectIndex]
}

// Distractors returns the wrong options in presentation order.
func (q *QuestionItem) Distractors() []string {
	out := make([]string, 0, len(q.Options)-1)
	for i, o := range q.Options {
		if i != q.CorrectIndex {
			out = append(out, o)
		}
	}
	return out
}

// Present marks the item as shown to the learner.
func (q *QuestionItem) Present() error {
	if q.State != QuestionStateCreated {
		return &StateError{From: q.State, To: QuestionStatePresented}
	}
	q.State = QuestionStatePresented
	return nil
}

// Answer records the learner's choice. It can be called exactly once, on a
// presented item. selected must match one of the options (case-insensitive).
func (q *QuestionItem) Answer(selected string, now time.Time) (bool, error) {
	if q.State != QuestionStatePresented {
		return false, &StateError{From: q.State, To: QuestionStateAnswered}
	}

	idx := q.optionIndex(selected)
	if idx < 0 {
		return false, NewValidationError("selected", "not one of the options")
	}

	q.State = QuestionStateAnswered
	q.Selected = q.Options[idx]
	q.Correct = idx == q.CorrectIndex
	q.AnsweredAt = &now
	return q.Correct, nil
}

// RequestErrorImage moves an incorrectly answered item forward.
func (q *QuestionItem) RequestErrorImage() error {
	if q.State != QuestionStateAnswered || q.Correct {
		return &StateError{From: q.State, To: QuestionStateErrorImageRequested}
	}
	q.State = QuestionStateErrorImageRequested
	return nil
}

// Resolve attaches the error image (or placeholder) reference.
func (q *QuestionItem) Resolve(ref string, fallback bool) error {
	if q.State != QuestionStateErrorImageRequested {
		return &StateError{From: q.State, To: QuestionStateResolved}
	}
	q.State = QuestionStateResolved
	q.ErrorImageRef = ref
	q.ErrorImageFallback = fallback
	return nil
}

func (q *QuestionItem) optionIndex(s string) int {
	s = strings.TrimSpace(s)
	for i, o := range q.Options {
		if strings.EqualFold(o, s) {
			return i
		}
	}
	return -1
}
