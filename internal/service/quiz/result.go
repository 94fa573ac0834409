package quiz

import (
	"github.com/google/uuid"

	"github.com/heartmarshall/picquiz-backend/internal/domain"
)

// Progress is the answered/correct count of a session.
type Progress struct {
	Current      int
	Total        int
	CorrectCount int
	Completed    bool
}

func progressOf(s domain.QuizSession) Progress {
	return Progress{Current: s.Current, Total: s.Total, CorrectCount: s.CorrectCount, Completed: s.Completed}
}

// Question is what the learner sees. The correct index is never exposed.
type Question struct {
	ItemID   uuid.UUID
	Number   int
	Total    int
	Prompt   string
	Options  []string
	ImageRef string
	Level    domain.Level
	POS      domain.PartOfSpeech
}

func questionOf(item *domain.QuestionItem, s domain.QuizSession) *Question {
	return &Question{
		ItemID:   item.ID,
		Number:   s.Current + 1,
		Total:    s.Total,
		Prompt:   item.Prompt,
		Options:  append([]string(nil), item.Options...),
		ImageRef: item.ImageRef,
		Level:    item.Level,
		POS:      item.POS,
	}
}

// AnswerResult is the feedback for one answer. For a wrong answer
// ErrorImage holds the generated image or, when Fallback is set, the
// placeholder.
type AnswerResult struct {
	ItemID            uuid.UUID
	Correct           bool
	Selected          string
	CorrectWord       string
	CompletedSentence string
	WrongSentence     string
	ErrorImage        string
	Fallback          bool
	Progress          Progress
}

// Mistake is one wrong answer in a session summary.
type Mistake struct {
	Target     string
	Selected   string
	ErrorImage string
}

// Summary describes a session.
type Summary struct {
	SessionID    uuid.UUID
	Mode         domain.SessionMode
	Progress     Progress
	Accuracy     float64
	ProgressRate float64
	Mistakes     []Mistake
}
