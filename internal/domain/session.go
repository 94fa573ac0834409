package domain

import (
	"time"

	"github.com/google/uuid"
)

// Learner is identified by a unique username only; there is no authentication.
type Learner struct {
	ID        uuid.UUID
	Username  string
	CreatedAt time.Time
}

// QuizSession is the persisted progress of one run of questions.
type QuizSession struct {
	ID           uuid.UUID
	LearnerID    uuid.UUID
	Mode         SessionMode
	POSFilter    PartOfSpeech
	LevelFilter  Level
	Total        int
	Current      int
	CorrectCount int
	Completed    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProgressRate is the answered share of the session, 0..1.
func (s QuizSession) ProgressRate() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Current) / float64(s.Total)
}

// Accuracy is the correct share of answered questions, 0..1.
func (s QuizSession) Accuracy() float64 {
	if s.Current <= 0 {
		return 0
	}
	return float64(s.CorrectCount) / float64(s.Current)
}

// AnswerRecord is the persisted outcome of one answered QuestionItem.
type AnswerRecord struct {
	ID            uuid.UUID
	SessionID     uuid.UUID
	LearnerID     uuid.UUID
	ItemID        uuid.UUID
	Target        string
	Level         Level
	POS           PartOfSpeech
	Options       []string
	Selected      string
	Correct       bool
	ErrorImageRef string
	AnsweredAt    time.Time
}

// ErrorImage is a cached generated image for a (target, wrong word) pair.
type ErrorImage struct {
	ID        uuid.UUID
	Target    string
	WrongWord string
	Ref       string
	CreatedAt time.Time
}

// ReviewTarget is a previously answered word eligible for review.
type ReviewTarget struct {
	Target     string
	Misses     int
	LastSeenAt time.Time
}

// LevelStats aggregates answers for one tier.
type LevelStats struct {
	Answered int
	Correct  int
}

// LearnerStats aggregates all answers of a learner.
type LearnerStats struct {
	Username string
	Answered int
	Correct  int
	ByLevel  map[Level]LevelStats
}

// Accuracy is the correct share of answers, 0..1.
func (s LearnerStats) Accuracy() float64 {
	if s.Answered == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Answered)
}

// ReviewFilter narrows review targets. Zero values match everything.
type ReviewFilter struct {
	POS   PartOfSpeech
	Level Level
	Limit int
}
