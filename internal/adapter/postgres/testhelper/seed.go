package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/picquiz-backend/internal/domain"
)

// UniqueName returns prefix plus a short random suffix.
func UniqueName(prefix string) string {
	return prefix + "-" + uuid.New().String()[:8]
}

// SeedLearner inserts a learner with a unique username.
func SeedLearner(t *testing.T, pool *pgxpool.Pool) domain.Learner {
	t.Helper()

	l := domain.Learner{
		ID:        uuid.New(),
		Username:  UniqueName("learner"),
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	_, err := pool.Exec(context.Background(),
		`INSERT INTO learners (id, username, created_at) VALUES ($1, $2, $3)`,
		l.ID, l.Username, l.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: seed learner: %v", err)
	}
	return l
}

// SeedSession inserts a fresh learning session of total questions.
func SeedSession(t *testing.T, pool *pgxpool.Pool, learnerID uuid.UUID, total int) domain.QuizSession {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	s := domain.QuizSession{
		ID:        uuid.New(),
		LearnerID: learnerID,
		Mode:      domain.SessionModeLearning,
		Total:     total,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := pool.Exec(context.Background(),
		`INSERT INTO quiz_sessions (id, learner_id, mode, total, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.LearnerID, string(s.Mode), s.Total, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: seed session: %v", err)
	}
	return s
}

// SeedAnswer logs an answer to a three-option question on target. A wrong
// answer selects the first distractor.
func SeedAnswer(t *testing.T, pool *pgxpool.Pool, s domain.QuizSession, target string, distractors [2]string, correct bool) domain.AnswerRecord {
	t.Helper()

	a := domain.AnswerRecord{
		ID:         uuid.New(),
		SessionID:  s.ID,
		LearnerID:  s.LearnerID,
		ItemID:     uuid.New(),
		Target:     target,
		Level:      domain.LevelA2,
		POS:        domain.PartOfSpeechVerb,
		Options:    []string{distractors[0], target, distractors[1]},
		Selected:   target,
		Correct:    correct,
		AnsweredAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	if !correct {
		a.Selected = distractors[0]
	}
	_, err := pool.Exec(context.Background(),
		`INSERT INTO answer_logs (id, session_id, learner_id, item_id, target, level, pos, options, selected, correct, answered_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.SessionID, a.LearnerID, a.ItemID, a.Target, string(a.Level), string(a.POS),
		a.Options, a.Selected, a.Correct, a.AnsweredAt,
	)
	if err != nil {
		t.Fatalf("testhelper: seed answer: %v", err)
	}
	return a
}

// SeedErrorImage caches an image ref for the (target, wrong) pair.
func SeedErrorImage(t *testing.T, pool *pgxpool.Pool, target, wrong string) string {
	t.Helper()

	ref := "errors/" + target + "/" + UniqueName(wrong) + ".png"
	_, err := pool.Exec(context.Background(),
		`INSERT INTO error_images (id, target, wrong_word, ref) VALUES ($1, $2, $3, $4)`,
		uuid.New(), target, wrong, ref,
	)
	if err != nil {
		t.Fatalf("testhelper: seed error image: %v", err)
	}
	return ref
}
