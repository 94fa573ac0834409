package quiz

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/picquiz-backend/internal/domain"
	"github.com/heartmarshall/picquiz-backend/internal/session"
	"github.com/heartmarshall/picquiz-backend/pkg/ctxutil"
)

const (
	defaultSessionListLimit = 20
	maxSessionListLimit     = 100
)

// Summary returns progress, accuracy and the mistakes of a session.
func (s *Service) Summary(ctx context.Context, sessionID uuid.UUID) (*Summary, error) {
	ctx = ctxutil.WithSessionID(ctx, sessionID)

	var sess domain.QuizSession
	err := s.store.Do(sessionID, s.loader(ctx), func(st *session.State) error {
		sess = st.Session
		return nil
	})
	if err != nil {
		return nil, err
	}

	records, err := s.answers.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	mistakes := make([]Mistake, 0)
	for _, r := range records {
		if r.Correct {
			continue
		}
		mistakes = append(mistakes, Mistake{Target: r.Target, Selected: r.Selected, ErrorImage: r.ErrorImageRef})
	}

	return &Summary{
		SessionID:    sess.ID,
		Mode:         sess.Mode,
		Progress:     progressOf(sess),
		Accuracy:     sess.Accuracy(),
		ProgressRate: sess.ProgressRate(),
		Mistakes:     mistakes,
	}, nil
}

// LearnerStats aggregates every answer of a learner.
func (s *Service) LearnerStats(ctx context.Context, username string) (*domain.LearnerStats, error) {
	learner, err := s.learnerByName(ctx, username)
	if err != nil {
		return nil, err
	}

	stats, err := s.answers.Stats(ctx, learner.ID)
	if err != nil {
		return nil, fmt.Errorf("learner stats: %w", err)
	}
	stats.Username = learner.Username
	return stats, nil
}

// LearnerSessions lists the most recent sessions of a learner, newest first.
func (s *Service) LearnerSessions(ctx context.Context, username string, limit int) ([]domain.QuizSession, error) {
	learner, err := s.learnerByName(ctx, username)
	if err != nil {
		return nil, err
	}

	switch {
	case limit <= 0:
		limit = defaultSessionListLimit
	case limit > maxSessionListLimit:
		limit = maxSessionListLimit
	}
	return s.sessions.ListByLearner(ctx, learner.ID, limit)
}

// Criteria lists the part-of-speech and level combinations with words.
func (s *Service) Criteria() map[domain.PartOfSpeech][]domain.Level {
	return s.vocab.Criteria()
}

// CatalogStats summarises the loaded vocabulary.
func (s *Service) CatalogStats() domain.CatalogStats {
	return s.vocab.Stats()
}

func (s *Service) learnerByName(ctx context.Context, username string) (*domain.Learner, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.NewValidationError("username", "required")
	}
	return s.learners.GetByUsername(ctx, username)
}
