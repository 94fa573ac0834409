package quiz

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/picquiz-backend/internal/domain"
	"github.com/heartmarshall/picquiz-backend/internal/session"
)

// StartSession registers the learner if needed and opens a session. Total
// is capped by the number of eligible targets; a session with none fails
// validation.
func (s *Service) StartSession(ctx context.Context, input StartInput) (*domain.QuizSession, error) {
	p, err := input.validate(s.settings.QuestionsPerSession, s.settings.MaxSessionQuestions)
	if err != nil {
		return nil, err
	}

	var created *domain.QuizSession
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		learner, err := s.learners.GetOrCreate(ctx, p.username)
		if err != nil {
			return fmt.Errorf("get or create learner: %w", err)
		}

		available, err := s.countTargets(ctx, learner.ID, p)
		if err != nil {
			return err
		}
		if available == 0 {
			return domain.NewValidationError("filter", "no words available for this mode and filter")
		}

		now := s.clock()
		created, err = s.sessions.Create(ctx, &domain.QuizSession{
			ID:          uuid.New(),
			LearnerID:   learner.ID,
			Mode:        p.mode,
			POSFilter:   p.pos,
			LevelFilter: p.level,
			Total:       min(p.total, available),
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.store.Put(session.NewState(*created, s.seed()))

	s.log.InfoContext(ctx, "session started",
		slog.String("session_id", created.ID.String()),
		slog.String("learner_id", created.LearnerID.String()),
		slog.String("mode", string(created.Mode)),
		slog.Int("total", created.Total),
	)
	return created, nil
}

func (s *Service) countTargets(ctx context.Context, learnerID uuid.UUID, p startParams) (int, error) {
	if p.mode == domain.SessionModeReview {
		targets, err := s.answers.ReviewTargets(ctx, learnerID, domain.ReviewFilter{POS: p.pos, Level: p.level})
		if err != nil {
			return 0, fmt.Errorf("review targets: %w", err)
		}
		return len(targets), nil
	}
	return len(s.vocab.Select(p.pos, p.level)), nil
}
