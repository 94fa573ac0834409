package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/picquiz-backend/internal/domain"
	"github.com/heartmarshall/picquiz-backend/internal/imagegen"
	"github.com/heartmarshall/picquiz-backend/internal/question"
	"github.com/heartmarshall/picquiz-backend/internal/session"
	"github.com/heartmarshall/picquiz-backend/pkg/ctxutil"
)

// SubmitAnswer grades the active question and persists the answer with the
// new progress in one transaction. For a wrong answer the error image is
// resolved without holding the session lock; the result always carries a
// usable reference.
func (s *Service) SubmitAnswer(ctx context.Context, input AnswerInput) (*AnswerResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	ctx = ctxutil.WithSessionID(ctx, input.SessionID)

	var (
		res    *AnswerResult
		target string
	)
	err := s.store.Do(input.SessionID, s.loader(ctx), func(st *session.State) error {
		active := st.Active()
		if active == nil || active.ID != input.ItemID {
			if st.Complete() {
				return fmt.Errorf("session %s: %w", input.SessionID, domain.ErrSessionComplete)
			}
			return fmt.Errorf("question item %s: %w", input.ItemID, domain.ErrNotFound)
		}

		// Graded on a copy so a failed transaction leaves the item presented.
		item := *active
		correct, err := item.Answer(input.Selected, s.clock())
		if err != nil {
			return err
		}

		prev := st.Session
		st.RecordAnswer(correct)

		err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
			if _, err := s.answers.Create(ctx, &domain.AnswerRecord{
				ID:         uuid.New(),
				SessionID:  st.Session.ID,
				LearnerID:  st.Session.LearnerID,
				ItemID:     item.ID,
				Target:     item.Target,
				Level:      item.Level,
				POS:        item.POS,
				Options:    item.Options,
				Selected:   item.Selected,
				Correct:    correct,
				AnsweredAt: *item.AnsweredAt,
			}); err != nil {
				return fmt.Errorf("create answer: %w", err)
			}
			updated, err := s.sessions.UpdateProgress(ctx, &st.Session)
			if err != nil {
				return fmt.Errorf("update progress: %w", err)
			}
			st.Session.UpdatedAt = updated.UpdatedAt
			return nil
		})
		if err != nil {
			st.Session = prev
			return err
		}

		st.AddExclusions(item.Target, item.Distractors()...)
		if !correct {
			if err := item.RequestErrorImage(); err != nil {
				return err
			}
		}
		st.SetActive(&item)
		s.metrics.AnswerSubmitted(item.Level.String(), correct)

		target = item.Target
		res = &AnswerResult{
			ItemID:            item.ID,
			Correct:           correct,
			Selected:          item.Selected,
			CorrectWord:       item.CorrectAnswer(),
			CompletedSentence: item.Context.Text,
			Progress:          progressOf(st.Session),
		}
		if !correct {
			res.WrongSentence = question.Complete(item.Prompt, item.Selected)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "answer submitted",
		slog.String("session_id", input.SessionID.String()),
		slog.String("target", target),
		slog.Bool("correct", res.Correct),
		slog.Int("current", res.Progress.Current),
		slog.Int("total", res.Progress.Total),
	)

	if !res.Correct {
		s.attachErrorImage(ctx, input.SessionID, target, res)
	}
	return res, nil
}

// attachErrorImage resolves the error image for a wrong answer and moves the
// item to RESOLVED. Failures here never fail the answer itself.
func (s *Service) attachErrorImage(ctx context.Context, sessionID uuid.UUID, target string, res *AnswerResult) {
	start := time.Now()
	img := s.images.Resolve(ctx, imagegen.Request{
		Target:   target,
		Word:     res.Selected,
		Sentence: res.WrongSentence,
	})
	s.metrics.ErrorImageResolved(string(img.Source), time.Since(start))

	res.ErrorImage = img.Ref
	res.Fallback = img.Fallback()

	err := s.store.Do(sessionID, s.loader(ctx), func(st *session.State) error {
		active := st.Active()
		if active == nil || active.ID != res.ItemID || active.State != domain.QuestionStateErrorImageRequested {
			return nil
		}
		return active.Resolve(img.Ref, img.Fallback())
	})
	if err != nil {
		s.log.WarnContext(ctx, "resolve question item failed",
			slog.String("session_id", sessionID.String()),
			slog.String("item_id", res.ItemID.String()),
			slog.String("error", err.Error()),
		)
	}

	if img.Fallback() {
		return
	}
	if err := s.answers.SetErrorImage(ctx, res.ItemID, img.Ref); err != nil {
		s.log.WarnContext(ctx, "store error image ref failed",
			slog.String("item_id", res.ItemID.String()),
			slog.String("error", err.Error()),
		)
	}
}
