package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/picquiz-backend/internal/domain"
	"github.com/heartmarshall/picquiz-backend/internal/question"
	"github.com/heartmarshall/picquiz-backend/internal/session"
	"github.com/heartmarshall/picquiz-backend/pkg/ctxutil"
)

// NextQuestion returns the question in flight, or assembles a new one.
// Targets that cannot produce a valid question are skipped, up to
// MaxTargetAttempts per call.
func (s *Service) NextQuestion(ctx context.Context, sessionID uuid.UUID) (*Question, error) {
	ctx = ctxutil.WithSessionID(ctx, sessionID)

	var q *Question
	err := s.store.Do(sessionID, s.loader(ctx), func(st *session.State) error {
		if st.Complete() {
			return fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionComplete)
		}
		if active := st.Active(); active != nil && active.State == domain.QuestionStatePresented {
			q = questionOf(active, st.Session)
			return nil
		}

		targets, err := s.pickTargets(ctx, st)
		if err != nil {
			return err
		}

		attempts := 0
		for _, target := range targets {
			if attempts >= s.settings.MaxTargetAttempts {
				break
			}
			attempts++

			item, outcome, err := s.assemble(ctx, st, target)
			if err != nil {
				return err
			}
			s.metrics.QuestionAssembled(string(st.Session.Mode), outcome)
			if item == nil {
				level := slog.LevelDebug
				if outcome == "duplicate_option" {
					// The generator never repeats a word; this means bad catalog data.
					level = slog.LevelError
				}
				s.log.Log(ctx, level, "target skipped",
					slog.String("session_id", sessionID.String()),
					slog.String("target", target),
					slog.String("reason", outcome),
				)
				continue
			}

			if err := item.Present(); err != nil {
				return err
			}
			st.SetActive(item)
			st.MarkAsked(item.Target)
			q = questionOf(item, st.Session)
			return nil
		}

		return fmt.Errorf("session %s: no target produced a question after %d attempts: %w",
			sessionID, attempts, domain.ErrInsufficientCandidates)
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// pickTargets lists the targets still usable in this session, in the order
// they should be tried.
func (s *Service) pickTargets(ctx context.Context, st *session.State) ([]string, error) {
	sess := st.Session

	var targets []string
	if sess.Mode == domain.SessionModeReview {
		review, err := s.answers.ReviewTargets(ctx, sess.LearnerID, domain.ReviewFilter{
			POS: sess.POSFilter, Level: sess.LevelFilter,
		})
		if err != nil {
			return nil, fmt.Errorf("review targets: %w", err)
		}
		for _, r := range review {
			if !st.Asked(r.Target) {
				targets = append(targets, r.Target)
			}
		}
		return targets, nil
	}

	for _, e := range s.vocab.Select(sess.POSFilter, sess.LevelFilter) {
		if !st.Asked(e.Word) {
			targets = append(targets, e.Word)
		}
	}
	st.Rand().Shuffle(len(targets), func(i, j int) {
		targets[i], targets[j] = targets[j], targets[i]
	})
	return targets, nil
}

// assemble tries to build a question for target. A nil item with a reason
// means the target should be skipped; an error aborts the call.
func (s *Service) assemble(ctx context.Context, st *session.State, target string) (*domain.QuestionItem, string, error) {
	entry, err := s.vocab.Lookup(target)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "unknown_word", nil
		}
		return nil, "", err
	}

	caption, err := s.captions.Lookup(entry.CaptionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "no_caption", nil
		}
		return nil, "", err
	}
	if _, ok := question.Blank(caption.Text, entry.Word); !ok {
		return nil, "not_in_caption", nil
	}

	if st.Session.Mode == domain.SessionModeReview && len(st.Exclusions(entry.Word)) == 0 {
		seen, err := s.answers.SeenOptions(ctx, st.Session.LearnerID, entry.Word)
		if err != nil {
			return nil, "", fmt.Errorf("seen options: %w", err)
		}
		st.AddExclusions(entry.Word, seen...)
	}

	item, err := s.assembler.Assemble(entry.Word, caption, st.Exclusions(entry.Word), st.Rand())
	if err != nil && len(st.Exclusions(entry.Word)) > 0 &&
		(errors.Is(err, domain.ErrDuplicateOption) || errors.Is(err, domain.ErrInsufficientCandidates)) {
		// Fresh distractors ran out; start over with the full vocabulary.
		st.ClearExclusions(entry.Word)
		item, err = s.assembler.Assemble(entry.Word, caption, nil, st.Rand())
	}

	switch {
	case err == nil:
		return item, "ok", nil
	case errors.Is(err, domain.ErrInsufficientCandidates):
		return nil, "insufficient_candidates", nil
	case errors.Is(err, domain.ErrDuplicateOption):
		return nil, "duplicate_option", nil
	case errors.Is(err, domain.ErrNotFound):
		return nil, "unknown_word", nil
	}
	return nil, "", fmt.Errorf("assemble %q: %w", target, err)
}

func withoutWord(options []string, word string) []string {
	out := make([]string, 0, len(options))
	for _, o := range options {
		if !strings.EqualFold(o, word) {
			out = append(out, o)
		}
	}
	return out
}
