// Package quiz runs picture-caption vocabulary sessions: it picks targets,
// assembles questions, grades answers and asks for error images.
package quiz

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/picquiz-backend/internal/domain"
	"github.com/heartmarshall/picquiz-backend/internal/imagegen"
	"github.com/heartmarshall/picquiz-backend/internal/question"
	"github.com/heartmarshall/picquiz-backend/internal/session"
)

type learnerRepo interface {
	GetOrCreate(ctx context.Context, username string) (*domain.Learner, error)
	GetByUsername(ctx context.Context, username string) (*domain.Learner, error)
}

type sessionRepo interface {
	Create(ctx context.Context, s *domain.QuizSession) (*domain.QuizSession, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.QuizSession, error)
	UpdateProgress(ctx context.Context, s *domain.QuizSession) (*domain.QuizSession, error)
	ListByLearner(ctx context.Context, learnerID uuid.UUID, limit int) ([]domain.QuizSession, error)
}

type answerRepo interface {
	Create(ctx context.Context, a *domain.AnswerRecord) (*domain.AnswerRecord, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.AnswerRecord, error)
	ReviewTargets(ctx context.Context, learnerID uuid.UUID, f domain.ReviewFilter) ([]domain.ReviewTarget, error)
	SeenOptions(ctx context.Context, learnerID uuid.UUID, target string) ([]string, error)
	SetErrorImage(ctx context.Context, itemID uuid.UUID, ref string) error
	Stats(ctx context.Context, learnerID uuid.UUID) (*domain.LearnerStats, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type vocabulary interface {
	Lookup(word string) (domain.VocabEntry, error)
	Select(pos domain.PartOfSpeech, level domain.Level) []domain.VocabEntry
	Criteria() map[domain.PartOfSpeech][]domain.Level
	Stats() domain.CatalogStats
}

type captionSource interface {
	Lookup(id string) (domain.CaptionContext, error)
}

type assembler interface {
	Assemble(target string, caption domain.CaptionContext, exclude []string, rnd question.Shuffler) (*domain.QuestionItem, error)
}

type imageResolver interface {
	Resolve(ctx context.Context, req imagegen.Request) imagegen.Result
}

type recorder interface {
	QuestionAssembled(mode, outcome string)
	AnswerSubmitted(level string, correct bool)
	ErrorImageResolved(source string, elapsed time.Duration)
}

// Settings are the tunables of the service.
type Settings struct {
	QuestionsPerSession int
	MaxSessionQuestions int
	MaxTargetAttempts   int
}

// Deps groups the collaborators of Service.
type Deps struct {
	Learners  learnerRepo
	Sessions  sessionRepo
	Answers   answerRepo
	Tx        txManager
	Vocab     vocabulary
	Captions  captionSource
	Assembler assembler
	Images    imageResolver
	Store     *session.Store
	Metrics   recorder
}

// Service provides quiz session operations.
type Service struct {
	learners  learnerRepo
	sessions  sessionRepo
	answers   answerRepo
	tx        txManager
	vocab     vocabulary
	captions  captionSource
	assembler assembler
	images    imageResolver
	store     *session.Store
	metrics   recorder
	settings  Settings
	log       *slog.Logger

	clock func() time.Time
	seed  func() uint64
}

// NewService creates a new quiz service. Deps.Metrics may be nil.
func NewService(log *slog.Logger, deps Deps, settings Settings) *Service {
	metrics := deps.Metrics
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &Service{
		learners:  deps.Learners,
		sessions:  deps.Sessions,
		answers:   deps.Answers,
		tx:        deps.Tx,
		vocab:     deps.Vocab,
		captions:  deps.Captions,
		assembler: deps.Assembler,
		images:    deps.Images,
		store:     deps.Store,
		metrics:   metrics,
		settings:  settings,
		log:       log.With("service", "quiz"),
		clock:     func() time.Time { return time.Now().UTC() },
		seed:      rand.Uint64,
	}
}

// rehydrateTimeout bounds a session reload, which ignores the caller's
// cancellation.
const rehydrateTimeout = 10 * time.Second

// loader rebuilds the state of a session evicted from the store: progress
// from the session row, asked targets and seen distractors from its answers.
func (s *Service) loader(reqCtx context.Context) session.Loader {
	return func(id uuid.UUID) (*session.State, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(reqCtx), rehydrateTimeout)
		defer cancel()

		sess, err := s.sessions.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		records, err := s.answers.ListBySession(ctx, id)
		if err != nil {
			return nil, err
		}

		st := session.NewState(*sess, s.seed())
		for _, r := range records {
			st.MarkAsked(r.Target)
			st.AddExclusions(r.Target, withoutWord(r.Options, r.Target)...)
		}

		s.log.DebugContext(ctx, "session rehydrated",
			slog.String("session_id", id.String()),
			slog.Int("answers", len(records)),
		)
		return st, nil
	}
}

type nopRecorder struct{}

func (nopRecorder) QuestionAssembled(string, string) {}
func (nopRecorder) AnswerSubmitted(string, bool) {}
func (nopRecorder) ErrorImageResolved(string, time.Duration) {}
