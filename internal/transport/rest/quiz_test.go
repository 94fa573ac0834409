package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/picquiz-backend/internal/adapter/storage"
	"github.com/heartmarshall/picquiz-backend/internal/domain"
	"github.com/heartmarshall/picquiz-backend/internal/service/quiz"
	"github.com/heartmarshall/picquiz-backend/internal/transport/middleware"
)

var _ quizService = &quizServiceMock{}

type quizServiceMock struct {
	StartSessionFunc    func(ctx context.Context, input quiz.StartInput) (*domain.QuizSession, error)
	NextQuestionFunc    func(ctx context.Context, sessionID uuid.UUID) (*quiz.Question, error)
	SubmitAnswerFunc    func(ctx context.Context, input quiz.AnswerInput) (*quiz.AnswerResult, error)
	SummaryFunc         func(ctx context.Context, sessionID uuid.UUID) (*quiz.Summary, error)
	LearnerStatsFunc    func(ctx context.Context, username string) (*domain.LearnerStats, error)
	LearnerSessionsFunc func(ctx context.Context, username string, limit int) ([]domain.QuizSession, error)
}

func (m *quizServiceMock) StartSession(ctx context.Context, input quiz.StartInput) (*domain.QuizSession, error) {
	return m.StartSessionFunc(ctx, input)
}

func (m *quizServiceMock) NextQuestion(ctx context.Context, id uuid.UUID) (*quiz.Question, error) {
	return m.NextQuestionFunc(ctx, id)
}

func (m *quizServiceMock) SubmitAnswer(ctx context.Context, input quiz.AnswerInput) (*quiz.AnswerResult, error) {
	return m.SubmitAnswerFunc(ctx, input)
}

func (m *quizServiceMock) Summary(ctx context.Context, id uuid.UUID) (*quiz.Summary, error) {
	return m.SummaryFunc(ctx, id)
}

func (m *quizServiceMock) LearnerStats(ctx context.Context, username string) (*domain.LearnerStats, error) {
	return m.LearnerStatsFunc(ctx, username)
}

func (m *quizServiceMock) LearnerSessions(ctx context.Context, username string, limit int) ([]domain.QuizSession, error) {
	return m.LearnerSessionsFunc(ctx, username, limit)
}

func (m *quizServiceMock) Criteria() map[domain.PartOfSpeech][]domain.Level {
	return map[domain.PartOfSpeech][]domain.Level{domain.PartOfSpeechVerb: {domain.LevelA2, domain.LevelB1}}
}

func (m *quizServiceMock) CatalogStats() domain.CatalogStats {
	return domain.CatalogStats{
		Total:   3,
		ByLevel: map[domain.Level]int{domain.LevelA2: 3},
		ByPOS:   map[domain.PartOfSpeech]int{domain.PartOfSpeechVerb: 3},
	}
}

type openerMock struct {
	objects map[string]string
}

func (m *openerMock) Open(_ context.Context, key string) (io.ReadCloser, storage.Info, error) {
	if strings.Contains(key, "..") {
		return nil, storage.Info{}, domain.NewValidationError("key", "invalid object key")
	}
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.Info{}, fmt.Errorf("object %q: %w", key, domain.ErrNotFound)
	}
	return io.NopCloser(strings.NewReader(data)), storage.Info{ContentType: "image/png", Size: int64(len(data))}, nil
}

func newTestRouter(t *testing.T, svc *quizServiceMock, answerLimit middleware.Middleware) http.Handler {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(Routes{
		Quiz:        NewQuizHandler(svc, "/images/", log),
		Images:      NewImageHandler(&openerMock{objects: map[string]string{"errors/hugging/abc.png": "png"}}, log),
		Health:      NewHealthHandler("test", map[string]Pinger{"database": &pingerMock{}}),
		AnswerLimit: answerLimit,
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func TestStartSession_Created(t *testing.T) {
	t.Parallel()

	sessID, learnerID := uuid.New(), uuid.New()
	var got quiz.StartInput
	svc := &quizServiceMock{
		StartSessionFunc: func(_ context.Context, in quiz.StartInput) (*domain.QuizSession, error) {
			got = in
			return &domain.QuizSession{
				ID: sessID, LearnerID: learnerID, Mode: domain.SessionModeLearning,
				POSFilter: domain.PartOfSpeechVerb, Total: 5, CreatedAt: time.Now(),
			}, nil
		},
	}

	rec := do(t, newTestRouter(t, svc, nil), http.MethodPost, "/api/sessions",
		`{"username":"ann","pos":"verb","total":5}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	assert.Equal(t, quiz.StartInput{Username: "ann", POS: "verb", Total: 5}, got)
	resp := decodeBody[sessionResponse](t, rec)
	assert.Equal(t, sessID.String(), resp.ID)
	assert.Equal(t, "LEARNING", resp.Mode)
	assert.Equal(t, "VERB", resp.POS)
	assert.Empty(t, resp.Level)
	assert.Equal(t, 5, resp.Progress.Total)
}

func TestStartSession_BadBody(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, &quizServiceMock{}, nil)
	for _, body := range []string{"", "{", `{"username":"ann","extra":1}`} {
		rec := do(t, h, http.MethodPost, "/api/sessions", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "VALIDATION", decodeBody[errorResponse](t, rec).Code, body)
	}
}

func TestStartSession_ValidationFields(t *testing.T) {
	t.Parallel()

	svc := &quizServiceMock{
		StartSessionFunc: func(context.Context, quiz.StartInput) (*domain.QuizSession, error) {
			return nil, domain.NewValidationErrors([]domain.FieldError{
				{Field: "username", Message: "required"},
				{Field: "mode", Message: "must be LEARNING or REVIEW"},
			})
		},
	}

	rec := do(t, newTestRouter(t, svc, nil), http.MethodPost, "/api/sessions", `{"mode":"x"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeBody[errorResponse](t, rec)
	assert.Equal(t, []fieldErrorResponse{
		{Field: "username", Message: "required"},
		{Field: "mode", Message: "must be LEARNING or REVIEW"},
	}, resp.Fields)
}

func TestNextQuestion_OK(t *testing.T) {
	t.Parallel()

	sessID, itemID := uuid.New(), uuid.New()
	svc := &quizServiceMock{
		NextQuestionFunc: func(_ context.Context, id uuid.UUID) (*quiz.Question, error) {
			assert.Equal(t, sessID, id)
			return &quiz.Question{
				ItemID: itemID, Number: 1, Total: 5,
				Prompt:   "Two kids ( ) a puppy.",
				Options:  []string{"hanging", "hugging", "jogging"},
				ImageRef: "images/000000179765.jpg",
				Level:    domain.LevelA2, POS: domain.PartOfSpeechVerb,
			}, nil
		},
	}

	rec := do(t, newTestRouter(t, svc, nil), http.MethodPost, "/api/sessions/"+sessID.String()+"/questions", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[questionResponse](t, rec)
	assert.Equal(t, itemID.String(), resp.ItemID)
	assert.Equal(t, "/images/images/000000179765.jpg", resp.ImageURL)
	assert.Equal(t, []string{"hanging", "hugging", "jogging"}, resp.Options)
	assert.NotContains(t, rec.Body.String(), "correct")
}

func TestNextQuestion_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err      error
		wantCode int
		wantErr  string
	}{
		{fmt.Errorf("quiz_session x: %w", domain.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("session x: %w", domain.ErrSessionComplete), http.StatusConflict, "SESSION_COMPLETE"},
		{fmt.Errorf("x: %w", domain.ErrInsufficientCandidates), http.StatusUnprocessableEntity, "INSUFFICIENT_CANDIDATES"},
		{&domain.StateError{From: domain.QuestionStateAnswered, To: domain.QuestionStateAnswered}, http.StatusConflict, "INVALID_STATE"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.wantErr, func(t *testing.T) {
			t.Parallel()

			svc := &quizServiceMock{
				NextQuestionFunc: func(context.Context, uuid.UUID) (*quiz.Question, error) { return nil, tt.err },
			}
			rec := do(t, newTestRouter(t, svc, nil), http.MethodPost, "/api/sessions/"+uuid.NewString()+"/questions", "")
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantErr, decodeBody[errorResponse](t, rec).Code)
		})
	}
}

func TestSessionRoutes_BadID(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, &quizServiceMock{}, nil)
	rec := do(t, h, http.MethodGet, "/api/sessions/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/sessions/"+uuid.NewString()+"/questions/nope/answer", `{"selected":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitAnswer_Wrong(t *testing.T) {
	t.Parallel()

	sessID, itemID := uuid.New(), uuid.New()
	svc := &quizServiceMock{
		SubmitAnswerFunc: func(_ context.Context, in quiz.AnswerInput) (*quiz.AnswerResult, error) {
			assert.Equal(t, quiz.AnswerInput{SessionID: sessID, ItemID: itemID, Selected: "hanging"}, in)
			return &quiz.AnswerResult{
				ItemID: itemID, Selected: "hanging", CorrectWord: "hugging",
				CompletedSentence: "Two kids hugging a puppy.",
				WrongSentence:     "Two kids hanging a puppy.",
				ErrorImage:        "errors/hugging/abc.png",
				Progress:          quiz.Progress{Current: 1, Total: 5},
			}, nil
		},
	}

	rec := do(t, newTestRouter(t, svc, nil), http.MethodPost,
		"/api/sessions/"+sessID.String()+"/questions/"+itemID.String()+"/answer", `{"selected":"hanging"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[answerResponse](t, rec)
	assert.False(t, resp.Correct)
	assert.Equal(t, "hugging", resp.CorrectWord)
	assert.Equal(t, "/images/errors/hugging/abc.png", resp.ErrorImageURL)
	assert.Equal(t, "Two kids hanging a puppy.", resp.WrongSentence)
	assert.Equal(t, 1, resp.Progress.Current)
}

func TestSubmitAnswer_RateLimited(t *testing.T) {
	t.Parallel()

	rl := middleware.NewRateLimiter(time.Minute)
	t.Cleanup(rl.Stop)

	svc := &quizServiceMock{
		SubmitAnswerFunc: func(context.Context, quiz.AnswerInput) (*quiz.AnswerResult, error) {
			return &quiz.AnswerResult{Correct: true}, nil
		},
	}
	h := newTestRouter(t, svc, rl.Limit(1))
	path := "/api/sessions/" + uuid.NewString() + "/questions/" + uuid.NewString() + "/answer"

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, path, `{"selected":"a"}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodPost, path, `{"selected":"a"}`).Code)
}

func TestSummary_OK(t *testing.T) {
	t.Parallel()

	sessID := uuid.New()
	svc := &quizServiceMock{
		SummaryFunc: func(context.Context, uuid.UUID) (*quiz.Summary, error) {
			return &quiz.Summary{
				SessionID: sessID, Mode: domain.SessionModeReview,
				Progress: quiz.Progress{Current: 2, Total: 2, CorrectCount: 1, Completed: true},
				Accuracy: 0.5, ProgressRate: 1,
				Mistakes: []quiz.Mistake{{Target: "hugging", Selected: "hanging"}},
			}, nil
		},
	}

	rec := do(t, newTestRouter(t, svc, nil), http.MethodGet, "/api/sessions/"+sessID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[summaryResponse](t, rec)
	assert.Equal(t, "REVIEW", resp.Mode)
	assert.InDelta(t, 0.5, resp.Accuracy, 1e-9)
	assert.True(t, resp.Progress.Completed)
	require.Len(t, resp.Mistakes, 1)
	assert.Empty(t, resp.Mistakes[0].ErrorImageURL)
}

func TestLearnerRoutes(t *testing.T) {
	t.Parallel()

	svc := &quizServiceMock{
		LearnerStatsFunc: func(_ context.Context, username string) (*domain.LearnerStats, error) {
			if username != "ann" {
				return nil, fmt.Errorf("learner %s: %w", username, domain.ErrNotFound)
			}
			return &domain.LearnerStats{
				Username: "ann", Answered: 4, Correct: 3,
				ByLevel: map[domain.Level]domain.LevelStats{domain.LevelA2: {Answered: 4, Correct: 3}},
			}, nil
		},
		LearnerSessionsFunc: func(_ context.Context, _ string, limit int) ([]domain.QuizSession, error) {
			assert.Equal(t, 5, limit)
			return []domain.QuizSession{{ID: uuid.New(), Mode: domain.SessionModeLearning}}, nil
		},
	}
	h := newTestRouter(t, svc, nil)

	rec := do(t, h, http.MethodGet, "/api/learners/ann/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody[learnerStatsResponse](t, rec)
	assert.InDelta(t, 0.75, stats.Accuracy, 1e-9)
	assert.Equal(t, levelStatsResponse{Answered: 4, Correct: 3}, stats.ByLevel["A2"])

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/learners/bob/stats", "").Code)

	rec = do(t, h, http.MethodGet, "/api/learners/ann/sessions?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]sessionResponse](t, rec), 1)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/learners/ann/sessions?limit=x", "").Code)
}

func TestCatalogRoutes(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, &quizServiceMock{}, nil)

	rec := do(t, h, http.MethodGet, "/api/criteria", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string][]string{"VERB": {"A2", "B1"}}, decodeBody[map[string][]string](t, rec))

	rec = do(t, h, http.MethodGet, "/api/catalog/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody[catalogStatsResponse](t, rec)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 3, stats.ByPOS["VERB"])
}

func TestImages(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, &quizServiceMock{}, nil)

	rec := do(t, h, http.MethodGet, "/images/errors/hugging/abc.png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png", rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "3", rec.Header().Get("Content-Length"))

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/images/errors/missing.png", "").Code)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, &quizServiceMock{}, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodDelete, "/api/sessions", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/live", "").Code)
}
