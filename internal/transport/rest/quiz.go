package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/picquiz-backend/internal/domain"
	"github.com/heartmarshall/picquiz-backend/internal/service/quiz"
)

// quizService defines the minimal interface needed by QuizHandler.
type quizService interface {
	StartSession(ctx context.Context, input quiz.StartInput) (*domain.QuizSession, error)
	NextQuestion(ctx context.Context, sessionID uuid.UUID) (*quiz.Question, error)
	SubmitAnswer(ctx context.Context, input quiz.AnswerInput) (*quiz.AnswerResult, error)
	Summary(ctx context.Context, sessionID uuid.UUID) (*quiz.Summary, error)
	LearnerStats(ctx context.Context, username string) (*domain.LearnerStats, error)
	LearnerSessions(ctx context.Context, username string, limit int) ([]domain.QuizSession, error)
	Criteria() map[domain.PartOfSpeech][]domain.Level
	CatalogStats() domain.CatalogStats
}

// QuizHandler serves the quiz REST endpoints.
type QuizHandler struct {
	svc       quizService
	imageBase string
	log       *slog.Logger
}

// NewQuizHandler creates a QuizHandler. Image references in responses are
// turned into URLs under imageBase.
func NewQuizHandler(svc quizService, imageBase string, logger *slog.Logger) *QuizHandler {
	return &QuizHandler{svc: svc, imageBase: imageBase, log: logger.With("handler", "quiz")}
}

type startSessionRequest struct {
	Username string `json:"username"`
	Mode     string `json:"mode"`
	POS      string `json:"pos"`
	Level    string `json:"level"`
	Total    int    `json:"total"`
}

type answerRequest struct {
	Selected string `json:"selected"`
}

type progressResponse struct {
	Current      int  `json:"current"`
	Total        int  `json:"total"`
	CorrectCount int  `json:"correctCount"`
	Completed    bool `json:"completed"`
}

type sessionResponse struct {
	ID        string           `json:"id"`
	LearnerID string           `json:"learnerId"`
	Mode      string           `json:"mode"`
	POS       string           `json:"pos,omitempty"`
	Level     string           `json:"level,omitempty"`
	Progress  progressResponse `json:"progress"`
	CreatedAt time.Time        `json:"createdAt"`
}

type questionResponse struct {
	ItemID   string   `json:"itemId"`
	Number   int      `json:"number"`
	Total    int      `json:"total"`
	Prompt   string   `json:"prompt"`
	Options  []string `json:"options"`
	ImageURL string   `json:"imageUrl,omitempty"`
	Level    string   `json:"level"`
	POS      string   `json:"pos,omitempty"`
}

type answerResponse struct {
	ItemID            string           `json:"itemId"`
	Correct           bool             `json:"correct"`
	Selected          string           `json:"selected"`
	CorrectWord       string           `json:"correctWord"`
	CompletedSentence string           `json:"completedSentence"`
	WrongSentence     string           `json:"wrongSentence,omitempty"`
	ErrorImageURL     string           `json:"errorImageUrl,omitempty"`
	Fallback          bool             `json:"fallback"`
	Progress          progressResponse `json:"progress"`
}

type mistakeResponse struct {
	Target        string `json:"target"`
	Selected      string `json:"selected"`
	ErrorImageURL string `json:"errorImageUrl,omitempty"`
}

type summaryResponse struct {
	SessionID    string            `json:"sessionId"`
	Mode         string            `json:"mode"`
	Progress     progressResponse  `json:"progress"`
	Accuracy     float64           `json:"accuracy"`
	ProgressRate float64           `json:"progressRate"`
	Mistakes     []mistakeResponse `json:"mistakes"`
}

type levelStatsResponse struct {
	Answered int `json:"answered"`
	Correct  int `json:"correct"`
}

type learnerStatsResponse struct {
	Username string                        `json:"username"`
	Answered int                           `json:"answered"`
	Correct  int                           `json:"correct"`
	Accuracy float64                       `json:"accuracy"`
	ByLevel  map[string]levelStatsResponse `json:"byLevel"`
}

type catalogStatsResponse struct {
	Total   int            `json:"total"`
	ByLevel map[string]int `json:"byLevel"`
	ByPOS   map[string]int `json:"byPos"`
}

// StartSession handles POST /api/sessions.
func (h *QuizHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decodeJSON(r, w, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	sess, err := h.svc.StartSession(r.Context(), quiz.StartInput{
		Username: req.Username,
		Mode:     req.Mode,
		POS:      req.POS,
		Level:    req.Level,
		Total:    req.Total,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSessionResponse(*sess))
}

// Summary handles GET /api/sessions/{id}.
func (h *QuizHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	sum, err := h.svc.Summary(r.Context(), id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	resp := summaryResponse{
		SessionID:    sum.SessionID.String(),
		Mode:         sum.Mode.String(),
		Progress:     toProgressResponse(sum.Progress),
		Accuracy:     sum.Accuracy,
		ProgressRate: sum.ProgressRate,
		Mistakes:     make([]mistakeResponse, 0, len(sum.Mistakes)),
	}
	for _, m := range sum.Mistakes {
		resp.Mistakes = append(resp.Mistakes, mistakeResponse{
			Target:        m.Target,
			Selected:      m.Selected,
			ErrorImageURL: h.imageURL(m.ErrorImage),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// NextQuestion handles POST /api/sessions/{id}/questions.
func (h *QuizHandler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	q, err := h.svc.NextQuestion(r.Context(), id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, questionResponse{
		ItemID:   q.ItemID.String(),
		Number:   q.Number,
		Total:    q.Total,
		Prompt:   q.Prompt,
		Options:  q.Options,
		ImageURL: h.imageURL(q.ImageRef),
		Level:    q.Level.String(),
		POS:      q.POS.String(),
	})
}

// SubmitAnswer handles POST /api/sessions/{id}/questions/{itemID}/answer.
func (h *QuizHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	itemID, err := uuid.Parse(r.PathValue("itemID"))
	if err != nil {
		handleError(h.log, w, r, domain.NewValidationError("item_id", "must be a UUID"))
		return
	}

	var req answerRequest
	if err := decodeJSON(r, w, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	res, err := h.svc.SubmitAnswer(r.Context(), quiz.AnswerInput{
		SessionID: id,
		ItemID:    itemID,
		Selected:  req.Selected,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, answerResponse{
		ItemID:            res.ItemID.String(),
		Correct:           res.Correct,
		Selected:          res.Selected,
		CorrectWord:       res.CorrectWord,
		CompletedSentence: res.CompletedSentence,
		WrongSentence:     res.WrongSentence,
		ErrorImageURL:     h.imageURL(res.ErrorImage),
		Fallback:          res.Fallback,
		Progress:          toProgressResponse(res.Progress),
	})
}

// LearnerStats handles GET /api/learners/{username}/stats.
func (h *QuizHandler) LearnerStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.LearnerStats(r.Context(), r.PathValue("username"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	resp := learnerStatsResponse{
		Username: stats.Username,
		Answered: stats.Answered,
		Correct:  stats.Correct,
		Accuracy: stats.Accuracy(),
		ByLevel:  make(map[string]levelStatsResponse, len(stats.ByLevel)),
	}
	for l, s := range stats.ByLevel {
		resp.ByLevel[l.String()] = levelStatsResponse{Answered: s.Answered, Correct: s.Correct}
	}
	writeJSON(w, http.StatusOK, resp)
}

// LearnerSessions handles GET /api/learners/{username}/sessions?limit=20.
func (h *QuizHandler) LearnerSessions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	list, err := h.svc.LearnerSessions(r.Context(), r.PathValue("username"), limit)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	resp := make([]sessionResponse, 0, len(list))
	for _, s := range list {
		resp = append(resp, toSessionResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Criteria handles GET /api/criteria.
func (h *QuizHandler) Criteria(w http.ResponseWriter, r *http.Request) {
	crit := h.svc.Criteria()
	resp := make(map[string][]string, len(crit))
	for pos, levels := range crit {
		out := make([]string, 0, len(levels))
		for _, l := range levels {
			out = append(out, l.String())
		}
		resp[pos.String()] = out
	}
	writeJSON(w, http.StatusOK, resp)
}

// CatalogStats handles GET /api/catalog/stats.
func (h *QuizHandler) CatalogStats(w http.ResponseWriter, r *http.Request) {
	stats := h.svc.CatalogStats()
	resp := catalogStatsResponse{
		Total:   stats.Total,
		ByLevel: make(map[string]int, len(stats.ByLevel)),
		ByPOS:   make(map[string]int, len(stats.ByPOS)),
	}
	for l, n := range stats.ByLevel {
		resp.ByLevel[l.String()] = n
	}
	for p, n := range stats.ByPOS {
		resp.ByPOS[p.String()] = n
	}
	writeJSON(w, http.StatusOK, resp)
}

// sessionID parses the {id} path value.
func (h *QuizHandler) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handleError(h.log, w, r, domain.NewValidationError("session_id", "must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *QuizHandler) imageURL(ref string) string {
	if ref == "" {
		return ""
	}
	return h.imageBase + ref
}

func toProgressResponse(p quiz.Progress) progressResponse {
	return progressResponse{
		Current:      p.Current,
		Total:        p.Total,
		CorrectCount: p.CorrectCount,
		Completed:    p.Completed,
	}
}

func toSessionResponse(s domain.QuizSession) sessionResponse {
	return sessionResponse{
		ID:        s.ID.String(),
		LearnerID: s.LearnerID.String(),
		Mode:      s.Mode.String(),
		POS:       s.POSFilter.String(),
		Level:     s.LevelFilter.String(),
		Progress: progressResponse{
			Current:      s.Current,
			Total:        s.Total,
			CorrectCount: s.CorrectCount,
			Completed:    s.Completed,
		},
		CreatedAt: s.CreatedAt,
	}
}
