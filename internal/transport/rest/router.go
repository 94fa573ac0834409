package rest

import (
	"net/http"

	"github.com/heartmarshall/picquiz-backend/internal/transport/middleware"
)

// Routes are the handlers mounted by NewRouter. Metrics and AnswerLimit may
// be nil.
type Routes struct {
	Quiz        *QuizHandler
	Images      *ImageHandler
	Health      *HealthHandler
	Metrics     http.Handler
	AnswerLimit middleware.Middleware
}

// NewRouter registers every endpoint on a new ServeMux.
func NewRouter(rt Routes) *http.ServeMux {
	mux := http.NewServeMux()

	answer := middleware.Chain(rt.AnswerLimit)(http.HandlerFunc(rt.Quiz.SubmitAnswer))

	mux.HandleFunc("POST /api/sessions", rt.Quiz.StartSession)
	mux.HandleFunc("GET /api/sessions/{id}", rt.Quiz.Summary)
	mux.HandleFunc("POST /api/sessions/{id}/questions", rt.Quiz.NextQuestion)
	mux.Handle("POST /api/sessions/{id}/questions/{itemID}/answer", answer)
	mux.HandleFunc("GET /api/learners/{username}/stats", rt.Quiz.LearnerStats)
	mux.HandleFunc("GET /api/learners/{username}/sessions", rt.Quiz.LearnerSessions)
	mux.HandleFunc("GET /api/criteria", rt.Quiz.Criteria)
	mux.HandleFunc("GET /api/catalog/stats", rt.Quiz.CatalogStats)

	mux.HandleFunc("GET /images/{key...}", rt.Images.Get)

	mux.HandleFunc("GET /live", rt.Health.Live)
	mux.HandleFunc("GET /ready", rt.Health.Ready)
	mux.HandleFunc("GET /health", rt.Health.Health)
	if rt.Metrics != nil {
		mux.Handle("GET /metrics", rt.Metrics)
	}

	return mux
}
