package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/picquiz-backend/internal/adapter/postgres"
	"github.com/heartmarshall/picquiz-backend/internal/adapter/postgres/answerlog"
	"github.com/heartmarshall/picquiz-backend/internal/adapter/postgres/errorimage"
	"github.com/heartmarshall/picquiz-backend/internal/adapter/postgres/learner"
	"github.com/heartmarshall/picquiz-backend/internal/adapter/postgres/quizsession"
	"github.com/heartmarshall/picquiz-backend/internal/adapter/storage"
	"github.com/heartmarshall/picquiz-backend/internal/catalog"
	"github.com/heartmarshall/picquiz-backend/internal/config"
	"github.com/heartmarshall/picquiz-backend/internal/distractor"
	"github.com/heartmarshall/picquiz-backend/internal/imagegen"
	"github.com/heartmarshall/picquiz-backend/internal/metrics"
	"github.com/heartmarshall/picquiz-backend/internal/question"
	"github.com/heartmarshall/picquiz-backend/internal/service/quiz"
	"github.com/heartmarshall/picquiz-backend/internal/session"
	"github.com/heartmarshall/picquiz-backend/internal/transport/middleware"
	"github.com/heartmarshall/picquiz-backend/internal/transport/rest"
)

// ObjectStore is the storage surface the application needs.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Open(ctx context.Context, key string) (io.ReadCloser, storage.Info, error)
	Ping(ctx context.Context) error
}

// NewObjectStore opens the storage backend selected by cfg.Driver.
func NewObjectStore(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	switch cfg.Driver {
	case "local":
		l, err := storage.NewLocal(cfg.LocalRoot)
		if err != nil {
			return nil, err
		}
		return l, nil
	case "minio":
		m, err := storage.NewMinIO(ctx, storage.MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// NewAssembler builds the distractor generator and question assembler over
// the catalog.
func NewAssembler(cfg config.QuizConfig, cat *catalog.Catalog) (*question.Assembler, error) {
	gen, err := distractor.NewGenerator(cat, distractor.Config{
		Weights:           distractor.Weights{Distance: cfg.DistanceWeight, Tier: cfg.TierWeight},
		MaxTierRadius:     cfg.MaxTierRadius,
		PoolFactor:        cfg.PoolFactor,
		SamePOS:           cfg.SamePOS,
		BlockCaptionWords: cfg.BlockCaptionWords,
	})
	if err != nil {
		return nil, err
	}
	return question.NewAssembler(cat, gen, cfg.DistractorCount), nil
}

// NewRequestor returns the error image backend selected by cfg.Provider.
func NewRequestor(logger *slog.Logger, cfg config.ImageConfig, store ObjectStore) (imagegen.Requestor, error) {
	if cfg.Provider != "openai" {
		return imagegen.Disabled{}, nil
	}
	gen, err := imagegen.NewOpenAIGenerator(logger, imagegen.OpenAIConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Size:        cfg.Size,
		Quality:     cfg.Quality,
		Style:       cfg.Style,
		MinInterval: cfg.MinInterval,
	}, store)
	if err != nil {
		return nil, err
	}
	return gen, nil
}

// NewQuizService wires repositories, the dataset, image generation and the
// session store into the quiz service.
func NewQuizService(logger *slog.Logger, cfg *config.Config, ds *catalog.Dataset, pool *pgxpool.Pool, store ObjectStore, m *metrics.Metrics) (*quiz.Service, error) {
	assembler, err := NewAssembler(cfg.Quiz, ds.Catalog)
	if err != nil {
		return nil, err
	}

	requestor, err := NewRequestor(logger, cfg.Image, store)
	if err != nil {
		return nil, err
	}
	resolver := imagegen.NewResolver(logger, requestor, errorimage.New(pool), cfg.Image.Timeout, cfg.Image.Placeholder)

	sessions := session.NewStore(cfg.Session.CacheSize, cfg.Session.TTL)
	if m != nil {
		m.TrackLiveSessions(sessions.Len)
	}

	return quiz.NewService(logger, quiz.Deps{
		Learners:  learner.New(pool),
		Sessions:  quizsession.New(pool),
		Answers:   answerlog.New(pool),
		Tx:        postgres.NewTxManager(pool),
		Vocab:     ds.Catalog,
		Captions:  ds.Captions,
		Assembler: assembler,
		Images:    resolver,
		Store:     sessions,
		Metrics:   m,
	}, quiz.Settings{
		QuestionsPerSession: cfg.Quiz.QuestionsPerSession,
		MaxSessionQuestions: cfg.Quiz.MaxSessionQuestions,
		MaxTargetAttempts:   cfg.Quiz.MaxTargetAttempts,
	}), nil
}

// HTTPDeps are the collaborators of the HTTP handler.
type HTTPDeps struct {
	Quiz    *quiz.Service
	Store   ObjectStore
	DB      rest.Pinger
	Metrics *metrics.Metrics
}

// NewHTTPHandler mounts the routes and wraps them in the middleware chain.
// The returned stop func releases the rate limiter.
func NewHTTPHandler(logger *slog.Logger, cfg *config.Config, deps HTTPDeps) (http.Handler, func()) {
	routes := rest.Routes{
		Quiz:    rest.NewQuizHandler(deps.Quiz, "/images/", logger),
		Images:  rest.NewImageHandler(deps.Store, logger),
		Health:  rest.NewHealthHandler(BuildVersion(), map[string]rest.Pinger{"database": deps.DB, "storage": deps.Store}),
		Metrics: deps.Metrics.Handler(),
	}

	mws := []middleware.Middleware{
		middleware.RequestID,
		middleware.Recovery(logger),
		middleware.Logger(logger),
		middleware.Metrics(deps.Metrics),
		middleware.CORS(cfg.CORS),
	}

	stop := func() {}
	if cfg.RateLimit.Enabled {
		rl := middleware.NewRateLimiter(cfg.RateLimit.CleanupInterval)
		routes.AnswerLimit = rl.Limit(cfg.RateLimit.AnswersPerMin)
		mws = append(mws, rl.Limit(cfg.RateLimit.RequestsPerMin))
		stop = rl.Stop
	}

	return middleware.Chain(mws...)(rest.NewRouter(routes)), stop
}
