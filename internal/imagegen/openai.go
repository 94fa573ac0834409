package imagegen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// ErrRateLimit indicates the provider rejected the request with 429.
type ErrRateLimit struct {
	Err error
}

func (e *ErrRateLimit) Error() string { return fmt.Sprintf("rate limited: %v", e.Err) }

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down, unreachable or
// returned an unusable response.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	return fmt.Sprintf("image provider unavailable: %v", e.Err)
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// OpenAIConfig configures the OpenAI image generator.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Size        string
	Quality     string
	Style       string
	MinInterval time.Duration
}

type objectWriter interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
}

// OpenAIGenerator renders error images with the OpenAI images API and writes
// them to object storage.
type OpenAIGenerator struct {
	client  *openai.Client
	cfg     OpenAIConfig
	store   objectWriter
	limiter *rate.Limiter
	log     *slog.Logger
}

// NewOpenAIGenerator creates an OpenAIGenerator. Requests are spaced at least
// cfg.MinInterval apart.
func NewOpenAIGenerator(logger *slog.Logger, cfg OpenAIConfig, store objectWriter) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}

	return &OpenAIGenerator{
		client:  openai.NewClientWithConfig(config),
		cfg:     cfg,
		store:   store,
		limiter: rate.NewLimiter(limit, 1),
		log:     logger.With("service", "openai_image"),
	}, nil
}

// RequestErrorImage implements Requestor.
func (g *OpenAIGenerator) RequestErrorImage(ctx context.Context, req Request) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("wait for rate limit: %w", err)
	}

	start := time.Now()
	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         BuildPrompt(req.Sentence),
		Model:          g.cfg.Model,
		N:              1,
		Size:           g.cfg.Size,
		Quality:        g.cfg.Quality,
		Style:          g.cfg.Style,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return "", mapOpenAIError(err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return "", &ErrProviderUnavailable{Err: errors.New("no image data in response")}
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return "", &ErrProviderUnavailable{Err: fmt.Errorf("decode image: %w", err)}
	}

	key := ObjectKey(req.Target, req.Word)
	if err := g.store.Put(ctx, key, "image/png", data); err != nil {
		return "", fmt.Errorf("store error image: %w", err)
	}

	g.log.DebugContext(ctx, "image generated",
		slog.String("key", key),
		slog.Int("bytes", len(data)),
		slog.Duration("took", time.Since(start)),
	)
	return key, nil
}

func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return &ErrRateLimit{Err: err}
	}
	return &ErrProviderUnavailable{Err: err}
}

// Disabled is used when no provider is configured; every request fails so
// callers fall back to the placeholder.
type Disabled struct{}

var errDisabled = errors.New("image generation disabled")

// RequestErrorImage implements Requestor.
func (Disabled) RequestErrorImage(context.Context, Request) (string, error) {
	return "", errDisabled
}
