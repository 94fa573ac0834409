// Package imagegen produces "error images": pictures of the sentence a learner
// built with a wrong answer.
package imagegen

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/heartmarshall/picquiz-backend/internal/domain"
)

// Request asks for an image of Sentence, the caption completed with Word
// instead of Target.
type Request struct {
	Target   string
	Word     string
	Sentence string
}

// Requestor generates an error image and returns a stable reference to it.
// Implementations own the provider call, persistence of the bytes and any
// retry policy.
type Requestor interface {
	RequestErrorImage(ctx context.Context, req Request) (string, error)
}

// RequestorFunc adapts a function to Requestor.
type RequestorFunc func(ctx context.Context, req Request) (string, error)

func (f RequestorFunc) RequestErrorImage(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Source tells where a resolved reference came from.
type Source string

const (
	SourceCache       Source = "cache"
	SourceGenerated   Source = "generated"
	SourcePlaceholder Source = "placeholder"
)

// Result is the outcome of Resolve. Err is set when the placeholder was used
// because generation failed; it is informational only.
type Result struct {
	Ref    string
	Source Source
	Err    error
}

// Fallback reports whether the placeholder is being shown.
func (r Result) Fallback() bool { return r.Source == SourcePlaceholder }

type imageCache interface {
	GetByPair(ctx context.Context, target, wrong string) (*domain.ErrorImage, error)
	Upsert(ctx context.Context, img *domain.ErrorImage) error
}

// Resolver is the core-facing side of error image generation. It bounds
// each request by a timeout, never retries, shares concurrent requests for
// the same pair and falls back to a placeholder on failure.
type Resolver struct {
	requestor   Requestor
	cache       imageCache
	timeout     time.Duration
	placeholder string
	group       singleflight.Group
	log         *slog.Logger
}

// NewResolver creates a Resolver. cache may be nil.
func NewResolver(logger *slog.Logger, requestor Requestor, cache imageCache, timeout time.Duration, placeholder string) *Resolver {
	return &Resolver{
		requestor:   requestor,
		cache:       cache,
		timeout:     timeout,
		placeholder: placeholder,
		log:         logger.With("service", "imagegen"),
	}
}

// Resolve returns a reference for the error image of req. It always returns a
// usable reference; on failure that is the placeholder.
func (r *Resolver) Resolve(ctx context.Context, req Request) Result {
	if r.cache != nil {
		img, err := r.cache.GetByPair(ctx, req.Target, req.Word)
		switch {
		case err == nil:
			return Result{Ref: img.Ref, Source: SourceCache}
		case !errors.Is(err, domain.ErrNotFound):
			r.log.WarnContext(ctx, "error image cache lookup failed",
				slog.String("target", req.Target),
				slog.String("error", err.Error()),
			)
		}
	}

	key := req.Target + "\x00" + req.Word
	ch := r.group.DoChan(key, func() (any, error) {
		// Shared by every waiter, so it must outlive any single caller.
		genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return r.requestor.RequestErrorImage(genCtx, req)
	})

	var (
		ref string
		err error
	)
	select {
	case res := <-ch:
		if res.Err != nil {
			err = res.Err
		} else {
			ref = res.Val.(string)
		}
	case <-ctx.Done():
		err = ctx.Err()
	}

	if err == nil && ref == "" {
		err = errors.New("empty image reference")
	}
	if err != nil {
		ext := &domain.ExternalServiceError{Service: "imagegen", Err: err}
		r.log.ErrorContext(ctx, "error image generation failed, using placeholder",
			slog.String("target", req.Target),
			slog.String("word", req.Word),
			slog.String("error", err.Error()),
		)
		return Result{Ref: r.placeholder, Source: SourcePlaceholder, Err: ext}
	}

	if r.cache != nil {
		img := &domain.ErrorImage{
			ID:        uuid.New(),
			Target:    req.Target,
			WrongWord: req.Word,
			Ref:       ref,
			CreatedAt: time.Now(),
		}
		if err := r.cache.Upsert(ctx, img); err != nil {
			r.log.WarnContext(ctx, "error image cache store failed",
				slog.String("target", req.Target),
				slog.String("error", err.Error()),
			)
		}
	}

	r.log.InfoContext(ctx, "error image generated",
		slog.String("target", req.Target),
		slog.String("word", req.Word),
		slog.String("ref", ref),
	)
	return Result{Ref: ref, Source: SourceGenerated}
}
