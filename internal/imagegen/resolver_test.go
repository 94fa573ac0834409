package imagegen

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/picquiz-backend/internal/domain"
)

const placeholder = "static/placeholder.jpg"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type cacheMock struct {
	mu    sync.Mutex
	items map[string]*domain.ErrorImage
	err   error
}

func newCacheMock() *cacheMock { return &cacheMock{items: map[string]*domain.ErrorImage{}} }

func (m *cacheMock) GetByPair(_ context.Context, target, wrong string) (*domain.ErrorImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	img, ok := m.items[target+"/"+wrong]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return img, nil
}

func (m *cacheMock) Upsert(_ context.Context, img *domain.ErrorImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[img.Target+"/"+img.WrongWord] = img
	return nil
}

var req = Request{Target: "hugging", Word: "hanging", Sentence: "Two kids hanging a puppy."}

func TestResolve_GeneratesAndCaches(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	gen := RequestorFunc(func(_ context.Context, r Request) (string, error) {
		calls.Add(1)
		return ObjectKey(r.Target, r.Word), nil
	})
	cache := newCacheMock()
	r := NewResolver(discardLogger(), gen, cache, time.Second, placeholder)

	first := r.Resolve(context.Background(), req)
	assert.Equal(t, SourceGenerated, first.Source)
	assert.Equal(t, ObjectKey("hugging", "hanging"), first.Ref)
	assert.False(t, first.Fallback())

	second := r.Resolve(context.Background(), req)
	assert.Equal(t, SourceCache, second.Source)
	assert.Equal(t, first.Ref, second.Ref)
	assert.Equal(t, int32(1), calls.Load())
}

func TestResolve_FailureFallsBackToPlaceholder(t *testing.T) {
	t.Parallel()

	gen := RequestorFunc(func(context.Context, Request) (string, error) {
		return "", &ErrProviderUnavailable{Err: errors.New("503")}
	})
	cache := newCacheMock()
	r := NewResolver(discardLogger(), gen, cache, time.Second, placeholder)

	res := r.Resolve(context.Background(), req)
	assert.Equal(t, placeholder, res.Ref)
	assert.True(t, res.Fallback())
	assert.ErrorIs(t, res.Err, domain.ErrExternalService)

	var unavail *ErrProviderUnavailable
	assert.True(t, errors.As(res.Err, &unavail))
	assert.Empty(t, cache.items, "placeholder must not be cached")
}

func TestResolve_TimeoutBounded(t *testing.T) {
	t.Parallel()

	gen := RequestorFunc(func(ctx context.Context, _ Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	r := NewResolver(discardLogger(), gen, nil, 20*time.Millisecond, placeholder)

	start := time.Now()
	res := r.Resolve(context.Background(), req)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, res.Fallback())
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestResolve_CallerCancellation(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)
	gen := RequestorFunc(func(ctx context.Context, _ Request) (string, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return "", errors.New("late")
	})
	r := NewResolver(discardLogger(), gen, nil, time.Minute, placeholder)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := r.Resolve(ctx, req)
	assert.True(t, res.Fallback())
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestResolve_EmptyRefIsFailure(t *testing.T) {
	t.Parallel()

	gen := RequestorFunc(func(context.Context, Request) (string, error) { return "", nil })
	r := NewResolver(discardLogger(), gen, nil, time.Second, placeholder)

	res := r.Resolve(context.Background(), req)
	assert.True(t, res.Fallback())
	assert.ErrorIs(t, res.Err, domain.ErrExternalService)
}

func TestResolve_ConcurrentRequestsShareOneCall(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	gate := make(chan struct{})
	gen := RequestorFunc(func(context.Context, Request) (string, error) {
		calls.Add(1)
		<-gate
		return "errors/hugging/x.png", nil
	})
	r := NewResolver(discardLogger(), gen, nil, time.Second, placeholder)

	var wg sync.WaitGroup
	results := make([]Result, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = r.Resolve(context.Background(), req)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	require.Equal(t, int32(1), calls.Load())
	for _, res := range results {
		assert.Equal(t, "errors/hugging/x.png", res.Ref)
	}
}

func TestResolve_CacheErrorStillGenerates(t *testing.T) {
	t.Parallel()

	cache := newCacheMock()
	cache.err = errors.New("db down")
	gen := RequestorFunc(func(context.Context, Request) (string, error) { return "errors/a.png", nil })
	r := NewResolver(discardLogger(), gen, cache, time.Second, placeholder)

	res := r.Resolve(context.Background(), req)
	assert.Equal(t, SourceGenerated, res.Source)
}

func TestDisabled(t *testing.T) {
	t.Parallel()

	r := NewResolver(discardLogger(), Disabled{}, nil, time.Second, placeholder)
	res := r.Resolve(context.Background(), req)
	assert.Equal(t, placeholder, res.Ref)
	assert.True(t, res.Fallback())
}
