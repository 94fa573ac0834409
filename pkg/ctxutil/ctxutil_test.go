package ctxutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestSessionID_RoundTrip(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	got, ok := SessionIDFromCtx(WithSessionID(context.Background(), id))
	if !ok || got != id {
		t.Fatalf("SessionIDFromCtx = %s, %v; want %s, true", got, ok, id)
	}
}

func TestSessionIDFromCtx_Missing(t *testing.T) {
	t.Parallel()

	for name, ctx := range map[string]context.Context{
		"empty":     context.Background(),
		"nil uuid":  WithSessionID(context.Background(), uuid.Nil),
		"wrong key": context.WithValue(context.Background(), ctxKey("other"), uuid.New()),
	} {
		if got, ok := SessionIDFromCtx(ctx); ok || got != uuid.Nil {
			t.Errorf("%s: SessionIDFromCtx = %s, %v; want uuid.Nil, false", name, got, ok)
		}
	}
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	if got := RequestIDFromCtx(context.Background()); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}
	if got := RequestIDFromCtx(WithRequestID(context.Background(), "req-1")); got != "req-1" {
		t.Fatalf("expected req-1, got %q", got)
	}
}
