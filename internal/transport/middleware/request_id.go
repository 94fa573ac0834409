package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/heartmarshall/picquiz-backend/pkg/ctxutil"
)

const maxRequestIDLen = 64

// RequestID reuses a sane incoming X-Request-Id or generates a new one, puts
// it into the request context and echoes it in the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(ctxutil.WithRequestID(r.Context(), id)))
	})
}
