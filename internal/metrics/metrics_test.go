package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveHTTP(http.MethodPost, "/api/sessions", 201, 15*time.Millisecond)
	m.ObserveHTTP(http.MethodPost, "/api/sessions", 201, 5*time.Millisecond)
	m.QuestionAssembled("LEARNING", "ok")
	m.QuestionAssembled("LEARNING", "insufficient_candidates")
	m.AnswerSubmitted("B1", false)
	m.ErrorImageResolved("placeholder", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/api/sessions", "201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.questions.WithLabelValues("LEARNING", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.answers.WithLabelValues("B1", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorImages.WithLabelValues("placeholder")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.imageLatency))
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := New()
	m.AnswerSubmitted("A1", true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `picquiz_answers_total{correct="true",level="A1"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestMetrics_LiveSessions(t *testing.T) {
	t.Parallel()

	m := New()
	live := 3
	m.TrackLiveSessions(func() int { return live })

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "picquiz_live_sessions 3")

	live = 1
	rec = httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "picquiz_live_sessions 1")
}
