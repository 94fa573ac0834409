package quiz

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/picquiz-backend/internal/domain"
	"github.com/heartmarshall/picquiz-backend/internal/imagegen"
)

var (
	_ learnerRepo   = &learnerRepoMock{}
	_ sessionRepo   = &sessionRepoMock{}
	_ answerRepo    = &answerRepoMock{}
	_ txManager     = &txManagerMock{}
	_ imageResolver = &imageResolverMock{}
)

// learnerRepoMock keeps learners in memory.
type learnerRepoMock struct {
	mu     sync.Mutex
	byName map[string]domain.Learner
}

func (m *learnerRepoMock) GetOrCreate(_ context.Context, username string) (*domain.Learner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byName == nil {
		m.byName = map[string]domain.Learner{}
	}
	key := strings.ToLower(username)
	if l, ok := m.byName[key]; ok {
		return &l, nil
	}
	l := domain.Learner{ID: uuid.New(), Username: username, CreatedAt: time.Now()}
	m.byName[key] = l
	return &l, nil
}

func (m *learnerRepoMock) GetByUsername(_ context.Context, username string) (*domain.Learner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.byName[strings.ToLower(username)]
	if !ok {
		return nil, fmt.Errorf("learner %s: %w", username, domain.ErrNotFound)
	}
	return &l, nil
}

// sessionRepoMock keeps sessions in memory.
type sessionRepoMock struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]domain.QuizSession

	UpdateProgressFunc func(ctx context.Context, s *domain.QuizSession) (*domain.QuizSession, error)
}

func (m *sessionRepoMock) Create(_ context.Context, s *domain.QuizSession) (*domain.QuizSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions == nil {
		m.sessions = map[uuid.UUID]domain.QuizSession{}
	}
	m.sessions[s.ID] = *s
	out := *s
	return &out, nil
}

func (m *sessionRepoMock) GetByID(ctx context.Context, id uuid.UUID) (*domain.QuizSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("quiz_session %s: %w", id, domain.ErrNotFound)
	}
	return &s, nil
}

func (m *sessionRepoMock) UpdateProgress(ctx context.Context, s *domain.QuizSession) (*domain.QuizSession, error) {
	if m.UpdateProgressFunc != nil {
		return m.UpdateProgressFunc(ctx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.sessions[s.ID]
	if !ok {
		return nil, fmt.Errorf("quiz_session %s: %w", s.ID, domain.ErrNotFound)
	}
	stored.Current = s.Current
	stored.CorrectCount = s.CorrectCount
	stored.Completed = s.Completed
	stored.UpdatedAt = time.Now()
	m.sessions[s.ID] = stored
	return &stored, nil
}

func (m *sessionRepoMock) ListByLearner(_ context.Context, learnerID uuid.UUID, limit int) ([]domain.QuizSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.QuizSession
	for _, s := range m.sessions {
		if s.LearnerID == learnerID {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, func(a, b domain.QuizSession) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *sessionRepoMock) get(id uuid.UUID) domain.QuizSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// answerRepoMock keeps the answer log in memory.
type answerRepoMock struct {
	mu      sync.Mutex
	records []domain.AnswerRecord

	CreateFunc         func(ctx context.Context, a *domain.AnswerRecord) (*domain.AnswerRecord, error)
	setErrorImageCalls int
}

func (m *answerRepoMock) Create(ctx context.Context, a *domain.AnswerRecord) (*domain.AnswerRecord, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, a)
	}
	m.add(*a)
	out := *a
	return &out, nil
}

func (m *answerRepoMock) add(a domain.AnswerRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.Options = slices.Clone(a.Options)
	m.records = append(m.records, a)
}

func (m *answerRepoMock) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.AnswerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.AnswerRecord
	for _, r := range m.records {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *answerRepoMock) ReviewTargets(_ context.Context, learnerID uuid.UUID, f domain.ReviewFilter) ([]domain.ReviewTarget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byTarget := map[string]*domain.ReviewTarget{}
	for _, r := range m.records {
		if r.LearnerID != learnerID || (f.POS != "" && r.POS != f.POS) || (f.Level != "" && r.Level != f.Level) {
			continue
		}
		rt := byTarget[r.Target]
		if rt == nil {
			rt = &domain.ReviewTarget{Target: r.Target}
			byTarget[r.Target] = rt
		}
		if !r.Correct {
			rt.Misses++
		}
		if r.AnsweredAt.After(rt.LastSeenAt) {
			rt.LastSeenAt = r.AnsweredAt
		}
	}
	out := make([]domain.ReviewTarget, 0, len(byTarget))
	for _, rt := range byTarget {
		out = append(out, *rt)
	}
	slices.SortFunc(out, func(a, b domain.ReviewTarget) int {
		if c := cmp.Compare(b.Misses, a.Misses); c != 0 {
			return c
		}
		if c := a.LastSeenAt.Compare(b.LastSeenAt); c != 0 {
			return c
		}
		return strings.Compare(a.Target, b.Target)
	})
	return out, nil
}

func (m *answerRepoMock) SeenOptions(_ context.Context, learnerID uuid.UUID, target string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, r := range m.records {
		if r.LearnerID != learnerID || !strings.EqualFold(r.Target, target) {
			continue
		}
		for _, o := range r.Options {
			if !strings.EqualFold(o, target) && !slices.Contains(out, o) {
				out = append(out, o)
			}
		}
	}
	slices.Sort(out)
	return out, nil
}

func (m *answerRepoMock) SetErrorImage(_ context.Context, itemID uuid.UUID, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setErrorImageCalls++
	for i := range m.records {
		if m.records[i].ItemID == itemID {
			m.records[i].ErrorImageRef = ref
			return nil
		}
	}
	return fmt.Errorf("answer_log %s: %w", itemID, domain.ErrNotFound)
}

func (m *answerRepoMock) Stats(_ context.Context, learnerID uuid.UUID) (*domain.LearnerStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &domain.LearnerStats{ByLevel: map[domain.Level]domain.LevelStats{}}
	for _, r := range m.records {
		if r.LearnerID != learnerID {
			continue
		}
		ls := stats.ByLevel[r.Level]
		ls.Answered++
		stats.Answered++
		if r.Correct {
			ls.Correct++
			stats.Correct++
		}
		stats.ByLevel[r.Level] = ls
	}
	return stats, nil
}

func (m *answerRepoMock) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// txManagerMock runs fn inline.
type txManagerMock struct{}

func (txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type imageResolverMock struct {
	ResolveFunc func(ctx context.Context, req imagegen.Request) imagegen.Result

	mu    sync.Mutex
	calls []imagegen.Request
}

func (m *imageResolverMock) Resolve(ctx context.Context, req imagegen.Request) imagegen.Result {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, req)
	}
	return imagegen.Result{Ref: imagegen.ObjectKey(req.Target, req.Word), Source: imagegen.SourceGenerated}
}

func (m *imageResolverMock) Calls() []imagegen.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}
