// Package quizsession implements the QuizSession repository using PostgreSQL.
package quizsession

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/picquiz-backend/internal/adapter/postgres"
	"github.com/heartmarshall/picquiz-backend/internal/domain"
)

// Repo provides quiz session persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new quiz session repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const columns = `id, learner_id, mode, pos_filter, level_filter, total, current, correct_count, completed, created_at, updated_at`

const createSQL = `
INSERT INTO quiz_sessions (` + columns + `)
VALUES ($1, $2, $3, $4, $5, $6, 0, 0, false, $7, $7)
RETURNING ` + columns

const getByIDSQL = `
SELECT ` + columns + `
FROM quiz_sessions
WHERE id = $1`

const updateProgressSQL = `
UPDATE quiz_sessions
SET current = $2, correct_count = $3, completed = $4, updated_at = $5
WHERE id = $1
RETURNING ` + columns

const listByLearnerSQL = `
SELECT ` + columns + `
FROM quiz_sessions
WHERE learner_id = $1
ORDER BY created_at DESC
LIMIT $2`

// Create inserts a new session with zero progress.
func (r *Repo) Create(ctx context.Context, s *domain.QuizSession) (*domain.QuizSession, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	created := s.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	row := q.QueryRow(ctx, createSQL,
		s.ID, s.LearnerID, string(s.Mode), string(s.POSFilter), string(s.LevelFilter), s.Total, created,
	)
	out, err := scanSession(row)
	if err != nil {
		return nil, postgres.MapError(err, "quiz_session", s.ID)
	}
	return out, nil
}

// GetByID returns a session by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.QuizSession, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	out, err := scanSession(q.QueryRow(ctx, getByIDSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "quiz_session", id)
	}
	return out, nil
}

// UpdateProgress persists the counters of s. The table's check constraint
// rejects progress beyond Total with domain.ErrValidation.
func (r *Repo) UpdateProgress(ctx context.Context, s *domain.QuizSession) (*domain.QuizSession, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	row := q.QueryRow(ctx, updateProgressSQL, s.ID, s.Current, s.CorrectCount, s.Completed, time.Now().UTC())
	out, err := scanSession(row)
	if err != nil {
		return nil, postgres.MapError(err, "quiz_session", s.ID)
	}
	return out, nil
}

// ListByLearner returns the learner's most recent sessions, newest first.
func (r *Repo) ListByLearner(ctx context.Context, learnerID uuid.UUID, limit int) ([]domain.QuizSession, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, listByLearnerSQL, learnerID, limit)
	if err != nil {
		return nil, postgres.MapError(err, "quiz_session", learnerID)
	}
	defer rows.Close()

	var out []domain.QuizSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, postgres.MapError(err, "quiz_session", learnerID)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "quiz_session", learnerID)
	}
	return out, nil
}

func scanSession(row pgx.Row) (*domain.QuizSession, error) {
	var (
		s                   domain.QuizSession
		mode, pos, levelStr string
	)
	err := row.Scan(
		&s.ID, &s.LearnerID, &mode, &pos, &levelStr,
		&s.Total, &s.Current, &s.CorrectCount, &s.Completed,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Mode = domain.SessionMode(mode)
	s.POSFilter = domain.PartOfSpeech(pos)
	s.LevelFilter = domain.Level(levelStr)
	return &s, nil
}
