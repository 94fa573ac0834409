// Package learner implements the Learner repository using PostgreSQL.
package learner

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/picquiz-backend/internal/adapter/postgres"
	"github.com/heartmarshall/picquiz-backend/internal/domain"
)

// Repo provides learner persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new learner repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const getByUsernameSQL = `
SELECT id, username, created_at
FROM learners
WHERE lower(username) = lower($1)`

const getByIDSQL = `
SELECT id, username, created_at
FROM learners
WHERE id = $1`

// ON CONFLICT DO NOTHING returns no row when the username exists.
const insertSQL = `
INSERT INTO learners (id, username, created_at)
VALUES ($1, $2, $3)
ON CONFLICT DO NOTHING
RETURNING id, username, created_at`

// GetByUsername returns a learner by username, case-insensitive.
func (r *Repo) GetByUsername(ctx context.Context, username string) (*domain.Learner, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var l domain.Learner
	err := q.QueryRow(ctx, getByUsernameSQL, username).Scan(&l.ID, &l.Username, &l.CreatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "learner", username)
	}
	return &l, nil
}

// GetByID returns a learner by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Learner, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var l domain.Learner
	err := q.QueryRow(ctx, getByIDSQL, id).Scan(&l.ID, &l.Username, &l.CreatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "learner", id)
	}
	return &l, nil
}

// GetOrCreate returns the learner with username, registering it first if
// it does not exist. Concurrent callers with the same name get the same row.
func (r *Repo) GetOrCreate(ctx context.Context, username string) (*domain.Learner, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.NewValidationError("username", "required")
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	var l domain.Learner
	err := q.QueryRow(ctx, insertSQL, uuid.New(), username, time.Now().UTC()).
		Scan(&l.ID, &l.Username, &l.CreatedAt)
	if err == nil {
		return &l, nil
	}

	mapped := postgres.MapError(err, "learner", username)
	if !errors.Is(mapped, domain.ErrNotFound) {
		return nil, mapped
	}
	return r.GetByUsername(ctx, username)
}
