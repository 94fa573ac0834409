// Package errorimage caches generated error images keyed by the
// (target, wrong word) pair, case-insensitive.
package errorimage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/picquiz-backend/internal/adapter/postgres"
	"github.com/heartmarshall/picquiz-backend/internal/domain"
)

// Repo provides error image persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new error image repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const getByPairSQL = `
SELECT id, target, wrong_word, ref, created_at
FROM error_images
WHERE lower(target) = lower($1) AND lower(wrong_word) = lower($2)`

// GetByPair returns the cached image for target answered as wrong.
func (r *Repo) GetByPair(ctx context.Context, target, wrong string) (*domain.ErrorImage, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var img domain.ErrorImage
	err := q.QueryRow(ctx, getByPairSQL, target, wrong).
		Scan(&img.ID, &img.Target, &img.WrongWord, &img.Ref, &img.CreatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "error_image", target+"/"+wrong)
	}
	return &img, nil
}

// Upsert stores img, replacing the ref of an existing pair.
func (r *Repo) Upsert(ctx context.Context, img *domain.ErrorImage) error {
	if img.ID == uuid.Nil {
		img.ID = uuid.New()
	}
	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now().UTC()
	}

	query, args, err := postgres.Builder.
		Insert("error_images").
		Columns("id", "target", "wrong_word", "ref", "created_at").
		Values(img.ID, img.Target, img.WrongWord, img.Ref, img.CreatedAt).
		Suffix("ON CONFLICT ((lower(target)), (lower(wrong_word))) DO UPDATE SET ref = EXCLUDED.ref RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build error image upsert: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)
	if err := q.QueryRow(ctx, query, args...).Scan(&img.ID, &img.CreatedAt); err != nil {
		return postgres.MapError(err, "error_image", img.Target+"/"+img.WrongWord)
	}
	return nil
}
