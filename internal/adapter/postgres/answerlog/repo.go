// Package answerlog implements the answer log repository using PostgreSQL.
// Every answered question is appended here; review mode and learner
// statistics read from it.
package answerlog

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/picquiz-backend/internal/adapter/postgres"
	"github.com/heartmarshall/picquiz-backend/internal/domain"
)

// Repo provides answer log persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new answer log repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const columns = `id, session_id, learner_id, item_id, target, level, pos, options, selected, correct, error_image_ref, answered_at`

const createSQL = `
INSERT INTO answer_logs (` + columns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING ` + columns

const listBySessionSQL = `
SELECT ` + columns + `
FROM answer_logs
WHERE session_id = $1
ORDER BY answered_at, id`

const seenOptionsSQL = `
SELECT DISTINCT o
FROM answer_logs, unnest(options) AS o
WHERE learner_id = $1 AND lower(target) = lower($2) AND lower(o) <> lower($2)
ORDER BY o`

const setErrorImageSQL = `
UPDATE answer_logs
SET error_image_ref = $2
WHERE item_id = $1`

const statsSQL = `
SELECT level, count(*), count(*) FILTER (WHERE correct)
FROM answer_logs
WHERE learner_id = $1
GROUP BY level`

// Create appends one answer. Answering the same item twice fails with
// domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, a *domain.AnswerRecord) (*domain.AnswerRecord, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	id := a.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	answered := a.AnsweredAt
	if answered.IsZero() {
		answered = time.Now().UTC()
	}
	options := a.Options
	if options == nil {
		options = []string{}
	}

	row := q.QueryRow(ctx, createSQL,
		id, a.SessionID, a.LearnerID, a.ItemID, a.Target, string(a.Level), string(a.POS),
		options, a.Selected, a.Correct, a.ErrorImageRef, answered,
	)
	out, err := scanRecord(row)
	if err != nil {
		return nil, postgres.MapError(err, "answer_log", a.ItemID)
	}
	return out, nil
}

// ListBySession returns the session's answers in answer order.
func (r *Repo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.AnswerRecord, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, listBySessionSQL, sessionID)
	if err != nil {
		return nil, postgres.MapError(err, "answer_log", sessionID)
	}
	defer rows.Close()

	var out []domain.AnswerRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, postgres.MapError(err, "answer_log", sessionID)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "answer_log", sessionID)
	}
	return out, nil
}

// SeenOptions returns the distractors the learner has already been shown for
// target, across all sessions.
func (r *Repo) SeenOptions(ctx context.Context, learnerID uuid.UUID, target string) ([]string, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, seenOptionsSQL, learnerID, target)
	if err != nil {
		return nil, postgres.MapError(err, "answer_log", target)
	}
	words, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, postgres.MapError(err, "answer_log", target)
	}
	return words, nil
}

// SetErrorImage attaches the resolved error image to an answered item.
func (r *Repo) SetErrorImage(ctx context.Context, itemID uuid.UUID, ref string) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, setErrorImageSQL, itemID, ref)
	if err != nil {
		return postgres.MapError(err, "answer_log", itemID)
	}
	if tag.RowsAffected() == 0 {
		return postgres.MapError(pgx.ErrNoRows, "answer_log", itemID)
	}
	return nil
}

// ReviewTargets returns the distinct words the learner has answered, words
// with more misses first, then least recently seen.
func (r *Repo) ReviewTargets(ctx context.Context, learnerID uuid.UUID, f domain.ReviewFilter) ([]domain.ReviewTarget, error) {
	where := sq.Eq{"learner_id": learnerID}
	if f.POS != "" {
		where["pos"] = string(f.POS)
	}
	if f.Level != "" {
		where["level"] = string(f.Level)
	}

	b := postgres.Builder.
		Select("target", "count(*) FILTER (WHERE NOT correct) AS misses", "max(answered_at) AS last_seen").
		From("answer_logs").
		Where(where).
		GroupBy("target").
		OrderBy("misses DESC", "last_seen ASC", "target ASC")
	if f.Limit > 0 {
		b = b.Limit(uint64(f.Limit))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build review targets query: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err, "answer_log", learnerID)
	}
	defer rows.Close()

	var out []domain.ReviewTarget
	for rows.Next() {
		var rt domain.ReviewTarget
		if err := rows.Scan(&rt.Target, &rt.Misses, &rt.LastSeenAt); err != nil {
			return nil, postgres.MapError(err, "answer_log", learnerID)
		}
		out = append(out, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "answer_log", learnerID)
	}
	return out, nil
}

// Stats aggregates the learner's answers per level. Username is left for
// the caller to fill.
func (r *Repo) Stats(ctx context.Context, learnerID uuid.UUID) (*domain.LearnerStats, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, statsSQL, learnerID)
	if err != nil {
		return nil, postgres.MapError(err, "answer_log", learnerID)
	}
	defer rows.Close()

	stats := &domain.LearnerStats{ByLevel: make(map[domain.Level]domain.LevelStats)}
	for rows.Next() {
		var (
			level string
			ls    domain.LevelStats
		)
		if err := rows.Scan(&level, &ls.Answered, &ls.Correct); err != nil {
			return nil, postgres.MapError(err, "answer_log", learnerID)
		}
		stats.ByLevel[domain.Level(level)] = ls
		stats.Answered += ls.Answered
		stats.Correct += ls.Correct
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "answer_log", learnerID)
	}
	return stats, nil
}

func scanRecord(row pgx.Row) (*domain.AnswerRecord, error) {
	var (
		a          domain.AnswerRecord
		level, pos string
	)
	err := row.Scan(
		&a.ID, &a.SessionID, &a.LearnerID, &a.ItemID, &a.Target, &level, &pos,
		&a.Options, &a.Selected, &a.Correct, &a.ErrorImageRef, &a.AnsweredAt,
	)
	if err != nil {
		return nil, err
	}
	a.Level = domain.Level(level)
	a.POS = domain.PartOfSpeech(pos)
	return &a, nil
}
