package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/pressly/goose/v3"
)

// MigrationResult is one applied or rolled back migration.
type MigrationResult struct {
	Version  int64
	Source   string
	Duration string
}

// Migrate applies every pending migration in fsys. goose needs a
// database/sql handle, so a short-lived one is opened from dsn.
func Migrate(ctx context.Context, dsn string, fsys fs.FS) ([]MigrationResult, error) {
	return runMigrations(ctx, dsn, fsys, func(p *goose.Provider) ([]*goose.MigrationResult, error) {
		return p.Up(ctx)
	})
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(ctx context.Context, dsn string, fsys fs.FS) ([]MigrationResult, error) {
	return runMigrations(ctx, dsn, fsys, func(p *goose.Provider) ([]*goose.MigrationResult, error) {
		res, err := p.Down(ctx)
		if res == nil {
			return nil, err
		}
		return []*goose.MigrationResult{res}, err
	})
}

func runMigrations(ctx context.Context, dsn string, fsys fs.FS, run func(*goose.Provider) ([]*goose.MigrationResult, error)) ([]MigrationResult, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose new provider: %w", err)
	}

	results, err := run(provider)
	out := make([]MigrationResult, 0, len(results))
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		out = append(out, MigrationResult{
			Version:  r.Source.Version,
			Source:   r.Source.Path,
			Duration: r.Duration.String(),
		})
	}
	if err != nil {
		return out, fmt.Errorf("goose: %w", err)
	}
	return out, nil
}
