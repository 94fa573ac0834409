package main

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/picquiz-backend/internal/adapter/postgres"
	"github.com/heartmarshall/picquiz-backend/internal/config"
	"github.com/heartmarshall/picquiz-backend/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd, postgres.Migrate)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the latest migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd, postgres.MigrateDown)
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}

type migrateFunc func(ctx context.Context, dsn string, fsys fs.FS) ([]postgres.MigrationResult, error)

func runMigrate(cmd *cobra.Command, run migrateFunc) error {
	db, err := config.LoadDatabase(configPath)
	if err != nil {
		return err
	}

	results, err := run(cmd.Context(), db.DSN, migrations.FS)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "no migrations to run")
		return nil
	}
	for _, r := range results {
		fmt.Fprintf(out, "%-6d %-40s %s\n", r.Version, r.Source, r.Duration)
	}
	return nil
}
