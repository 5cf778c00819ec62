// Package migrations embeds the goose SQL migrations and applies them.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"log/slog"

	"leadintake/internal/errors"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var files embed.FS

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

func newProvider(db *sql.DB) (*goose.Provider, error) {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, files)
	if err != nil {
		return nil, errors.Wrap(err, "create goose provider")
	}

	return provider, nil
}

// Run applies all pending migrations (Up) or rolls back the latest one (Down).
func Run(ctx context.Context, db *sql.DB, direction Direction, logger *slog.Logger) error {
	provider, err := newProvider(db)
	if err != nil {
		return err
	}

	var results []*goose.MigrationResult
	switch direction {
	case Up:
		results, err = provider.Up(ctx)
	case Down:
		var result *goose.MigrationResult
		result, err = provider.Down(ctx)
		if result != nil {
			results = append(results, result)
		}
	default:
		return errors.Errorf("unknown migration direction %q", direction)
	}
	if err != nil {
		return errors.Wrapf(err, "migrate %s", direction)
	}

	for _, result := range results {
		logger.Info("Applied migration",
			slog.String("direction", string(direction)),
			slog.Int64("version", result.Source.Version),
			slog.String("path", result.Source.Path),
			slog.Duration("duration", result.Duration),
		)
	}

	return nil
}

// Status logs the applied state of every known migration.
func Status(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	provider, err := newProvider(db)
	if err != nil {
		return err
	}

	statuses, err := provider.Status(ctx)
	if err != nil {
		return errors.Wrap(err, "migration status")
	}

	for _, status := range statuses {
		logger.Info("Migration",
			slog.Int64("version", status.Source.Version),
			slog.String("path", status.Source.Path),
			slog.String("state", string(status.State)),
			slog.Time("applied_at", status.AppliedAt),
		)
	}

	return nil
}
