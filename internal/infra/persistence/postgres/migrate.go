package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var migrationFS embed.FS

// gooseUpContext is swapped in tests.
var gooseUpContext = goose.UpContext

// runMigrations applies every pending embedded migration.
func runMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	goose.SetBaseFS(migrationFS)
	goose.SetLogger(&gooseSlogLogger{logger: logger})

	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "failed to set goose dialect")
	}

	if err := gooseUpContext(ctx, db, migrationsDir); err != nil {
		return errors.Wrap(err, "failed to apply migrations")
	}

	return nil
}

// gooseSlogLogger routes goose output through slog.
type gooseSlogLogger struct {
	logger *slog.Logger
}

func (l *gooseSlogLogger) Printf(format string, v ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Info("Migration", slog.String("message", fmt.Sprintf(format, v...)))
}

// Fatalf is called by goose on unrecoverable errors; it must not return.
func (l *gooseSlogLogger) Fatalf(format string, v ...any) {
	msg := fmt.Sprintf(format, v...)
	if l.logger != nil {
		l.logger.Error("Migration failed", slog.String("message", msg))
	}
	panic(msg)
}
