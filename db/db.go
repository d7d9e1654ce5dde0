package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"strings"
	"time"

	//nolint:revive,nolintlint // Idiomatic way of loading DB libraries.
	_ "github.com/glebarez/go-sqlite"

	"go.hackfix.me/modelvault/db/migrator"
	"go.hackfix.me/modelvault/db/types"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps sql.DB with additional context and migration functionality.
type DB struct {
	*sql.DB
	ctx        context.Context
	timeNow    func() time.Time
	path       string
	migrations []*migrator.Migration
}

var _ types.Querier = (*DB)(nil)

// Open creates and configures a new SQLite database connection with migrations
// support. Migrate must be called before the database is used.
func Open(ctx context.Context, path string, timeNow func() time.Time) (*DB, error) {
	sqliteDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed opening SQLite database: %w", err)
	}

	d := &DB{DB: sqliteDB, ctx: ctx, path: path, timeNow: timeNow}

	if strings.Contains(path, "mode=memory") || strings.Contains(path, ":memory:") {
		// The in-memory database disappears along with its last connection.
		d.SetMaxIdleConns(10)
		d.SetConnMaxLifetime(time.Duration(math.Inf(1)))
	}

	migrationsDir, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed getting migrations directory: %w", err)
	}
	migrations, err := migrator.LoadMigrations(migrationsDir)
	if err != nil {
		return nil, err
	}
	d.migrations = migrations

	return d, nil
}

// Migrate applies all pending schema migrations.
func (d *DB) Migrate(logger *slog.Logger) error {
	dblogger := logger.With("path", d.path)
	dblogger.Debug("migrating database")

	err := migrator.RunMigrations(d, d.migrations, migrator.MigrationUp, "all", dblogger)
	if err != nil {
		return fmt.Errorf("failed migrating database: %w", err)
	}

	return nil
}

// NewContext returns the main database context. Queries run with it are
// cancelled when the application shuts down.
func (d *DB) NewContext() context.Context {
	return d.ctx
}

// TimeNow returns the current system time.
func (d *DB) TimeNow() time.Time {
	return d.timeNow()
}
