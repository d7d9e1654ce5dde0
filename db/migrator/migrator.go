package migrator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"time"
)

// MigrationDirection is the direction migrations are applied in.
type MigrationDirection string

// Valid migration directions.
const (
	MigrationUp   MigrationDirection = "up"
	MigrationDown MigrationDirection = "down"
)

// Migration is a single schema change, with the SQL to apply it and to roll it
// back.
type Migration struct {
	ID   int
	Name string
	Up   string
	Down string
}

// Database is the subset of the database API used by the migrator.
type Database interface {
	NewContext() context.Context
	TimeNow() time.Time
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

var fileRx = regexp.MustCompile(`^(\d+)-([\w-]+)\.(up|down)\.sql$`)

// LoadMigrations reads all migration files from the root of fsys, and returns
// them sorted by ID.
func LoadMigrations(fsys fs.FS) ([]*Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed reading migrations directory: %w", err)
	}

	byID := map[int]*Migration{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := fileRx.FindStringSubmatch(entry.Name())
		if match == nil {
			return nil, fmt.Errorf("invalid migration file name '%s'", entry.Name())
		}

		id, err := strconv.Atoi(match[1])
		if err != nil {
			return nil, fmt.Errorf("invalid migration ID in '%s': %w", entry.Name(), err)
		}

		data, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed reading migration file '%s': %w", entry.Name(), err)
		}

		m, ok := byID[id]
		if !ok {
			m = &Migration{ID: id, Name: match[2]}
			byID[id] = m
		} else if m.Name != match[2] {
			return nil, fmt.Errorf("conflicting names for migration %d: '%s' and '%s'", id, m.Name, match[2])
		}

		if MigrationDirection(match[3]) == MigrationUp {
			m.Up = string(data)
		} else {
			m.Down = string(data)
		}
	}

	migrations := make([]*Migration, 0, len(byID))
	for _, m := range byID {
		if m.Up == "" {
			return nil, fmt.Errorf("migration %d-%s has no up script", m.ID, m.Name)
		}
		migrations = append(migrations, m)
	}
	slices.SortFunc(migrations, func(a, b *Migration) int { return a.ID - b.ID })

	return migrations, nil
}

// RunMigrations applies migrations in the given direction. target is either
// "all" or the ID of the last migration to apply (up), or to keep (down).
// Already applied migrations are skipped, and each migration runs in its own
// transaction.
func RunMigrations(
	d Database, migrations []*Migration, dir MigrationDirection, target string, logger *slog.Logger,
) error {
	ctx := d.NewContext()

	_, err := d.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS _migrations (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed creating migrations table: %w", err)
	}

	applied, err := appliedIDs(ctx, d)
	if err != nil {
		return err
	}

	targetID := -1
	if target != "all" {
		if targetID, err = strconv.Atoi(target); err != nil {
			return fmt.Errorf("invalid migration target '%s': %w", target, err)
		}
	}

	plan := make([]*Migration, 0, len(migrations))
	switch dir {
	case MigrationUp:
		for _, m := range migrations {
			if _, ok := applied[m.ID]; !ok && (targetID < 0 || m.ID <= targetID) {
				plan = append(plan, m)
			}
		}
	case MigrationDown:
		for i := len(migrations) - 1; i >= 0; i-- {
			m := migrations[i]
			if _, ok := applied[m.ID]; ok && m.ID > targetID {
				plan = append(plan, m)
			}
		}
	default:
		return fmt.Errorf("invalid migration direction '%s'", dir)
	}

	for _, m := range plan {
		logger.Debug("running migration", "id", m.ID, "name", m.Name, "direction", dir)
		if err = runMigration(ctx, d, m, dir); err != nil {
			return err
		}
	}

	return nil
}

func runMigration(ctx context.Context, d Database, m *Migration, dir MigrationDirection) (rerr error) {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed starting migration transaction: %w", err)
	}
	defer func() {
		if rerr != nil {
			rerr = errors.Join(rerr, tx.Rollback())
		}
	}()

	script, record := m.Up, `INSERT INTO _migrations (id, name, applied_at) VALUES (?, ?, ?)`
	args := []any{m.ID, m.Name, d.TimeNow().UTC()}
	if dir == MigrationDown {
		script, record = m.Down, `DELETE FROM _migrations WHERE id = ?`
		args = args[:1]
	}

	if _, err = tx.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("failed running migration %d-%s %s: %w", m.ID, m.Name, dir, err)
	}
	if _, err = tx.ExecContext(ctx, record, args...); err != nil {
		return fmt.Errorf("failed recording migration %d-%s: %w", m.ID, m.Name, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed committing migration %d-%s: %w", m.ID, m.Name, err)
	}

	return nil
}

func appliedIDs(ctx context.Context, d Database) (ids map[int]struct{}, rerr error) {
	rows, err := d.QueryContext(ctx, `SELECT id FROM _migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed querying applied migrations: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("failed closing migration rows: %w", err)
		}
	}()

	ids = map[int]struct{}{}
	for rows.Next() {
		var id int
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed scanning migration ID: %w", err)
		}
		ids[id] = struct{}{}
	}

	return ids, rows.Err()
}
