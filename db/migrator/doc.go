// Package migrator applies SQL schema migrations to the database.
//
// Migrations are loaded from a filesystem (usually embedded) with files named
// `{id}-{name}.{up|down}.sql`. Applied migrations are recorded in the
// `_migrations` table, so running the same plan twice is a no-op. Each
// migration runs in its own transaction.
package migrator
