// Package context holds the objects shared by the app and cli packages: the
// filesystem, database, configuration, logger and standard streams. It is a
// separate package so that cli can use them without importing app.
package context
