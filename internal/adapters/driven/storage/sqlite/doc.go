// Package sqlite provides a SQLite-backed snapshot store for the corpus and
// its embedding index.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Chunks, embedding rows and index entries are keyed by corpus position.
//
// # Data Location
//
// The database is stored at <data dir>/index.db.
//
// # Thread Safety
//
// All operations are thread-safe. Saves run in a single transaction, so a
// reader never sees a half-written snapshot.
package sqlite
