// Package sqlite provides the SQLite-backed task store and the vector
// sidecar that mirrors it.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Two independent handles share one
// database file:
//
//   - Store / TaskStore: the primary task records, schema managed by migrations
//   - VectorIndex: the episodic-memory sidecar (vec_tasks), created on demand
//
// # Schema
//
// The task schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// The sidecar tables are not part of the migrations: they are derived data,
// carry no foreign key to tasks, and are created by VectorIndex.EnsureSchema.
//
// # Data Location
//
// By default, the database is stored at ~/.taskman/data/tasks.db
// (tasks-<profile>.db for the dev and test profiles).
//
// # Vector Distance
//
// Nearest-neighbour queries use the vec_l2(a, b) scalar function, registered
// with the driver once per process before the sidecar opens its connection.
package sqlite
