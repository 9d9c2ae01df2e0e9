// Package store persists lectures, jobs, and artifacts in SQLite.
//
// The Store manages database connections, schema migrations, and the three
// record types the pipeline depends on: lectures deduplicated by source UID,
// jobs whose status only moves forward through the stage order, and
// append-only artifact records for every durable file a stage produces.
// Every write is a single transaction, so concurrent jobs share the store
// without further coordination.
//
// Treat this package as the single source of truth for lifecycle semantics;
// when you add statuses or artifact kinds, update models.go and ship a new
// migration.
package store
