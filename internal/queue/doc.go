// Package queue persists render jobs in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Store manages database connections, schema initialization, status
// transitions (queued, processing, completed, failed), progress fields, and
// recovery of jobs left in processing when the daemon stopped. The database
// is transient storage for in-flight and recent jobs; schema changes bump
// schemaVersion and users clear the database to adopt them.
package queue
