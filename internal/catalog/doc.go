// Package catalog records runs and committed export batches in SQLite.
//
// The database lives at <log_dir>/catalog.db, runs in WAL mode and retries
// SQLITE_BUSY with exponential backoff. The schema is embedded and carries
// a version row; a mismatching version is reported as ErrSchemaMismatch
// and the catalog must be deleted to recreate it.
package catalog
