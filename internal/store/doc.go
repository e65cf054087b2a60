// Package store persists pipeline runs and sized candidates to Postgres.
//
// Results arrive per run and are batched under a mutex; a background loop
// flushes on an interval or when the batch crosses a size threshold. Inserts
// use pgx.Batch with ON CONFLICT DO NOTHING so retried runs are idempotent.
package store
