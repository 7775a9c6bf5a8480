// Package writer persists monitoring events to TimescaleDB.
//
// EventWriter is a monitoring observer: Update only enqueues the event into
// a growable buffer so publishers never wait on the database. A consumer
// goroutine drains the buffer into batches that are flushed with pgx.Batch
// when full or on a timer.
//
// Inserts are append-only and idempotent on event_id.
package writer
