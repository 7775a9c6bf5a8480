// Package database provides the TimescaleDB connection pool used by the
// monitoring event writer.
package database
