package writer

import (
	"time"
)

// WriterConfig contains configuration for batch writers.
type WriterConfig struct {
	// BatchSize is the number of rows to accumulate before flushing.
	BatchSize int

	// FlushInterval is the maximum time between flushes.
	FlushInterval time.Duration

	// BufferSize is the initial capacity of the input buffer.
	BufferSize int

	// MaxBufferSize caps buffer growth. Events arriving while the buffer is
	// full are dropped. Zero means unbounded.
	MaxBufferSize int
}

// DefaultWriterConfig returns sensible defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize:     500,
		FlushInterval: 5 * time.Second,
		BufferSize:    1000,
		MaxBufferSize: 100000,
	}
}

// eventRow represents a row to be inserted into the agent_events table.
type eventRow struct {
	EventID   string // UUID
	EventTs   int64  // Microseconds
	EventType string
	Role      string
	ClusterID string
	AgentID   string
	SessionID string
	Commodity string
	Currency  string
	BidNumber int
	Price     *float64 // Price events only
	Demand    []byte   // JSONB, bid events only
}

// WriterMetrics holds metrics for a writer.
type WriterMetrics struct {
	Inserts   int64
	Conflicts int64
	Errors    int64
	Flushes   int64
	Dropped   int64
}
