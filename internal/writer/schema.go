package writer

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const createEventsTableSQL = `
	CREATE TABLE IF NOT EXISTS agent_events (
		event_id     UUID PRIMARY KEY,
		event_ts     BIGINT NOT NULL,
		event_type   TEXT NOT NULL,
		role         TEXT NOT NULL,
		cluster_id   TEXT NOT NULL,
		agent_id     TEXT NOT NULL,
		session_id   TEXT NOT NULL,
		commodity    TEXT NOT NULL,
		currency     TEXT NOT NULL,
		bid_number   INTEGER NOT NULL,
		price        DOUBLE PRECISION,
		demand       JSONB
	)
`

const insertEventSQL = `
	INSERT INTO agent_events (event_id, event_ts, event_type, role, cluster_id, agent_id, session_id,
		commodity, currency, bid_number, price, demand)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (event_id) DO NOTHING
`

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// EnsureSchema creates the agent_events table if it does not exist.
func EnsureSchema(ctx context.Context, db execer) error {
	if _, err := db.Exec(ctx, createEventsTableSQL); err != nil {
		return fmt.Errorf("create agent_events: %w", err)
	}
	return nil
}
