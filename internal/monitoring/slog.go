package monitoring

import (
	"context"
	"log/slog"
)

// SlogObserver writes every event it observes to a structured logger.
type SlogObserver struct {
	logger *slog.Logger
	level  slog.Level
}

// NewSlogObserver creates a SlogObserver logging at the given level.
func NewSlogObserver(logger *slog.Logger, level slog.Level) *SlogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogObserver{logger: logger, level: level}
}

// Update implements Observer.
func (o *SlogObserver) Update(e Event) {
	attrs := []slog.Attr{
		slog.String("event_id", e.ID.String()),
		slog.String("type", string(e.Type)),
		slog.String("role", string(e.Role)),
		slog.String("cluster", e.ClusterID),
		slog.String("agent", e.AgentID),
		slog.String("session", e.SessionID),
		slog.Time("ts", e.Timestamp),
	}
	if e.Bid != nil {
		attrs = append(attrs,
			slog.Int("bid_number", e.Bid.BidNumber()),
			slog.Any("demand", e.Bid.Demand()),
		)
	}
	if e.PriceUpdate != nil {
		attrs = append(attrs,
			slog.Int("bid_number", e.PriceUpdate.BidNumber),
			slog.Float64("price", e.PriceUpdate.Price.Value),
		)
	}

	o.logger.LogAttrs(context.Background(), o.level, "monitoring event", attrs...)
}
