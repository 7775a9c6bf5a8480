package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/matcher-bridge/internal/monitoring"
)

// batchSender is the subset of *pgxpool.Pool used by the writer.
type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// EventWriter consumes monitoring events and writes them to the agent_events table.
type EventWriter struct {
	cfg    WriterConfig
	logger *slog.Logger

	// Input from publishers
	input *GrowableBuffer[monitoring.Event]

	// Database
	db batchSender

	// Batching
	batch       []eventRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Metrics
	metrics WriterMetrics
}

var _ monitoring.Observer = (*EventWriter)(nil)

// NewEventWriter creates a new EventWriter.
func NewEventWriter(cfg WriterConfig, db batchSender, logger *slog.Logger) *EventWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventWriter{
		cfg:    cfg,
		input:  NewGrowableBuffer[monitoring.Event](cfg.BufferSize, cfg.MaxBufferSize),
		db:     db,
		logger: logger.With("component", "event_writer"),
		batch:  make([]eventRow, 0, cfg.BatchSize),
	}
}

// Update enqueues an event. It never blocks; events are dropped when the
// buffer is full or the writer has stopped.
func (w *EventWriter) Update(e monitoring.Event) {
	if !w.input.Send(e) {
		w.batchMu.Lock()
		w.metrics.Dropped++
		w.batchMu.Unlock()
	}
}

// Start begins consuming events and writing to the database.
func (w *EventWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	// Consumer goroutine
	w.wg.Add(1)
	go w.consumeLoop()

	// Flush ticker goroutine
	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("event writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the writer, flushing anything still buffered.
func (w *EventWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping event writer")

	w.input.Close()

	if w.cancel != nil {
		w.cancel()
	}

	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	// Wait for goroutines
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("event writer stopped")
	case <-ctx.Done():
		w.logger.Warn("event writer stop timed out")
	}

	// Final flush
	for w.drain() > 0 {
	}
	w.flush(ctx)

	return nil
}

// Stats returns current metrics.
func (w *EventWriter) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

// consumeLoop moves events from the input buffer into the batch.
func (w *EventWriter) consumeLoop() {
	defer w.wg.Done()

	for {
		if n := w.drain(); n > 0 {
			continue
		}

		// Buffer empty, wait a bit before trying again
		select {
		case <-w.ctx.Done():
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// drain moves up to one batch of buffered events into the batch and reports
// how many it moved.
func (w *EventWriter) drain() int {
	events := w.input.DrainTo(w.cfg.BatchSize)
	for _, e := range events {
		w.handleEvent(e)
	}
	return len(events)
}

// flushLoop periodically flushes the batch.
func (w *EventWriter) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush(w.ctx)
		}
	}
}

// handleEvent transforms and adds an event to the batch.
func (w *EventWriter) handleEvent(e monitoring.Event) {
	row, err := transform(e)
	if err != nil {
		w.logger.Error("dropping event", "event_id", e.ID, "type", e.Type, "error", err)
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.batch = append(w.batch, row)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush(w.ctx)
	}
}

// transform converts a monitoring event to an eventRow.
func transform(e monitoring.Event) (eventRow, error) {
	row := eventRow{
		EventID:   e.ID.String(),
		EventTs:   e.Timestamp.UnixMicro(),
		EventType: string(e.Type),
		Role:      string(e.Role),
		ClusterID: e.ClusterID,
		AgentID:   e.AgentID,
		SessionID: e.SessionID,
	}

	switch {
	case e.Bid != nil:
		mb := e.Bid.MarketBasis()
		row.Commodity = mb.Commodity
		row.Currency = mb.Currency
		row.BidNumber = e.Bid.BidNumber()
		demand, err := json.Marshal(e.Bid.Demand())
		if err != nil {
			return eventRow{}, fmt.Errorf("marshal demand: %w", err)
		}
		row.Demand = demand
	case e.PriceUpdate != nil:
		mb := e.PriceUpdate.Price.MarketBasis
		row.Commodity = mb.Commodity
		row.Currency = mb.Currency
		row.BidNumber = e.PriceUpdate.BidNumber
		price := e.PriceUpdate.Price.Value
		row.Price = &price
	}

	return row, nil
}

// flush writes the current batch to the database.
func (w *EventWriter) flush(ctx context.Context) {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := w.batch
	w.batch = make([]eventRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.batchInsert(ctx, batch)
	if err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch) - conflicts)
	w.metrics.Conflicts += int64(conflicts)
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed events",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (w *EventWriter) batchInsert(ctx context.Context, rows []eventRow) (conflicts int, err error) {
	// A cancelled context would abort the final flush during shutdown.
	if ctx == nil || ctx.Err() != nil {
		ctx = context.Background()
	}

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(insertEventSQL,
			r.EventID, r.EventTs, r.EventType, r.Role, r.ClusterID, r.AgentID, r.SessionID,
			r.Commodity, r.Currency, r.BidNumber, r.Price, r.Demand)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
