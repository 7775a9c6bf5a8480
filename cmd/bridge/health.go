package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rickgao/matcher-bridge/internal/monitoring"
	"github.com/rickgao/matcher-bridge/internal/writer"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type connectivity interface {
	IsLocalConnected() bool
	IsRemoteConnected() bool
}

type healthDeps struct {
	proxy    connectivity
	registry *monitoring.Registry
	db       pinger              // nil when the event writer is disabled
	writer   *writer.EventWriter // nil when the event writer is disabled
}

type healthResponse struct {
	Status     string                 `json:"status"`
	Components map[string]interface{} `json:"components"`
}

// newHealthHandler creates the HTTP handler for health checks.
func newHealthHandler(deps healthDeps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := healthResponse{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		// Remote matcher is reconnected on a schedule, so losing it degrades
		// rather than fails the bridge.
		if deps.proxy.IsRemoteConnected() {
			health.Components["remote"] = "connected"
		} else {
			health.Status = "degraded"
			health.Components["remote"] = "disconnected"
		}
		if deps.proxy.IsLocalConnected() {
			health.Components["local_session"] = "connected"
		} else {
			health.Status = "degraded"
			health.Components["local_session"] = "disconnected"
		}

		health.Components["monitoring"] = map[string]interface{}{
			"known":  deps.registry.Known(),
			"active": deps.registry.Active(),
		}

		if deps.db != nil {
			if err := deps.db.Ping(ctx); err != nil {
				health.Status = "unhealthy"
				health.Components["timescaledb"] = map[string]string{
					"status": "disconnected",
					"error":  err.Error(),
				}
			} else {
				health.Components["timescaledb"] = "connected"
			}
		}
		if deps.writer != nil {
			stats := deps.writer.Stats()
			health.Components["event_writer"] = map[string]int64{
				"inserts":   stats.Inserts,
				"conflicts": stats.Conflicts,
				"errors":    stats.Errors,
				"dropped":   stats.Dropped,
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	return mux
}
