package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/matcher-bridge/internal/agent"
	"github.com/rickgao/matcher-bridge/internal/auth"
	"github.com/rickgao/matcher-bridge/internal/config"
	"github.com/rickgao/matcher-bridge/internal/connection"
	"github.com/rickgao/matcher-bridge/internal/database"
	"github.com/rickgao/matcher-bridge/internal/monitoring"
	"github.com/rickgao/matcher-bridge/internal/proxy"
	"github.com/rickgao/matcher-bridge/internal/schedule"
	"github.com/rickgao/matcher-bridge/internal/session"
	"github.com/rickgao/matcher-bridge/internal/version"
	"github.com/rickgao/matcher-bridge/internal/writer"
)

func main() {
	configPath := flag.String("config", "configs/bridge.local.yaml", "path to config file")
	flag.Parse()

	// Bootstrap logger until the configured level is known
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err, "config", *configPath)
		os.Exit(1)
	}

	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("starting bridge",
		"version", version.Version,
		"commit", version.Commit,
		"instance_id", cfg.Instance.ID,
		"cluster_id", cfg.Instance.ClusterID,
		"remote_url", cfg.Remote.URL,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Monitoring sinks
	var (
		pool        *pgxpool.Pool
		eventWriter *writer.EventWriter
		observers   []monitoring.Observer
	)
	if cfg.Monitoring.LogEvents {
		observers = append(observers, monitoring.NewSlogObserver(logger, slog.LevelInfo))
	}
	if cfg.Writer.Enabled {
		logger.Info("connecting to database",
			"host", cfg.Database.Timescale.Host,
			"port", cfg.Database.Timescale.Port,
			"database", cfg.Database.Timescale.Name,
		)
		pool, err = database.Connect(ctx, cfg.Database.Timescale)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := writer.EnsureSchema(ctx, pool); err != nil {
			logger.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}

		eventWriter = writer.NewEventWriter(writer.WriterConfig{
			BatchSize:     cfg.Writer.BatchSize,
			FlushInterval: cfg.Writer.FlushInterval,
			BufferSize:    cfg.Writer.BufferSize,
			MaxBufferSize: cfg.Writer.MaxBufferSize,
		}, pool, logger)
		if err := eventWriter.Start(ctx); err != nil {
			logger.Error("failed to start event writer", "error", err)
			os.Exit(1)
		}
		observers = append(observers, eventWriter)
		logger.Info("event writer started")
	}

	registry := monitoring.NewRegistry(
		monitoring.NewMultiObserver(observers...),
		monitoring.StaticFilter(cfg.Monitoring.Filter...),
		logger,
	)

	// Remote transport
	var creds *auth.Credentials
	if cfg.Remote.KeyID != "" {
		creds, err = auth.LoadCredentials(cfg.Remote.KeyID, cfg.Remote.PrivateKeyPath)
		if err != nil {
			logger.Error("failed to load credentials", "error", err)
			os.Exit(1)
		}
	}

	transport := connection.NewTransport(connection.TransportConfig{
		Client: connection.ClientConfig{
			URL:              cfg.Remote.URL,
			Credentials:      creds,
			UserAgent:        version.UserAgent(),
			HandshakeTimeout: cfg.Remote.HandshakeTimeout,
			PingTimeout:      cfg.Remote.PingTimeout,
			PingInterval:     cfg.Remote.PingInterval,
			WriteTimeout:     cfg.Remote.WriteTimeout,
			BufferSize:       cfg.Remote.BufferSize,
		},
		AgentID:   cfg.Instance.ID,
		ClusterID: cfg.Instance.ClusterID,
		Version:   version.Version,
	}, logger)

	// Proxy standing in for the remote matcher
	matcher := proxy.New(proxy.Config{
		ID:               cfg.Instance.ID,
		ClusterID:        cfg.Instance.ClusterID,
		ReconnectTimeout: cfg.Remote.ReconnectTimeout,
	}, transport, logger)
	transport.SetInbound(matcher)

	if err := matcher.Activate(); err != nil {
		logger.Error("failed to activate proxy", "error", err)
		os.Exit(1)
	}

	// Local agent and its session with the proxy
	device := agent.NewDeviceAgent(cfg.Agent.ID, nil, logger)

	registry.AddObservable(device)
	registry.AddObservable(matcher)

	sess := session.New(device, matcher, logger)
	if cfg.MarketBasis != nil {
		mb, err := cfg.MarketBasis.MarketBasis()
		if err != nil {
			logger.Error("invalid market basis", "error", err)
			os.Exit(1)
		}
		sess.SetMarketBasis(mb)
	}
	sess.Connect()

	var bidTask *schedule.Task
	if len(cfg.Agent.Demand) > 0 {
		bidTask, err = device.StartBidding(cfg.Agent.BidInterval, cfg.Agent.Demand)
		if err != nil {
			logger.Error("failed to start bidding", "error", err)
			os.Exit(1)
		}
	}

	// Health server
	var db pinger
	if pool != nil {
		db = pool
	}
	healthServer := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Health.Port),
		Handler: newHealthHandler(healthDeps{
			proxy:    matcher,
			registry: registry,
			db:       db,
			writer:   eventWriter,
		}),
	}

	go func() {
		logger.Info("starting health server", "port", cfg.Health.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	logger.Info("bridge running",
		"agent_id", cfg.Agent.ID,
		"session", sess.SessionID(),
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Health.Port),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	if bidTask != nil {
		bidTask.Cancel()
	}
	sess.Disconnect()
	if err := matcher.Deactivate(); err != nil {
		logger.Warn("deactivate proxy", "error", err)
	}
	transport.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if eventWriter != nil {
		if err := eventWriter.Stop(shutdownCtx); err != nil {
			logger.Warn("stop event writer", "error", err)
		}
	}
	healthServer.Shutdown(shutdownCtx)

	logger.Info("bridge stopped")
}
