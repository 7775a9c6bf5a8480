package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: bridge-1
  cluster_id: north
remote:
  url: wss://matcher.example.com/bridge
  reconnect_timeout: 15
agent:
  id: heatpump-1
  demand: [3, 2, 1]
market_basis:
  commodity: electricity
  currency: EUR
  price_steps: 3
  minimum_price: 0
  maximum_price: 1
database:
  timescale:
    host: localhost
    port: 5432
    name: bridge_ts
    user: bridge
    password: pw
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "bridge-1" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "bridge-1")
	}
	if cfg.Remote.URL != "wss://matcher.example.com/bridge" {
		t.Errorf("Remote.URL = %q, want %q", cfg.Remote.URL, "wss://matcher.example.com/bridge")
	}
	if cfg.Remote.ReconnectTimeout != 15 {
		t.Errorf("Remote.ReconnectTimeout = %d, want 15", cfg.Remote.ReconnectTimeout)
	}
	if len(cfg.Agent.Demand) != 3 {
		t.Errorf("len(Agent.Demand) = %d, want 3", len(cfg.Agent.Demand))
	}
	if cfg.MarketBasis == nil || cfg.MarketBasis.PriceSteps != 3 {
		t.Errorf("MarketBasis = %+v, want price_steps 3", cfg.MarketBasis)
	}
	if cfg.Database.Timescale.Host != "localhost" {
		t.Errorf("Database.Timescale.Host = %q, want %q", cfg.Database.Timescale.Host, "localhost")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")
	t.Setenv("TEST_MATCHER_URL", "ws://127.0.0.1:9000/bridge")

	yaml := `
instance:
  id: bridge-1
remote:
  url: ${TEST_MATCHER_URL}
agent:
  id: heatpump-1
database:
  timescale:
    host: localhost
    name: bridge_ts
    user: bridge
    password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Timescale.Password != "secret123" {
		t.Errorf("Database.Timescale.Password = %q, want %q", cfg.Database.Timescale.Password, "secret123")
	}
	if cfg.Remote.URL != "ws://127.0.0.1:9000/bridge" {
		t.Errorf("Remote.URL = %q, want %q", cfg.Remote.URL, "ws://127.0.0.1:9000/bridge")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
	if !strings.Contains(err.Error(), "read config file") {
		t.Errorf("Load() error = %q, want read config file error", err)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
instance:
  id: bridge-1
remote:
  url: ws://localhost:9000
agent:
  id: heatpump-1
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Instance.ClusterID != DefaultClusterID {
		t.Errorf("Instance.ClusterID = %q, want default %q", cfg.Instance.ClusterID, DefaultClusterID)
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q, want default %q", cfg.Log.Level, DefaultLogLevel)
	}
	if cfg.Remote.ReconnectTimeout != DefaultReconnectTimeout {
		t.Errorf("Remote.ReconnectTimeout = %d, want default %d", cfg.Remote.ReconnectTimeout, DefaultReconnectTimeout)
	}
	if cfg.Remote.HandshakeTimeout != DefaultHandshakeTimeout {
		t.Errorf("Remote.HandshakeTimeout = %v, want default %v", cfg.Remote.HandshakeTimeout, DefaultHandshakeTimeout)
	}
	if cfg.Agent.BidInterval != DefaultBidInterval {
		t.Errorf("Agent.BidInterval = %v, want default %v", cfg.Agent.BidInterval, DefaultBidInterval)
	}
	if cfg.Writer.BatchSize != DefaultBatchSize {
		t.Errorf("Writer.BatchSize = %d, want default %d", cfg.Writer.BatchSize, DefaultBatchSize)
	}
	if cfg.Database.Timescale.Port != DefaultDBPort {
		t.Errorf("Database.Timescale.Port = %d, want default %d", cfg.Database.Timescale.Port, DefaultDBPort)
	}
	if cfg.Health.Port != DefaultHealthPort {
		t.Errorf("Health.Port = %d, want default %d", cfg.Health.Port, DefaultHealthPort)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() after defaults: %v", err)
	}
}

func TestLoadAndValidate(t *testing.T) {
	yaml := `
instance:
  id: bridge-1
remote:
  url: http://localhost:9000
agent:
  id: heatpump-1
`
	path := writeTempFile(t, yaml)

	_, err := LoadAndValidate(path)
	if err == nil {
		t.Fatal("LoadAndValidate() expected error for http url")
	}
	if !strings.Contains(err.Error(), "remote.url must use ws or wss") {
		t.Errorf("LoadAndValidate() error = %q", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() BridgeConfig {
		cfg := BridgeConfig{
			Instance: InstanceConfig{ID: "bridge-1"},
			Remote:   RemoteConfig{URL: "ws://localhost:9000"},
			Agent:    AgentConfig{ID: "heatpump-1"},
		}
		cfg.applyDefaults()
		return cfg
	}
	timescale := DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 4, MinConns: 1}

	tests := []struct {
		name    string
		mutate  func(*BridgeConfig)
		wantErr string
	}{
		{
			name:    "valid config",
			mutate:  func(*BridgeConfig) {},
			wantErr: "",
		},
		{
			name:    "missing instance id",
			mutate:  func(c *BridgeConfig) { c.Instance.ID = "" },
			wantErr: "instance.id is required",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *BridgeConfig) { c.Log.Level = "trace" },
			wantErr: `log.level must be one of debug, info, warn, error, got "trace"`,
		},
		{
			name:    "missing remote url",
			mutate:  func(c *BridgeConfig) { c.Remote.URL = "" },
			wantErr: "remote.url is required",
		},
		{
			name:    "non websocket url",
			mutate:  func(c *BridgeConfig) { c.Remote.URL = "https://localhost" },
			wantErr: `remote.url must use ws or wss, got "https"`,
		},
		{
			name:    "negative reconnect timeout",
			mutate:  func(c *BridgeConfig) { c.Remote.ReconnectTimeout = -1 },
			wantErr: "remote.reconnect_timeout must be a positive number of seconds, got -1",
		},
		{
			name:    "key id without private key",
			mutate:  func(c *BridgeConfig) { c.Remote.KeyID = "key-1" },
			wantErr: "remote.private_key_path is required when remote.key_id is set",
		},
		{
			name:    "private key without key id",
			mutate:  func(c *BridgeConfig) { c.Remote.PrivateKeyPath = "/tmp/key.pem" },
			wantErr: "remote.key_id is required when remote.private_key_path is set",
		},
		{
			name:    "missing agent id",
			mutate:  func(c *BridgeConfig) { c.Agent.ID = "" },
			wantErr: "agent.id is required",
		},
		{
			name:    "agent id equals instance id",
			mutate:  func(c *BridgeConfig) { c.Agent.ID = c.Instance.ID },
			wantErr: "agent.id must differ from instance.id",
		},
		{
			name: "invalid market basis",
			mutate: func(c *BridgeConfig) {
				c.MarketBasis = &MarketBasisConfig{Commodity: "electricity", Currency: "EUR", PriceSteps: 0, MaximumPrice: 1}
			},
			wantErr: "market_basis:",
		},
		{
			name: "demand length mismatch",
			mutate: func(c *BridgeConfig) {
				c.MarketBasis = &MarketBasisConfig{Commodity: "electricity", Currency: "EUR", PriceSteps: 3, MaximumPrice: 1}
				c.Agent.Demand = []float64{1, 0}
			},
			wantErr: "agent.demand has 2 values, market_basis.price_steps is 3",
		},
		{
			name:    "increasing demand",
			mutate:  func(c *BridgeConfig) { c.Agent.Demand = []float64{1, 2} },
			wantErr: "agent.demand must be non-increasing (step 1)",
		},
		{
			name:    "writer enabled without database",
			mutate:  func(c *BridgeConfig) { c.Writer.Enabled = true },
			wantErr: "database.timescale.host is required",
		},
		{
			name: "writer min_conns exceeds max_conns",
			mutate: func(c *BridgeConfig) {
				c.Writer.Enabled = true
				c.Database.Timescale = timescale
				c.Database.Timescale.MinConns = 10
			},
			wantErr: "database.timescale.min_conns (10) cannot exceed max_conns (4)",
		},
		{
			name: "writer enabled with database",
			mutate: func(c *BridgeConfig) {
				c.Writer.Enabled = true
				c.Database.Timescale = timescale
			},
			wantErr: "",
		},
		{
			name:    "health port out of range",
			mutate:  func(c *BridgeConfig) { c.Health.Port = 70000 },
			wantErr: "health.port must be between 1 and 65535, got 70000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func TestMarketBasisConfig(t *testing.T) {
	mc := &MarketBasisConfig{Commodity: "electricity", Currency: "EUR", PriceSteps: 5, MinimumPrice: -1, MaximumPrice: 1}
	mb, err := mc.MarketBasis()
	if err != nil {
		t.Fatalf("MarketBasis() error: %v", err)
	}
	if mb.PriceSteps != 5 || mb.Commodity != "electricity" {
		t.Errorf("MarketBasis() = %+v", mb)
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := (LogConfig{Level: tt.level}).SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestDurationsParse(t *testing.T) {
	yaml := `
writer:
  flush_interval: 2s
agent:
  bid_interval: 1m
`
	cfg, err := Load(writeTempFile(t, yaml))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Writer.FlushInterval != 2*time.Second {
		t.Errorf("Writer.FlushInterval = %v, want 2s", cfg.Writer.FlushInterval)
	}
	if cfg.Agent.BidInterval != time.Minute {
		t.Errorf("Agent.BidInterval = %v, want 1m", cfg.Agent.BidInterval)
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
