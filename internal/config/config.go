package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/rickgao/matcher-bridge/internal/model"
)

// BridgeConfig is the root configuration for a bridge instance.
type BridgeConfig struct {
	Instance    InstanceConfig     `yaml:"instance"`
	Log         LogConfig          `yaml:"log"`
	Remote      RemoteConfig       `yaml:"remote"`
	Agent       AgentConfig        `yaml:"agent"`
	MarketBasis *MarketBasisConfig `yaml:"market_basis"`
	Monitoring  MonitoringConfig   `yaml:"monitoring"`
	Writer      WriterConfig       `yaml:"writer"`
	Database    DatabaseConfig     `yaml:"database"`
	Health      HealthConfig       `yaml:"health"`
}

// InstanceConfig identifies this bridge. ID is the matcher id presented to
// the local agent and announced to the remote matcher.
type InstanceConfig struct {
	ID        string `yaml:"id"`
	ClusterID string `yaml:"cluster_id"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// SlogLevel returns the slog level for Level.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RemoteConfig holds settings for the remote matcher connection.
type RemoteConfig struct {
	URL              string        `yaml:"url"`
	KeyID            string        `yaml:"key_id"`            // Key id for handshake signing
	PrivateKeyPath   string        `yaml:"private_key_path"`  // Path to RSA private key PEM file
	ReconnectTimeout int           `yaml:"reconnect_timeout"` // Seconds between connect attempts
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	PingInterval     time.Duration `yaml:"ping_interval"`
	PingTimeout      time.Duration `yaml:"ping_timeout"`
	BufferSize       int           `yaml:"buffer_size"`
}

// AgentConfig describes the local device agent.
type AgentConfig struct {
	ID          string        `yaml:"id"`
	BidInterval time.Duration `yaml:"bid_interval"`
	Demand      []float64     `yaml:"demand"` // One value per price step; empty disables bidding
}

// MarketBasisConfig is a locally configured market basis. When set it takes
// precedence over the one announced by the remote matcher.
type MarketBasisConfig struct {
	Commodity    string  `yaml:"commodity"`
	Currency     string  `yaml:"currency"`
	PriceSteps   int     `yaml:"price_steps"`
	MinimumPrice float64 `yaml:"minimum_price"`
	MaximumPrice float64 `yaml:"maximum_price"`
}

// MarketBasis validates and converts the configured market basis.
func (m *MarketBasisConfig) MarketBasis() (model.MarketBasis, error) {
	return model.NewMarketBasis(m.Commodity, m.Currency, m.PriceSteps, m.MinimumPrice, m.MaximumPrice)
}

// MonitoringConfig holds observer registry settings.
type MonitoringConfig struct {
	Filter    []string `yaml:"filter"`     // Publisher ids to observe; empty = all
	LogEvents bool     `yaml:"log_events"` // Log every event through slog
}

// WriterConfig holds event writer settings.
type WriterConfig struct {
	Enabled       bool          `yaml:"enabled"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
	MaxBufferSize int           `yaml:"max_buffer_size"`
}

// DatabaseConfig holds the TimescaleDB connection for monitoring events.
type DatabaseConfig struct {
	Timescale DBConfig `yaml:"timescale"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// HealthConfig holds health server settings.
type HealthConfig struct {
	Port int `yaml:"port"`
}
