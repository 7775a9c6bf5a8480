package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultClusterID        = "defaultCluster"
	DefaultLogLevel         = "info"
	DefaultReconnectTimeout = 30 // seconds
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultWriteTimeout     = 5 * time.Second
	DefaultPingInterval     = 30 * time.Second
	DefaultPingTimeout      = 60 * time.Second
	DefaultRemoteBuffer     = 1000
	DefaultBidInterval      = 30 * time.Second
	DefaultDBPort           = 5432
	DefaultDBSSLMode        = "prefer"
	DefaultMaxConns         = 4
	DefaultMinConns         = 1
	DefaultBatchSize        = 500
	DefaultFlushInterval    = 5 * time.Second
	DefaultBufferSize       = 1000
	DefaultMaxBufferSize    = 100000
	DefaultHealthPort       = 8080
)

func (c *BridgeConfig) applyDefaults() {
	// Instance defaults
	if c.Instance.ClusterID == "" {
		c.Instance.ClusterID = DefaultClusterID
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}

	// Remote defaults
	if c.Remote.ReconnectTimeout == 0 {
		c.Remote.ReconnectTimeout = DefaultReconnectTimeout
	}
	if c.Remote.HandshakeTimeout == 0 {
		c.Remote.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Remote.WriteTimeout == 0 {
		c.Remote.WriteTimeout = DefaultWriteTimeout
	}
	if c.Remote.PingInterval == 0 {
		c.Remote.PingInterval = DefaultPingInterval
	}
	if c.Remote.PingTimeout == 0 {
		c.Remote.PingTimeout = DefaultPingTimeout
	}
	if c.Remote.BufferSize == 0 {
		c.Remote.BufferSize = DefaultRemoteBuffer
	}

	// Agent defaults
	if c.Agent.BidInterval == 0 {
		c.Agent.BidInterval = DefaultBidInterval
	}

	// Writer defaults
	if c.Writer.BatchSize == 0 {
		c.Writer.BatchSize = DefaultBatchSize
	}
	if c.Writer.FlushInterval == 0 {
		c.Writer.FlushInterval = DefaultFlushInterval
	}
	if c.Writer.BufferSize == 0 {
		c.Writer.BufferSize = DefaultBufferSize
	}
	if c.Writer.MaxBufferSize == 0 {
		c.Writer.MaxBufferSize = DefaultMaxBufferSize
	}

	// Database defaults
	applyDBDefaults(&c.Database.Timescale)

	// Health defaults
	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
