package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *BridgeConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}
	if c.Instance.ClusterID == "" {
		return errors.New("instance.cluster_id is required")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}

	if err := c.Remote.validate(); err != nil {
		return err
	}

	if c.Agent.ID == "" {
		return errors.New("agent.id is required")
	}
	if c.Agent.ID == c.Instance.ID {
		return errors.New("agent.id must differ from instance.id")
	}
	if c.Agent.BidInterval <= 0 {
		return errors.New("agent.bid_interval must be > 0")
	}

	if c.MarketBasis != nil {
		mb, err := c.MarketBasis.MarketBasis()
		if err != nil {
			return fmt.Errorf("market_basis: %w", err)
		}
		if n := len(c.Agent.Demand); n > 0 && n != mb.PriceSteps {
			return fmt.Errorf("agent.demand has %d values, market_basis.price_steps is %d", n, mb.PriceSteps)
		}
	}
	for i := 1; i < len(c.Agent.Demand); i++ {
		if c.Agent.Demand[i] > c.Agent.Demand[i-1] {
			return fmt.Errorf("agent.demand must be non-increasing (step %d)", i)
		}
	}

	if c.Writer.Enabled {
		if c.Writer.BatchSize < 1 {
			return errors.New("writer.batch_size must be >= 1")
		}
		if c.Writer.BufferSize < 1 {
			return errors.New("writer.buffer_size must be >= 1")
		}
		if c.Writer.FlushInterval <= 0 {
			return errors.New("writer.flush_interval must be > 0")
		}
		if err := c.Database.Timescale.validate("database.timescale"); err != nil {
			return err
		}
	}

	if c.Health.Port < 1 || c.Health.Port > 65535 {
		return fmt.Errorf("health.port must be between 1 and 65535, got %d", c.Health.Port)
	}

	return nil
}

func (r *RemoteConfig) validate() error {
	if r.URL == "" {
		return errors.New("remote.url is required")
	}
	u, err := url.Parse(r.URL)
	if err != nil {
		return fmt.Errorf("remote.url is invalid: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("remote.url must use ws or wss, got %q", u.Scheme)
	}
	if r.ReconnectTimeout <= 0 {
		return fmt.Errorf("remote.reconnect_timeout must be a positive number of seconds, got %d", r.ReconnectTimeout)
	}
	if r.KeyID != "" && r.PrivateKeyPath == "" {
		return errors.New("remote.private_key_path is required when remote.key_id is set")
	}
	if r.PrivateKeyPath != "" && r.KeyID == "" {
		return errors.New("remote.key_id is required when remote.private_key_path is set")
	}
	if r.BufferSize < 1 {
		return errors.New("remote.buffer_size must be >= 1")
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
