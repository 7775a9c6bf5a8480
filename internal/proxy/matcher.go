package proxy

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/raulk/clock"

	"github.com/rickgao/matcher-bridge/internal/model"
	"github.com/rickgao/matcher-bridge/internal/monitoring"
	"github.com/rickgao/matcher-bridge/internal/schedule"
	"github.com/rickgao/matcher-bridge/internal/session"
)

var (
	ErrInvalidInterval = errors.New("reconnect timeout must be a positive number of seconds")
	ErrAlreadyActive   = errors.New("proxy already active")
	ErrNotActive       = errors.New("proxy not active")
)

// Config holds proxy settings.
type Config struct {
	ID        string
	ClusterID string

	// ReconnectTimeout is the interval between remote connect attempts, in
	// whole seconds.
	ReconnectTimeout int

	// Clock drives the reconnect schedule. Defaults to the wall clock.
	Clock clock.Clock
}

// MatcherEndpointProxy is the local matcher for one agent session, relaying
// to a remote matcher.
type MatcherEndpointProxy struct {
	*monitoring.Publisher

	cfg    Config
	remote Remote
	clock  clock.Clock
	logger *slog.Logger

	local atomic.Pointer[session.Session]

	mu   sync.Mutex
	task *schedule.Task
}

var _ session.MatcherEndpoint = (*MatcherEndpointProxy)(nil)

// New creates a proxy that talks to the remote matcher through remote.
func New(cfg Config, remote Remote, logger *slog.Logger) *MatcherEndpointProxy {
	if logger == nil {
		logger = slog.Default()
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	logger = logger.With("component", "proxy", "matcher", cfg.ID)

	return &MatcherEndpointProxy{
		Publisher: monitoring.NewMatcherPublisher(cfg.ID, logger),
		cfg:       cfg,
		remote:    remote,
		clock:     clk,
		logger:    logger,
	}
}

// AgentID returns the id of this matcher.
func (p *MatcherEndpointProxy) AgentID() string { return p.cfg.ID }

// ClusterID returns the cluster this matcher belongs to.
func (p *MatcherEndpointProxy) ClusterID() string { return p.cfg.ClusterID }

// Activate starts the reconnect schedule. The first attempt runs immediately.
func (p *MatcherEndpointProxy) Activate() error {
	if p.cfg.ReconnectTimeout <= 0 {
		return ErrInvalidInterval
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.task != nil {
		return ErrAlreadyActive
	}

	interval := time.Duration(p.cfg.ReconnectTimeout) * time.Second
	task, err := schedule.Every(p.clock, interval, p.reconnect)
	if err != nil {
		return err
	}
	p.task = task

	p.logger.Info("proxy activated", "reconnect_timeout", interval)
	return nil
}

// Deactivate stops future reconnect attempts and disconnects the remote. An
// attempt already running is not interrupted.
func (p *MatcherEndpointProxy) Deactivate() error {
	p.mu.Lock()
	task := p.task
	p.task = nil
	p.mu.Unlock()

	if task == nil {
		return ErrNotActive
	}
	task.Cancel()
	p.remote.DisconnectRemote()

	p.logger.Info("proxy deactivated")
	return nil
}

func (p *MatcherEndpointProxy) reconnect() {
	if !p.remote.ConnectRemote() {
		p.logger.Debug("remote connect attempt failed")
	}
}

// ConnectToAgent binds s as the local session and triggers an immediate
// remote connect attempt. It always accepts.
func (p *MatcherEndpointProxy) ConnectToAgent(s *session.Session) bool {
	if prev := p.local.Swap(s); prev != nil && prev != s {
		p.logger.Warn("replacing bound session",
			"previous", prev.SessionID(),
			"session", s.SessionID(),
		)
	}

	p.logger.Info("agent connected",
		"agent", s.AgentID(),
		"session", s.SessionID(),
	)

	p.remote.ConnectRemote()
	return true
}

// AgentEndpointDisconnected unbinds s and disconnects the remote. The
// reconnect schedule keeps running.
func (p *MatcherEndpointProxy) AgentEndpointDisconnected(s *session.Session) {
	if !p.local.CompareAndSwap(s, nil) {
		p.logger.Warn("disconnect for unknown session", "session", s.SessionID())
		return
	}

	p.logger.Info("agent disconnected",
		"agent", s.AgentID(),
		"session", s.SessionID(),
	)

	p.remote.DisconnectRemote()
}

// HandleBidUpdate relays a bid from the local agent to the remote matcher.
func (p *MatcherEndpointProxy) HandleBidUpdate(s *session.Session, bid model.Bid) {
	local := p.local.Load()
	if local == nil || local != s {
		p.logger.Warn("bid for unknown session", "session", s.SessionID())
		return
	}
	if !p.remote.IsRemoteConnected() {
		p.logger.Warn("remote not connected, dropping bid",
			"session", local.SessionID(),
			"bid_number", bid.BidNumber(),
		)
		return
	}
	if _, ok := local.MarketBasis(); !ok {
		p.logger.Info("market basis not set, dropping bid",
			"session", local.SessionID(),
			"bid_number", bid.BidNumber(),
		)
		return
	}

	p.remote.UpdateBidRemote(bid)

	p.Publish(monitoring.NewBidEvent(monitoring.EventIncomingBid,
		p.cfg.ClusterID, local.AgentID(), local.SessionID(), p.clock.Now(), bid))
}

// UpdateLocalPrice delivers a price from the remote matcher to the local
// agent.
func (p *MatcherEndpointProxy) UpdateLocalPrice(pu model.PriceUpdate) {
	local := p.local.Load()
	if local == nil {
		p.logger.Info("no local session, dropping price update", "bid_number", pu.BidNumber)
		return
	}
	if _, ok := local.MarketBasis(); !ok {
		p.logger.Info("market basis not set, dropping price update",
			"session", local.SessionID(),
			"bid_number", pu.BidNumber,
		)
		return
	}

	local.UpdatePrice(pu)

	p.Publish(monitoring.NewPriceUpdateEvent(monitoring.EventOutgoingPriceUpdate,
		p.cfg.ClusterID, local.AgentID(), local.SessionID(), p.clock.Now(), pu))
}

// UpdateRemoteMarketBasis sets the market basis of the local session if it
// has none yet. A basis already in place is never replaced.
func (p *MatcherEndpointProxy) UpdateRemoteMarketBasis(mb model.MarketBasis) {
	local := p.local.Load()
	if local == nil {
		p.logger.Debug("no local session, ignoring market basis", "market_basis", mb.String())
		return
	}

	if local.InitMarketBasis(mb) {
		p.logger.Info("market basis set from remote",
			"session", local.SessionID(),
			"market_basis", mb.String(),
		)
	}
}

// IsLocalConnected reports whether a local session is bound.
func (p *MatcherEndpointProxy) IsLocalConnected() bool {
	return p.local.Load() != nil
}

// IsRemoteConnected reports whether the remote channel is up.
func (p *MatcherEndpointProxy) IsRemoteConnected() bool {
	return p.remote.IsRemoteConnected()
}
