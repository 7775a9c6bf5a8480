package agent

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/raulk/clock"

	"github.com/rickgao/matcher-bridge/internal/model"
	"github.com/rickgao/matcher-bridge/internal/monitoring"
	"github.com/rickgao/matcher-bridge/internal/schedule"
	"github.com/rickgao/matcher-bridge/internal/session"
)

var (
	ErrNoSession     = errors.New("agent has no session")
	ErrNoMarketBasis = errors.New("session has no market basis")
)

// DeviceAgent is an agent that bids a demand curve on behalf of a device.
type DeviceAgent struct {
	*monitoring.Publisher

	id     string
	clock  clock.Clock
	logger *slog.Logger

	mu        sync.RWMutex
	session   *session.Session
	lastPrice model.PriceUpdate
	hasPrice  bool
	bidNumber int
}

var _ session.AgentEndpoint = (*DeviceAgent)(nil)

// NewDeviceAgent creates an agent. A nil clock uses the wall clock.
func NewDeviceAgent(id string, clk clock.Clock, logger *slog.Logger) *DeviceAgent {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.New()
	}
	logger = logger.With("component", "agent", "agent", id)

	return &DeviceAgent{
		Publisher: monitoring.NewAgentPublisher(id, logger),
		id:        id,
		clock:     clk,
		logger:    logger,
	}
}

// AgentID returns the agent id.
func (a *DeviceAgent) AgentID() string { return a.id }

// ConnectToMatcher stores the session.
func (a *DeviceAgent) ConnectToMatcher(s *session.Session) {
	a.mu.Lock()
	a.session = s
	a.mu.Unlock()

	a.logger.Info("connected to matcher",
		"matcher", s.MatcherID(),
		"session", s.SessionID(),
	)
}

// MatcherEndpointDisconnected forgets s if it is the current session.
func (a *DeviceAgent) MatcherEndpointDisconnected(s *session.Session) {
	a.mu.Lock()
	if a.session == s {
		a.session = nil
	}
	a.mu.Unlock()

	a.logger.Info("disconnected from matcher", "session", s.SessionID())
}

// HandlePriceUpdate records the price.
func (a *DeviceAgent) HandlePriceUpdate(pu model.PriceUpdate) {
	a.mu.Lock()
	a.lastPrice = pu
	a.hasPrice = true
	s := a.session
	a.mu.Unlock()

	a.logger.Debug("price update received",
		"price", pu.Price.Value,
		"bid_number", pu.BidNumber,
	)

	var clusterID, sessionID string
	if s != nil {
		clusterID, sessionID = s.ClusterID(), s.SessionID()
	}
	a.Publish(monitoring.NewPriceUpdateEvent(monitoring.EventIncomingPriceUpdate,
		clusterID, a.id, sessionID, a.clock.Now(), pu))
}

// Session returns the bound session, or nil.
func (a *DeviceAgent) Session() *session.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

// LastPriceUpdate returns the most recent price and whether one has arrived.
func (a *DeviceAgent) LastPriceUpdate() (model.PriceUpdate, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastPrice, a.hasPrice
}

// SubmitBid builds a bid from demand over the session's market basis and
// sends it to the matcher.
func (a *DeviceAgent) SubmitBid(demand []float64) (model.Bid, error) {
	a.mu.Lock()
	s := a.session
	if s == nil {
		a.mu.Unlock()
		return model.Bid{}, ErrNoSession
	}
	mb, ok := s.MarketBasis()
	if !ok {
		a.mu.Unlock()
		return model.Bid{}, ErrNoMarketBasis
	}
	bid, err := model.NewBid(mb, demand, a.bidNumber+1)
	if err != nil {
		a.mu.Unlock()
		return model.Bid{}, fmt.Errorf("build bid: %w", err)
	}
	a.bidNumber++
	a.mu.Unlock()

	s.UpdateBid(bid)

	a.Publish(monitoring.NewBidEvent(monitoring.EventOutgoingBid,
		s.ClusterID(), a.id, s.SessionID(), a.clock.Now(), bid))
	return bid, nil
}

// StartBidding submits demand immediately and then every interval until the
// returned task is cancelled. Submission failures are logged.
func (a *DeviceAgent) StartBidding(interval time.Duration, demand []float64) (*schedule.Task, error) {
	curve := append([]float64(nil), demand...)
	return schedule.Every(a.clock, interval, func() {
		bid, err := a.SubmitBid(curve)
		if err != nil {
			a.logger.Info("bid not submitted", "error", err)
			return
		}
		a.logger.Debug("bid submitted", "bid_number", bid.BidNumber())
	})
}
