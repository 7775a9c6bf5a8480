package session

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/rickgao/matcher-bridge/internal/model"
)

// Session is the rendezvous between one agent and one matcher.
type Session struct {
	sessionID string
	agentID   string
	matcherID string
	clusterID string
	logger    *slog.Logger

	mu          sync.RWMutex
	agent       AgentEndpoint
	matcher     MatcherEndpoint
	marketBasis model.MarketBasis
	hasBasis    bool
	closed      bool

	disconnectOnce sync.Once
}

// New creates a session between agent and matcher. The session is not
// wired until Connect is called.
func New(agent AgentEndpoint, matcher MatcherEndpoint, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.NewString()
	return &Session{
		sessionID: id,
		agentID:   agent.AgentID(),
		matcherID: matcher.AgentID(),
		clusterID: matcher.ClusterID(),
		logger:    logger.With("session", id),
		agent:     agent,
		matcher:   matcher,
	}
}

// SessionID returns the unique id of this session.
func (s *Session) SessionID() string { return s.sessionID }

// AgentID returns the id of the agent side.
func (s *Session) AgentID() string { return s.agentID }

// MatcherID returns the id of the matcher side.
func (s *Session) MatcherID() string { return s.matcherID }

// ClusterID returns the cluster of the matcher side.
func (s *Session) ClusterID() string { return s.clusterID }

// Connect wires the matcher and then the agent to this session.
func (s *Session) Connect() {
	agent, matcher, ok := s.endpoints()
	if !ok {
		s.logger.Warn("connect on closed session")
		return
	}

	if !matcher.ConnectToAgent(s) {
		s.logger.Warn("matcher refused session", "matcher", s.matcherID)
	}
	agent.ConnectToMatcher(s)

	s.logger.Info("session connected",
		"agent", s.agentID,
		"matcher", s.matcherID,
		"cluster", s.clusterID,
	)
}

// UpdateBid forwards a bid to the matcher.
func (s *Session) UpdateBid(bid model.Bid) {
	_, matcher, ok := s.endpoints()
	if !ok {
		s.logger.Debug("dropping bid on closed session", "bid_number", bid.BidNumber())
		return
	}
	matcher.HandleBidUpdate(s, bid)
}

// UpdatePrice forwards a price update to the agent.
func (s *Session) UpdatePrice(pu model.PriceUpdate) {
	agent, _, ok := s.endpoints()
	if !ok {
		s.logger.Debug("dropping price update on closed session", "bid_number", pu.BidNumber)
		return
	}
	agent.HandlePriceUpdate(pu)
}

// Disconnect notifies both sides exactly once and closes the session.
func (s *Session) Disconnect() {
	s.disconnectOnce.Do(func() {
		s.mu.Lock()
		agent, matcher := s.agent, s.matcher
		s.agent, s.matcher = nil, nil
		s.closed = true
		s.mu.Unlock()

		matcher.AgentEndpointDisconnected(s)
		agent.MatcherEndpointDisconnected(s)

		s.logger.Info("session disconnected")
	})
}

// Closed reports whether Disconnect has been called.
func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// MarketBasis returns the market basis and whether one has been set.
func (s *Session) MarketBasis() (model.MarketBasis, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.marketBasis, s.hasBasis
}

// SetMarketBasis sets the market basis unconditionally.
func (s *Session) SetMarketBasis(mb model.MarketBasis) {
	s.mu.Lock()
	s.marketBasis = mb
	s.hasBasis = true
	s.mu.Unlock()
}

// InitMarketBasis sets the market basis only if none is set yet and reports
// whether it did.
func (s *Session) InitMarketBasis(mb model.MarketBasis) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasBasis {
		return false
	}
	s.marketBasis = mb
	s.hasBasis = true
	return true
}

func (s *Session) endpoints() (AgentEndpoint, MatcherEndpoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, nil, false
	}
	return s.agent, s.matcher, true
}
