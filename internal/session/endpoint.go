package session

import "github.com/rickgao/matcher-bridge/internal/model"

// AgentEndpoint is the agent side of a session: it submits bids and
// receives prices.
type AgentEndpoint interface {
	AgentID() string

	// ConnectToMatcher is called once the session has been wired.
	ConnectToMatcher(s *Session)

	// MatcherEndpointDisconnected is called when the session is torn down.
	MatcherEndpointDisconnected(s *Session)

	HandlePriceUpdate(pu model.PriceUpdate)
}

// MatcherEndpoint is the matching side of a session: it receives bids and
// issues prices.
type MatcherEndpoint interface {
	AgentID() string
	ClusterID() string

	// ConnectToAgent binds the session. Returns false if the matcher refuses.
	ConnectToAgent(s *Session) bool

	// AgentEndpointDisconnected is called when the session is torn down.
	AgentEndpointDisconnected(s *Session)

	HandleBidUpdate(s *Session, bid model.Bid)
}
