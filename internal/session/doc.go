// Package session binds one agent-side participant to one matcher-side
// participant.
//
// A Session routes bids from the agent to the matcher and price updates
// from the matcher to the agent, and carries the market basis both sides
// agreed on. A *Session is its own identity: sessions are only created by
// New, each with a unique SessionID, and are never reused after Disconnect.
package session
