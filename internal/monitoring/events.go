package monitoring

import (
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/matcher-bridge/internal/model"
)

// EventType identifies the kind of monitoring event.
type EventType string

const (
	EventIncomingPriceUpdate EventType = "incoming_price_update"
	EventOutgoingPriceUpdate EventType = "outgoing_price_update"
	EventIncomingBid         EventType = "incoming_bid"
	EventOutgoingBid         EventType = "outgoing_bid"
)

// Event is published by agents and matchers whenever a bid or price passes
// through them. Exactly one of Bid and PriceUpdate is set.
type Event struct {
	ID          uuid.UUID
	Type        EventType
	Role        Role
	ClusterID   string
	AgentID     string
	SessionID   string
	Timestamp   time.Time
	Bid         *model.Bid
	PriceUpdate *model.PriceUpdate
}

// NewBidEvent builds a bid event.
func NewBidEvent(typ EventType, clusterID, agentID, sessionID string, ts time.Time, bid model.Bid) Event {
	return Event{
		ID:        uuid.New(),
		Type:      typ,
		ClusterID: clusterID,
		AgentID:   agentID,
		SessionID: sessionID,
		Timestamp: ts,
		Bid:       &bid,
	}
}

// NewPriceUpdateEvent builds a price update event.
func NewPriceUpdateEvent(typ EventType, clusterID, agentID, sessionID string, ts time.Time, pu model.PriceUpdate) Event {
	return Event{
		ID:          uuid.New(),
		Type:        typ,
		ClusterID:   clusterID,
		AgentID:     agentID,
		SessionID:   sessionID,
		Timestamp:   ts,
		PriceUpdate: &pu,
	}
}

// Observer receives monitoring events. Update is called synchronously from the
// publishing path: it must not block for long and must not detach itself.
type Observer interface {
	Update(e Event)
}

// Observable is a publisher that observers can attach to.
type Observable interface {
	AddObserver(o Observer)
	RemoveObserver(o Observer)
	ObserverID() string
}
