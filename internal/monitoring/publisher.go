package monitoring

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/hannahhoward/go-pubsub"
)

// Role distinguishes agent-side from matcher-side publishers.
type Role string

const (
	RoleAgent   Role = "agent"
	RoleMatcher Role = "matcher"
)

// Publisher fans events out to attached observers. Embed it to make a
// participant Observable.
type Publisher struct {
	id     string
	role   Role
	logger *slog.Logger

	ps *pubsub.PubSub

	mu   sync.Mutex
	subs map[Observer]pubsub.Unsubscribe
}

// NewAgentPublisher creates a publisher for an agent-side participant.
func NewAgentPublisher(id string, logger *slog.Logger) *Publisher {
	return newPublisher(id, RoleAgent, logger)
}

// NewMatcherPublisher creates a publisher for a matcher-side participant.
func NewMatcherPublisher(id string, logger *slog.Logger) *Publisher {
	return newPublisher(id, RoleMatcher, logger)
}

func newPublisher(id string, role Role, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Publisher{
		id:     id,
		role:   role,
		logger: logger,
		ps:     pubsub.New(dispatch),
		subs:   make(map[Observer]pubsub.Unsubscribe),
	}
}

func dispatch(event pubsub.Event, subFn pubsub.SubscriberFn) error {
	evt, ok := event.(Event)
	if !ok {
		return fmt.Errorf("wrong type of event: %T", event)
	}
	obs, ok := subFn.(Observer)
	if !ok {
		return fmt.Errorf("wrong type of subscriber: %T", subFn)
	}
	obs.Update(evt)
	return nil
}

// ObserverID returns the publisher id used by registries.
func (p *Publisher) ObserverID() string { return p.id }

// Role returns the publisher role.
func (p *Publisher) Role() Role { return p.role }

// AddObserver attaches o. Attaching the same observer twice is a no-op.
func (p *Publisher) AddObserver(o Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.subs[o]; ok {
		return
	}
	p.subs[o] = p.ps.Subscribe(o)
}

// RemoveObserver detaches o. Removing an unknown observer is a no-op.
func (p *Publisher) RemoveObserver(o Observer) {
	p.mu.Lock()
	unsub, ok := p.subs[o]
	delete(p.subs, o)
	p.mu.Unlock()

	if ok {
		unsub()
	}
}

// ObserverCount returns the number of attached observers.
func (p *Publisher) ObserverCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// Publish stamps the event with the publisher role and delivers it to every
// attached observer.
func (p *Publisher) Publish(e Event) {
	e.Role = p.role
	if err := p.ps.Publish(e); err != nil {
		p.logger.Error("unexpected error publishing event",
			"publisher", p.id,
			"type", e.Type,
			"error", err,
		)
	}
}
