package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/subgate/subgate/pkg/types"
)

// EventType represents the type of event
type EventType string

const (
	EventMembershipGained EventType = "membership.gained"
	EventMembershipLost   EventType = "membership.lost"
	EventAccessGranted    EventType = "access.granted"
	EventAccessDenied     EventType = "access.denied"
	EventAccessError      EventType = "access.error"
)

// Event is the unit of fan-out to the messaging front-end. Exactly one of
// Transition or Outcome is set, depending on Type.
type Event struct {
	ID         string
	Type       EventType
	Timestamp  time.Time
	UserID     types.UserID
	Transition *types.TransitionEvent
	Outcome    *types.AccessOutcome
}

// NewTransitionEvent builds an event from a detected membership transition.
func NewTransitionEvent(t types.TransitionEvent) *Event {
	typ := EventMembershipLost
	if t.To {
		typ = EventMembershipGained
	}
	return &Event{
		ID:         uuid.New().String(),
		Type:       typ,
		Timestamp:  t.At,
		UserID:     t.UserID,
		Transition: &t,
	}
}

// NewOutcomeEvent builds an event from an access request outcome.
func NewOutcomeEvent(o types.AccessOutcome) *Event {
	var typ EventType
	switch o.Kind {
	case types.OutcomeGranted:
		typ = EventAccessGranted
	case types.OutcomeDenied:
		typ = EventAccessDenied
	default:
		typ = EventAccessError
	}
	return &Event{
		ID:      uuid.New().String(),
		Type:    typ,
		UserID:  o.UserID,
		Outcome: &o,
	}
}

// Subscriber is a channel that receives events
type Subscriber chan *Event

// Broker manages event subscriptions and distribution
type Broker struct {
	subscribers map[Subscriber]bool
	mu          sync.RWMutex
	eventCh     chan *Event
	stopCh      chan struct{}
}

// NewBroker creates a new event broker
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Subscriber]bool),
		eventCh:     make(chan *Event, 100), // Buffer up to 100 events
		stopCh:      make(chan struct{}),
	}
}

// Start begins the broker's event distribution loop
func (b *Broker) Start() {
	go b.run()
}

// Stop stops the broker
func (b *Broker) Stop() {
	close(b.stopCh)
}

// Subscribe creates a new subscription and returns a channel
func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 50) // Buffer per subscriber
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes a subscription
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	close(sub)
}

// Publish publishes an event to all subscribers
func (b *Broker) Publish(event *Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case b.eventCh <- event:
	case <-b.stopCh:
	}
}

func (b *Broker) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber buffer full, skip
		}
	}
}
