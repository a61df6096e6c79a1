package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subgate/subgate/pkg/types"
)

func TestNewTransitionEvent(t *testing.T) {
	at := time.Now()

	lost := NewTransitionEvent(types.TransitionEvent{UserID: 1, From: true, To: false, At: at})
	assert.Equal(t, EventMembershipLost, lost.Type)
	assert.Equal(t, types.UserID(1), lost.UserID)
	assert.Equal(t, at, lost.Timestamp)
	require.NotNil(t, lost.Transition)
	assert.True(t, lost.Transition.From)
	assert.False(t, lost.Transition.To)

	gained := NewTransitionEvent(types.TransitionEvent{UserID: 2, From: false, To: true, At: at})
	assert.Equal(t, EventMembershipGained, gained.Type)
	assert.NotEqual(t, lost.ID, gained.ID)
}

func TestNewOutcomeEvent(t *testing.T) {
	tests := []struct {
		kind types.OutcomeKind
		typ  EventType
	}{
		{types.OutcomeGranted, EventAccessGranted},
		{types.OutcomeDenied, EventAccessDenied},
		{types.OutcomeError, EventAccessError},
	}

	for _, tt := range tests {
		event := NewOutcomeEvent(types.AccessOutcome{UserID: 5, Kind: tt.kind})
		assert.Equal(t, tt.typ, event.Type)
		assert.Equal(t, types.UserID(5), event.UserID)
	}
}

func TestBroker_PublishReachesAllSubscribers(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	sub1 := broker.Subscribe()
	sub2 := broker.Subscribe()

	broker.Publish(NewTransitionEvent(types.TransitionEvent{UserID: 1, From: true, To: false, At: time.Now()}))

	for _, sub := range []Subscriber{sub1, sub2} {
		select {
		case event := <-sub:
			assert.Equal(t, EventMembershipLost, event.Type)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestBroker_UnsubscribedChannelStopsReceiving(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	broker.Unsubscribe(sub)

	// Channel is closed; a receive yields the zero value immediately.
	event, ok := <-sub
	assert.Nil(t, event)
	assert.False(t, ok)
}

// collectingDispatcher records dispatched events.
type collectingDispatcher struct {
	mu     sync.Mutex
	events []*Event
}

func (d *collectingDispatcher) Dispatch(event *Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
}

func (d *collectingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.events)
}

func TestBroker_AttachDispatcher(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	collector := &collectingDispatcher{}
	broker.Attach(collector)

	for i := 0; i < 3; i++ {
		broker.Publish(NewOutcomeEvent(types.AccessOutcome{UserID: types.UserID(i), Kind: types.OutcomeDenied}))
	}

	require.Eventually(t, func() bool {
		return collector.count() == 3
	}, time.Second, 10*time.Millisecond)
}
