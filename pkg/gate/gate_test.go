package gate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subgate/subgate/pkg/events"
	"github.com/subgate/subgate/pkg/provision"
	"github.com/subgate/subgate/pkg/registry"
	"github.com/subgate/subgate/pkg/types"
)

// staticOracle answers the same for every user.
type staticOracle bool

func (o staticOracle) IsMember(ctx context.Context, userID types.UserID) bool {
	return bool(o)
}

// fakeProvisioner counts calls and returns a canned result.
type fakeProvisioner struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (p *fakeProvisioner) Provision(ctx context.Context, userID types.UserID) (*types.Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &types.Credential{
		ID:        "cred-1",
		Email:     "user_1@myserver",
		Flow:      "xtls-rprx-vision",
		AccessURL: "vless://cred-1@vpn.example.com:443",
	}, nil
}

func (p *fakeProvisioner) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func newTestGate(t *testing.T, oracle staticOracle, provisioner *fakeProvisioner) (*Gate, *registry.Registry, events.Subscriber) {
	t.Helper()
	reg := registry.New()
	broker := events.NewBroker()
	broker.Start()
	t.Cleanup(broker.Stop)
	sub := broker.Subscribe()

	return New(reg, oracle, provisioner, broker, zerolog.Nop()), reg, sub
}

func receiveEvent(t *testing.T, sub events.Subscriber) *events.Event {
	t.Helper()
	select {
	case event := <-sub:
		return event
	case <-time.After(time.Second):
		t.Fatal("no outcome event published")
		return nil
	}
}

func TestRequestAccess_SubscribedUserIsGranted(t *testing.T) {
	provisioner := &fakeProvisioner{}
	g, reg, sub := newTestGate(t, staticOracle(true), provisioner)

	outcome := g.RequestAccess(context.Background(), types.UserID(1))

	assert.Equal(t, types.OutcomeGranted, outcome.Kind)
	require.NotNil(t, outcome.Credential)
	assert.Equal(t, "cred-1", outcome.Credential.ID)
	assert.Equal(t, 1, provisioner.count())

	record, ok := reg.Get(types.UserID(1))
	require.True(t, ok, "first contact must create a registry record")
	assert.True(t, record.Subscribed)

	event := receiveEvent(t, sub)
	assert.Equal(t, events.EventAccessGranted, event.Type)
}

func TestRequestAccess_UnsubscribedUserIsDenied(t *testing.T) {
	provisioner := &fakeProvisioner{}
	g, reg, sub := newTestGate(t, staticOracle(false), provisioner)

	outcome := g.RequestAccess(context.Background(), types.UserID(1))

	assert.Equal(t, types.OutcomeDenied, outcome.Kind)
	assert.Nil(t, outcome.Credential)
	assert.Equal(t, ReasonSubscribeFirst, outcome.Reason)
	assert.Equal(t, 0, provisioner.count(), "unsubscribed users must never reach the backend")

	record, ok := reg.Get(types.UserID(1))
	require.True(t, ok)
	assert.False(t, record.Subscribed)

	event := receiveEvent(t, sub)
	assert.Equal(t, events.EventAccessDenied, event.Type)
}

func TestRequestAccess_ProvisioningFailureIsGenericError(t *testing.T) {
	provisioner := &fakeProvisioner{
		err: errors.New("dial tcp 127.0.0.1:2053: connection refused"),
	}
	g, _, sub := newTestGate(t, staticOracle(true), provisioner)

	outcome := g.RequestAccess(context.Background(), types.UserID(1))

	assert.Equal(t, types.OutcomeError, outcome.Kind)
	assert.Equal(t, ReasonTryAgainLater, outcome.Reason)
	assert.NotContains(t, outcome.Reason, "connection refused", "internal causes must not leak to users")

	event := receiveEvent(t, sub)
	assert.Equal(t, events.EventAccessError, event.Type)
}

func TestRequestAccess_RecordReflectsOracleAtCallTime(t *testing.T) {
	provisioner := &fakeProvisioner{}
	g, reg, _ := newTestGate(t, staticOracle(true), provisioner)

	g.RequestAccess(context.Background(), types.UserID(9))

	record, ok := reg.Get(types.UserID(9))
	require.True(t, ok)
	assert.True(t, record.Subscribed)
	assert.WithinDuration(t, time.Now(), record.LastCheck, time.Second)
}

// Interface satisfaction: the real provisioning client plugs in here.
var _ provision.Provisioner = (*fakeProvisioner)(nil)
