package gate

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/subgate/subgate/pkg/events"
	"github.com/subgate/subgate/pkg/membership"
	"github.com/subgate/subgate/pkg/metrics"
	"github.com/subgate/subgate/pkg/provision"
	"github.com/subgate/subgate/pkg/registry"
	"github.com/subgate/subgate/pkg/types"
)

// User-visible reasons stay generic; internal causes are logged instead.
const (
	ReasonSubscribeFirst = "subscribe to the channel first to get VPN access"
	ReasonTryAgainLater  = "could not create your VPN access, try again later"
)

// Gate orchestrates a single inbound "request VPN" event: look the user up,
// check membership as of right now, and provision a credential if they
// qualify.
type Gate struct {
	registry    *registry.Registry
	oracle      membership.Oracle
	provisioner provision.Provisioner
	broker      *events.Broker
	logger      zerolog.Logger
}

// New creates a gate.
func New(reg *registry.Registry, oracle membership.Oracle, provisioner provision.Provisioner, broker *events.Broker, logger zerolog.Logger) *Gate {
	return &Gate{
		registry:    reg,
		oracle:      oracle,
		provisioner: provisioner,
		broker:      broker,
		logger:      logger,
	}
}

// RequestAccess handles one access request. The membership check is fresh as
// of this call, never the cached record; the registry record is created on
// first contact so the reconciliation loop picks the user up from now on.
// Membership checks are not retried here: the outcome reflects the state of
// the world at call time.
func (g *Gate) RequestAccess(ctx context.Context, userID types.UserID) types.AccessOutcome {
	member := g.oracle.IsMember(ctx, userID)
	g.registry.GetOrCreate(userID, member, time.Now())

	var outcome types.AccessOutcome
	switch {
	case !member:
		outcome = types.AccessOutcome{
			UserID: userID,
			Kind:   types.OutcomeDenied,
			Reason: ReasonSubscribeFirst,
		}

	default:
		cred, err := g.provisioner.Provision(ctx, userID)
		if err != nil {
			g.logger.Error().
				Err(err).
				Int64("user_id", int64(userID)).
				Msg("provisioning failed for access request")
			outcome = types.AccessOutcome{
				UserID: userID,
				Kind:   types.OutcomeError,
				Reason: ReasonTryAgainLater,
			}
		} else {
			g.logger.Info().
				Int64("user_id", int64(userID)).
				Str("credential_id", cred.ID).
				Msg("access granted")
			outcome = types.AccessOutcome{
				UserID:     userID,
				Kind:       types.OutcomeGranted,
				Credential: cred,
			}
		}
	}

	metrics.AccessRequestsTotal.WithLabelValues(string(outcome.Kind)).Inc()
	g.broker.Publish(events.NewOutcomeEvent(outcome))
	return outcome
}
