package reconciler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/subgate/subgate/pkg/events"
	"github.com/subgate/subgate/pkg/membership"
	"github.com/subgate/subgate/pkg/metrics"
	"github.com/subgate/subgate/pkg/registry"
	"github.com/subgate/subgate/pkg/types"
)

// Reconciler keeps cached membership state consistent with the oracle's
// current truth. It periodically sweeps every known user, re-queries the
// oracle, updates the registry and publishes a transition event whenever a
// user's membership changed since the previous check.
type Reconciler struct {
	registry *registry.Registry
	oracle   membership.Oracle
	broker   *events.Broker
	interval time.Duration
	logger   zerolog.Logger
}

// New creates a reconciler sweeping on the given interval.
func New(reg *registry.Registry, oracle membership.Oracle, broker *events.Broker, interval time.Duration, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		registry: reg,
		oracle:   oracle,
		broker:   broker,
		interval: interval,
		logger:   logger,
	}
}

// Run executes sweeps on the configured interval until ctx is cancelled.
// Cancellation interrupts the inter-sweep wait promptly; an in-flight sweep
// stops between users, never mid-write.
func (r *Reconciler) Run(ctx context.Context) {
	r.logger.Info().Dur("interval", r.interval).Msg("reconciler started")
	metrics.UpdateComponent("reconciler", true, "")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Sweep(ctx)
		case <-ctx.Done():
			r.logger.Info().Msg("reconciler stopped")
			return
		}
	}
}

// Sweep re-checks every user known at the start of the cycle. Oracle
// failures for one user never abort the sweep for the rest: the fail-closed
// oracle absorbs them as "not a member" and logs the cause.
func (r *Reconciler) Sweep(ctx context.Context) {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.SweepDuration)
		metrics.SweepCyclesTotal.Inc()
	}()

	snapshot := r.registry.Snapshot()
	r.logger.Debug().Int("users", len(snapshot)).Msg("sweep started")

	subscribed := 0
	for _, rec := range snapshot {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("sweep aborted by shutdown")
			return
		default:
		}

		current := r.oracle.IsMember(ctx, rec.ID)
		if current {
			subscribed++
		}

		checkedAt := time.Now()
		if current == rec.Subscribed {
			r.registry.UpdateSubscribed(rec.ID, current, checkedAt)
			continue
		}

		if !r.registry.UpdateSubscribed(rec.ID, current, checkedAt) {
			continue
		}

		direction := "lost"
		if current {
			direction = "gained"
		}
		metrics.TransitionsTotal.WithLabelValues(direction).Inc()

		r.logger.Info().
			Int64("user_id", int64(rec.ID)).
			Bool("from", rec.Subscribed).
			Bool("to", current).
			Msg("membership transition")

		r.broker.Publish(events.NewTransitionEvent(types.TransitionEvent{
			UserID: rec.ID,
			From:   rec.Subscribed,
			To:     current,
			At:     checkedAt,
		}))
	}

	metrics.UsersTotal.Set(float64(r.registry.Len()))
	metrics.SubscribedUsersTotal.Set(float64(subscribed))
}
