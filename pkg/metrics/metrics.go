package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry metrics
	UsersTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "subgate_users_total",
			Help: "Total number of users ever seen",
		},
	)

	SubscribedUsersTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "subgate_subscribed_users_total",
			Help: "Number of users currently recorded as subscribed",
		},
	)

	// Reconciliation metrics
	SweepCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subgate_sweep_cycles_total",
			Help: "Total number of completed reconciliation sweeps",
		},
	)

	SweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "subgate_sweep_duration_seconds",
			Help:    "Reconciliation sweep duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	TransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subgate_membership_transitions_total",
			Help: "Membership transitions detected by direction",
		},
		[]string{"direction"}, // "gained" or "lost"
	)

	// Provisioning metrics
	ProvisionAttemptsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subgate_provision_attempts_total",
			Help: "Total provisioning attempts against the backend, including retries",
		},
	)

	ProvisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subgate_provisions_total",
			Help: "Provisioning calls by final result",
		},
		[]string{"result"}, // "success", "transient_exhausted", "rejected", "persist_failed"
	)

	// Access request metrics
	AccessRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subgate_access_requests_total",
			Help: "Access requests by outcome",
		},
		[]string{"outcome"}, // "granted", "denied", "error"
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(UsersTotal)
	prometheus.MustRegister(SubscribedUsersTotal)
	prometheus.MustRegister(SweepCyclesTotal)
	prometheus.MustRegister(SweepDuration)
	prometheus.MustRegister(TransitionsTotal)
	prometheus.MustRegister(ProvisionAttemptsTotal)
	prometheus.MustRegister(ProvisionsTotal)
	prometheus.MustRegister(AccessRequestsTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
