/*
Package metrics provides Prometheus metrics and health reporting for subgate.

All metrics are registered at init and exposed through Handler() on the API
listener. Components report liveness through UpdateComponent; HealthHandler
serves the aggregate as JSON with a 503 on any unhealthy component.

Metric families:

	subgate_users_total                    users ever seen
	subgate_subscribed_users_total         users currently subscribed
	subgate_sweep_cycles_total             completed reconciliation sweeps
	subgate_sweep_duration_seconds         sweep duration histogram
	subgate_membership_transitions_total   transitions by direction
	subgate_provision_attempts_total       backend attempts, retries included
	subgate_provisions_total               provisioning calls by result
	subgate_access_requests_total          access requests by outcome
*/
package metrics
