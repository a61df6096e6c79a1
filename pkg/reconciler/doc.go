/*
Package reconciler runs the membership reconciliation loop.

Membership can lapse after access has been granted, and the only available
primitive is a pull-style membership query, so the reconciler periodically
sweeps every user the registry knows about and re-asks the oracle. When the
answer differs from the cached state it updates the record and publishes a
transition event for the dispatcher to turn into a notification.

Each cycle operates on a registry snapshot, so request handling can insert
new users while a sweep runs. Per-user oracle failures are isolated: the
fail-closed oracle turns them into "not a member" and the sweep continues
with the next user. The loop runs until its context is cancelled; a shutdown
interrupts the inter-cycle wait promptly instead of waiting out the period.

The default period is one hour. The loop is stateless between cycles: every
decision is based on the current snapshot and the oracle's current answer, so
missed cycles converge on the next sweep.
*/
package reconciler
