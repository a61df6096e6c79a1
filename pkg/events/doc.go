/*
Package events provides the event broker and dispatcher boundary.

The reconciliation loop publishes membership transitions and the gate
publishes access outcomes; the broker fans them out to subscribers with
per-subscriber buffering (slow consumers drop, they never block publishers).
Dispatcher is the seam to the external messaging front-end: it consumes
events and turns them into user-facing notifications. LogDispatcher ships
in-tree so behavior is observable without a front-end attached.
*/
package events
