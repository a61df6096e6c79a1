/*
Package registry provides the concurrent-safe store of user membership
records.

Two actors touch the registry: request handling inserts records on first
contact, and the reconciliation loop reads snapshots and writes membership
updates. A single RWMutex guards the map; all methods return copies so no
caller ever holds a pointer into guarded state. State is in-memory only and
does not survive a restart.
*/
package registry
