package registry

import (
	"sync"
	"time"

	"github.com/subgate/subgate/pkg/types"
)

// Registry owns all user membership records. It is safe for concurrent use
// by the request-handling path (inserts) and the reconciliation loop
// (updates). Records are never deleted.
//
// Callers perform oracle checks before calling in; no blocking I/O ever
// happens while the registry lock is held.
type Registry struct {
	mu    sync.RWMutex
	users map[types.UserID]*types.UserRecord
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		users: make(map[types.UserID]*types.UserRecord),
	}
}

// GetOrCreate returns the record for userID, creating it with the supplied
// membership answer and check time if the user has never been seen. When two
// callers race on the same new id, the first insert wins and both observe the
// same single record.
func (r *Registry) GetOrCreate(userID types.UserID, subscribed bool, now time.Time) types.UserRecord {
	r.mu.RLock()
	if rec, ok := r.users[userID]; ok {
		copy := *rec
		r.mu.RUnlock()
		return copy
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check: another caller may have inserted between the locks.
	if rec, ok := r.users[userID]; ok {
		return *rec
	}

	rec := &types.UserRecord{
		ID:         userID,
		Subscribed: subscribed,
		LastCheck:  now,
	}
	r.users[userID] = rec
	return *rec
}

// Get returns a copy of the record for userID, if it exists.
func (r *Registry) Get(userID types.UserID) (types.UserRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.users[userID]
	if !ok {
		return types.UserRecord{}, false
	}
	return *rec, true
}

// Snapshot returns a consistent point-in-time copy of all records. The
// reconciliation loop iterates over the snapshot so concurrent inserts never
// invalidate the sweep and no record is observed mid-mutation.
func (r *Registry) Snapshot() []types.UserRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.UserRecord, 0, len(r.users))
	for _, rec := range r.users {
		out = append(out, *rec)
	}
	return out
}

// UpdateSubscribed sets the membership state for an existing record. Unknown
// ids are a no-op (returns false). LastCheck never moves backwards.
func (r *Registry) UpdateSubscribed(userID types.UserID, subscribed bool, checkedAt time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.users[userID]
	if !ok {
		return false
	}

	rec.Subscribed = subscribed
	if checkedAt.After(rec.LastCheck) {
		rec.LastCheck = checkedAt
	}
	return true
}

// Len returns the number of records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
