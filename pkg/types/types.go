package types

import (
	"time"
)

// UserID identifies a user of the messaging platform.
type UserID int64

// UserRecord tracks a single user's membership state. One record exists per
// user that has ever requested access; records are never deleted.
type UserRecord struct {
	ID         UserID
	Subscribed bool
	LastCheck  time.Time
}

// Credential is the access material provisioned on the VPN control plane.
// The control plane owns the credential once accepted; this copy exists only
// to be delivered to the requesting user.
type Credential struct {
	ID        string // random UUID, unique per issuance
	Email     string // label derived from the user id
	Flow      string // transport flow metadata, e.g. "xtls-rprx-vision"
	AccessURL string // vless:// client link for this credential
}

// TransitionEvent records a change in a user's membership state observed
// between two consecutive checks.
type TransitionEvent struct {
	UserID UserID
	From   bool
	To     bool
	At     time.Time
}

// OutcomeKind classifies the result of an access request.
type OutcomeKind string

const (
	OutcomeGranted OutcomeKind = "granted"
	OutcomeDenied  OutcomeKind = "denied"
	OutcomeError   OutcomeKind = "error"
)

// AccessOutcome is the result of handling a single "request VPN" event.
// Credential is set only when Kind is OutcomeGranted. Reason is safe to show
// to the end user; internal causes are logged, never surfaced here.
type AccessOutcome struct {
	UserID     UserID
	Kind       OutcomeKind
	Credential *Credential
	Reason     string
}
