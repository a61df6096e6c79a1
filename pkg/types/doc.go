/*
Package types defines the core data structures shared across subgate.

It contains the domain model for membership-gated VPN access: user membership
records, provisioned credentials, membership transition events, and access
request outcomes. All other packages depend on these types; this package
depends on nothing but the standard library.

UserRecord is the unit of state the reconciliation loop maintains. Credential
is ephemeral from subgate's point of view: the remote VPN control plane is the
source of truth once a credential has been accepted.
*/
package types
