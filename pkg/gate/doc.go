/*
Package gate handles inbound access requests.

The gate is thin orchestration over the registry, the membership oracle and
the provisioning client: verify membership as of now, provision on success,
and publish the outcome for the dispatcher. It never retries membership
checks and never leaks internal failure detail into user-visible reasons.
*/
package gate
