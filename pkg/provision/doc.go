/*
Package provision implements the VPN credential provisioning client.

Client generates a fresh random credential per call and submits it to a
Backend, retrying transient connectivity failures within a fixed attempt
budget. Two backends exist, selected by configuration:

  - APIBackend talks to the control plane's HTTP management API
    (POST /handler/add). The remote service serializes concurrent writes.

  - FileBackend rewrites the daemon's JSON configuration document under a
    mutex, persists it with write-then-rename, and signals the daemon to
    reload through a Reloader. Success is reported only after the reload
    signal has been issued.

Failures are classified with ErrTransient (retried), ErrRejected and
ErrPersist (both terminal). Issuance is not idempotent per user; see Client.
*/
package provision
