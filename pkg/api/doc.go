/*
Package api exposes subgate's HTTP surface.

Endpoints:

	POST /v1/access   {"user_id": N} -> granted (with credential), denied, or error
	GET  /healthz     component health as JSON
	GET  /metrics     Prometheus metrics

The access endpoint maps outcomes to status codes: 200 for granted, 403 for
denied, 502 for a provisioning failure. The body always carries the outcome
and a user-safe reason, so the front-end can relay it verbatim.
*/
package api
