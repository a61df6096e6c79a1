/*
Package log provides structured logging for subgate using zerolog.

It wraps zerolog with a small initialization surface and component-scoped
child loggers. Output is JSON by default; a console writer is available for
local development.

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	logger := log.WithComponent("reconciler")
	logger.Info().Int64("user_id", 42).Msg("membership changed")

Per-user log context goes through WithUserID so every failure can be traced
back to the affected user.
*/
package log
