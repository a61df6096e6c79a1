package membership

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/subgate/subgate/pkg/types"
)

// Oracle is the fail-closed membership query used by the rest of subgate.
// It never errors: an unreachable or misbehaving backend reads as "not a
// member", and the periodic reconciliation sweep is the retry mechanism.
type Oracle interface {
	IsMember(ctx context.Context, userID types.UserID) bool
}

// FailClosed adapts a Checker into an Oracle. Errors are logged with the
// affected user id and swallowed.
type FailClosed struct {
	checker Checker
	logger  zerolog.Logger
}

// NewFailClosed wraps a checker with fail-closed semantics.
func NewFailClosed(checker Checker, logger zerolog.Logger) *FailClosed {
	return &FailClosed{
		checker: checker,
		logger:  logger,
	}
}

// IsMember returns true only when the underlying checker positively confirms
// membership.
func (f *FailClosed) IsMember(ctx context.Context, userID types.UserID) bool {
	member, err := f.checker.Check(ctx, userID)
	if err != nil {
		f.logger.Error().
			Err(err).
			Int64("user_id", int64(userID)).
			Msg("membership check failed, treating as not subscribed")
		return false
	}
	return member
}
