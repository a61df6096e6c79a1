package events

import (
	"github.com/rs/zerolog"
)

// Dispatcher receives events for delivery to the messaging front-end. The
// front-end itself (message formatting, keyboards, transport) lives outside
// this process; implementations adapt events to whatever it speaks.
type Dispatcher interface {
	Dispatch(event *Event)
}

// Attach subscribes a dispatcher to the broker and pumps events to it until
// the broker stops. Dispatch runs on the pump goroutine, so implementations
// should not block for long.
func (b *Broker) Attach(d Dispatcher) {
	sub := b.Subscribe()
	go func() {
		for {
			select {
			case event := <-sub:
				if event != nil {
					d.Dispatch(event)
				}
			case <-b.stopCh:
				return
			}
		}
	}()
}

// LogDispatcher writes events to the log. It is the default dispatcher so
// transitions and outcomes stay observable when no front-end is attached.
type LogDispatcher struct {
	logger zerolog.Logger
}

// NewLogDispatcher creates a dispatcher backed by the given logger.
func NewLogDispatcher(logger zerolog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

// Dispatch logs the event with its user id and type.
func (d *LogDispatcher) Dispatch(event *Event) {
	ev := d.logger.Info().
		Str("event_id", event.ID).
		Str("type", string(event.Type)).
		Int64("user_id", int64(event.UserID))

	if event.Outcome != nil && event.Outcome.Reason != "" {
		ev = ev.Str("reason", event.Outcome.Reason)
	}

	ev.Msg("event dispatched")
}
