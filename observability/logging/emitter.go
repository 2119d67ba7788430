package logging

import (
	"log/slog"

	"tolchain/core/events"
	"tolchain/core/types"
)

// eventCarrier is implemented by module event envelopes that expose their
// structured payload.
type eventCarrier interface {
	Event() *types.Event
}

// EventEmitter forwards module events to a structured logger, one line per
// event with the event attributes flattened into log fields.
type EventEmitter struct {
	logger *slog.Logger
}

// NewEventEmitter wraps the logger as an events.Emitter. A nil logger falls
// back to the process default.
func NewEventEmitter(logger *slog.Logger) *EventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventEmitter{logger: logger}
}

// Emit implements events.Emitter.
func (e *EventEmitter) Emit(evt events.Event) {
	if e == nil || evt == nil {
		return
	}
	args := []any{slog.String("event", evt.EventType())}
	if carrier, ok := evt.(eventCarrier); ok {
		if payload := carrier.Event(); payload != nil {
			for k, v := range payload.Attributes {
				args = append(args, slog.String(k, v))
			}
		}
	}
	e.logger.Info("module event", args...)
}
