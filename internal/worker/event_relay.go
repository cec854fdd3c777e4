package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/events"
)

// EventRelay runs an event handler on a background goroutine so slow sinks
// never hold up the request that raised the event. Events arriving while
// the queue is full are dropped and logged.
type EventRelay struct {
	handle events.EventHandler
	queue  chan events.Event
	logger *zap.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewEventRelay builds a relay buffering up to size events.
func NewEventRelay(handle events.EventHandler, size int, logger *zap.Logger) *EventRelay {
	if size <= 0 {
		size = 256
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventRelay{handle: handle, queue: make(chan events.Event, size), logger: logger}
}

// Enqueue is an EventHandler; it never blocks.
func (r *EventRelay) Enqueue(_ context.Context, event events.Event) error {
	select {
	case r.queue <- event:
	default:
		r.logger.Warn("event relay full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.Int64("ticket_id", event.TicketID))
	}
	return nil
}

// Start drains the queue until Stop is called. ctx is handed to the handler.
func (r *EventRelay) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for event := range r.queue {
			if err := r.handle(ctx, event); err != nil {
				r.logger.Warn("event relay handler failed",
					zap.String("event_id", event.ID),
					zap.String("event_type", string(event.Type)),
					zap.Error(err))
			}
		}
	}()
}

// Stop closes the queue and waits for queued events to drain. Enqueue must
// not be called afterwards.
func (r *EventRelay) Stop() {
	r.stopOnce.Do(func() { close(r.queue) })
	r.wg.Wait()
}
