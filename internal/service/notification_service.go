package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/events"
)

// NotificationService fans dispatched ticket events out to the log and to an
// optional forwarding sink such as the Redis channel.
type NotificationService struct {
	dispatcher events.Dispatcher
	forward    events.EventHandler
	logger     *zap.Logger
	cfg        config.EventsConfig
}

// NewNotificationService creates the service. forward may be nil.
func NewNotificationService(dispatcher events.Dispatcher, forward events.EventHandler, logger *zap.Logger, cfg config.EventsConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		forward:    forward,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	if n.cfg.LogEvents {
		n.dispatcher.Subscribe(events.EventTicketCreated, n.logEvent("TicketCreated"))
		n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.logEvent("TicketStatusChanged"))
		n.dispatcher.Subscribe(events.EventTicketPriorityChanged, n.logEvent("TicketPriorityChanged"))
		n.dispatcher.Subscribe(events.EventTicketAssigned, n.logEvent("TicketAssigned"))
		n.dispatcher.Subscribe(events.EventTicketMessageAdded, n.logEvent("TicketMessageAdded"))
	}
	if n.forward != nil {
		for _, t := range events.AllEventTypes {
			n.dispatcher.Subscribe(t, n.forward)
		}
	}
}

func (n *NotificationService) logEvent(name string) events.EventHandler {
	return func(_ context.Context, event events.Event) error {
		n.logger.Info(name,
			zap.String("event_id", event.ID),
			zap.Int64("ticket_id", event.TicketID),
			zap.String("actor_role", string(event.Actor.Role)),
			zap.Any("payload", event.Payload))
		return nil
	}
}
