package events

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Publisher is the pub/sub capability the forwarder needs; persistence.Redis
// implements it.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) (int64, error)
}

// RedisForwarder relays dispatched events to a pub/sub channel as JSON so
// other processes (notifiers, the UI push gateway) can follow tickets.
type RedisForwarder struct {
	publisher Publisher
	channel   string
	logger    *zap.Logger
}

// NewRedisForwarder builds a forwarder publishing on channel.
func NewRedisForwarder(publisher Publisher, channel string, logger *zap.Logger) *RedisForwarder {
	return &RedisForwarder{publisher: publisher, channel: channel, logger: logger}
}

// Handle is an EventHandler.
func (f *RedisForwarder) Handle(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.Type, err)
	}
	receivers, err := f.publisher.Publish(ctx, f.channel, payload)
	if err != nil {
		f.logger.Warn("event publish failed",
			zap.String("event_type", string(event.Type)),
			zap.Int64("ticket_id", event.TicketID),
			zap.Error(err))
		return fmt.Errorf("publish event %s: %w", event.Type, err)
	}
	f.logger.Debug("event published",
		zap.String("event_type", string(event.Type)),
		zap.String("channel", f.channel),
		zap.Int64("receivers", receivers))
	return nil
}
