package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
)

// AuditHandler receives each decoded audit event
type AuditHandler func(ctx context.Context, event *AuditEvent) error

// ConsumeAudit subscribes to topic and feeds every audit event to handle until
// ctx is cancelled. Undecodable messages are acked and dropped; handler
// failures are nacked for redelivery.
func ConsumeAudit(ctx context.Context, subscriber message.Subscriber, topic string, logger *slog.Logger, handle AuditHandler) error {
	if topic == "" {
		topic = DefaultAuditTopic
	}
	messages, err := subscriber.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	go func() {
		for msg := range messages {
			event, err := DecodeAuditEvent(msg)
			if err != nil {
				logger.Warn("Dropping malformed audit event", "message_id", msg.UUID, "error", err)
				msg.Ack()
				continue
			}
			if err := handle(msg.Context(), event); err != nil {
				logger.Error("Audit handler failed", "entry_id", event.EntryID, "error", err)
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}()

	return nil
}

// LogAuditEvent writes the event to logger; used when no downstream consumer exists
func LogAuditEvent(logger *slog.Logger) AuditHandler {
	return func(ctx context.Context, event *AuditEvent) error {
		logger.InfoContext(ctx, "Audit event",
			"entry_id", event.EntryID,
			"actor_id", event.ActorID,
			"action", event.Action,
			"entity_type", event.EntityType,
			"details", event.Details)
		return nil
	}
}
