package notifier

import (
	"context"
	"time"

	"github.com/kunaldev758/chataffy-sub000/internal/pkg/logger"
	"github.com/kunaldev758/chataffy-sub000/pkg/events"

	"github.com/google/uuid"
)

const (
	EventIngestionProgress = "ingestion.progress"
	EventIngestionFailed   = "ingestion.failed"
	EventQuotaExceeded     = "ingestion.quota_exceeded"
)

// Publisher is satisfied by the NATS event publisher.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// ProgressNotifier emits ingestion lifecycle events. Emission is
// fire-and-forget: a broken bus degrades visibility, never ingestion.
type ProgressNotifier interface {
	Emit(tenantId uuid.UUID, eventName string, payload map[string]interface{})
}

type progressNotifier struct {
	publisher Publisher
	logger    logger.ILogger
}

func NewProgressNotifier(publisher Publisher, log logger.ILogger) ProgressNotifier {
	return &progressNotifier{
		publisher: publisher,
		logger:    log,
	}
}

func (n *progressNotifier) Emit(tenantId uuid.UUID, eventName string, payload map[string]interface{}) {
	if payload == nil {
		payload = make(map[string]interface{})
	}
	payload["tenant_id"] = tenantId.String()

	event := events.BaseEvent{
		Type:       eventName,
		Data:       payload,
		OccurredAt: time.Now(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := n.publisher.Publish(ctx, event); err != nil {
			n.logger.Warn("Notifier", "Failed to publish progress event", map[string]interface{}{
				"event":     eventName,
				"tenant_id": tenantId.String(),
				"error":     err.Error(),
			})
		}
	}()
}

// NoopNotifier drops every event. Used when NATS is not configured.
type NoopNotifier struct{}

func (NoopNotifier) Emit(tenantId uuid.UUID, eventName string, payload map[string]interface{}) {}
