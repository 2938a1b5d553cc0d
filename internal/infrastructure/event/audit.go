package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/fieldstock/backend/internal/domain/shared"
)

// AuditLogger records every published domain event in the structured log.
// It subscribes to all event types.
type AuditLogger struct {
	logger *zap.Logger
}

// NewAuditLogger creates a new AuditLogger
func NewAuditLogger(logger *zap.Logger) *AuditLogger {
	return &AuditLogger{logger: logger}
}

// Handle logs one domain event
func (h *AuditLogger) Handle(_ context.Context, event shared.DomainEvent) error {
	h.logger.Info("Domain event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	)
	return nil
}

// EventTypes returns nil so the handler receives all events
func (h *AuditLogger) EventTypes() []string {
	return nil
}

var _ shared.EventHandler = (*AuditLogger)(nil)
