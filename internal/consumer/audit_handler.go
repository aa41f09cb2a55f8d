package consumer

import (
	"context"

	"go.uber.org/zap"
)

// AuditHandler writes one structured log line per roster event.
type AuditHandler struct {
	logger *zap.Logger
}

// NewAuditHandler constructs an AuditHandler.
func NewAuditHandler(logger *zap.Logger) *AuditHandler {
	return &AuditHandler{logger: logger}
}

// Handle implements Handler.
func (h *AuditHandler) Handle(_ context.Context, msg Message) error {
	h.logger.Info("roster changed",
		zap.String("event_id", msg.Event.EventID),
		zap.String("activity", msg.Event.Activity),
		zap.String("email", msg.Event.Email),
		zap.String("action", string(msg.Event.Action)),
		zap.Int("roster_size", msg.Event.RosterSize),
		zap.Time("occurred_at", msg.Event.OccurredAt),
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset),
	)
	return nil
}
