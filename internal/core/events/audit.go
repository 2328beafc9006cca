package events

import (
	"context"
	"log/slog"
)

// AuditHandler writes every event to the audit log. Admin overrides and
// deletions are logged at warn level.
func AuditHandler(logger *slog.Logger) Handler {
	audit := logger.With("component", "audit")
	return func(ctx context.Context, event Event) error {
		level := slog.LevelInfo
		switch event.EventType() {
		case EventTypeThanksOverridden, EventTypeThanksDeleted, EventTypeUserDeleted:
			level = slog.LevelWarn
		}
		audit.Log(ctx, level, "domain event",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"occurred_at", event.OccurredAt(),
			"payload", event.Payload())
		return nil
	}
}
