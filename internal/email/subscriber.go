package email

import (
	"context"
	"log/slog"

	"bidhall/internal/events"
	"bidhall/pkg/requestcontext"
)

// Subscribe wires the email path to the event bus: every created notification
// becomes an outbox job. Enqueue is the only work done on the emitter's
// goroutine.
func Subscribe(bus *events.Bus, outbox Outbox, logger *slog.Logger) events.Subscription {
	return bus.On(events.NotificationCreated, func(ctx context.Context, payload any) {
		ev, ok := payload.(events.NotificationCreatedEvent)
		if !ok {
			logger.ErrorContext(ctx, "unexpected payload for notification.created", "payload", payload)
			return
		}
		if ev.RecipientEmail == "" {
			return
		}
		job := Job{
			NotificationID: ev.NotificationID,
			Kind:           ev.Kind,
			RecipientID:    ev.RecipientID,
			RecipientEmail: ev.RecipientEmail,
			TemplateData:   ev.TemplateData,
			EnqueuedAt:     requestcontext.Now(ctx),
		}
		if err := outbox.Enqueue(ctx, job); err != nil {
			logger.ErrorContext(ctx, "email job enqueue failed",
				"notification_id", ev.NotificationID,
				"error", err,
			)
		}
	})
}
