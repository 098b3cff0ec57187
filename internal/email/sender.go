package email

import (
	"context"
	"log/slog"
)

// LogSender records deliveries in the log instead of talking to a mail
// provider. Used in development and as the default when no provider is
// configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, job Job) error {
	s.logger.InfoContext(ctx, "email delivered",
		"notification_id", job.NotificationID,
		"kind", job.Kind,
		"recipient", job.RecipientEmail,
	)
	return nil
}
