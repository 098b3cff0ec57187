package email

import (
	"context"
	"log/slog"
	"time"
)

// Worker drains the outbox and delivers jobs, retrying transient failures
// with exponential backoff. A job that still fails after MaxAttempts is
// dropped with an error log; the in-app notification remains regardless.
type Worker struct {
	outbox      Outbox
	sender      Sender
	logger      *slog.Logger
	maxAttempts int
	backoffBase time.Duration
}

func NewWorker(outbox Outbox, sender Sender, logger *slog.Logger, maxAttempts int, backoffBase time.Duration) *Worker {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if backoffBase <= 0 {
		backoffBase = time.Second
	}
	return &Worker{
		outbox:      outbox,
		sender:      sender,
		logger:      logger,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		job, err := w.outbox.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.ErrorContext(ctx, "email outbox dequeue failed", "error", err)
			// A broken outbox (or a poison payload) would otherwise make
			// this loop spin.
			select {
			case <-time.After(w.backoffBase):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		w.process(ctx, job)
	}
}

func (w *Worker) process(ctx context.Context, job Job) {
	err := w.sender.Send(ctx, job)
	if err == nil {
		return
	}

	job.Attempts++
	if job.Attempts >= w.maxAttempts {
		w.logger.ErrorContext(ctx, "email delivery abandoned",
			"notification_id", job.NotificationID,
			"recipient", job.RecipientEmail,
			"attempts", job.Attempts,
			"error", err,
		)
		return
	}

	w.logger.WarnContext(ctx, "email delivery failed, retrying",
		"notification_id", job.NotificationID,
		"attempt", job.Attempts,
		"error", err,
	)

	select {
	case <-time.After(w.backoff(job.Attempts)):
	case <-ctx.Done():
		return
	}
	if err := w.outbox.Enqueue(ctx, job); err != nil {
		w.logger.ErrorContext(ctx, "email job requeue failed",
			"notification_id", job.NotificationID,
			"error", err,
		)
	}
}

func (w *Worker) backoff(attempts int) time.Duration {
	d := w.backoffBase
	for i := 1; i < attempts; i++ {
		d *= 2
	}
	return d
}
