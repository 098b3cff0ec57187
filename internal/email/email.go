// Package email delivers notification emails through a durable outbox. The
// triggering request only enqueues; a background worker drains the outbox and
// retries transient failures, so email trouble never slows down bidding.
package email

import (
	"context"
	"time"

	id "bidhall/pkg/domain"
)

// Job is one pending email delivery. Attempts counts deliveries already
// tried so the worker can back off and eventually give up.
type Job struct {
	NotificationID id.NotificationID `json:"notification_id"`
	Kind           string            `json:"kind"`
	RecipientID    id.UserID         `json:"recipient_id"`
	RecipientEmail string            `json:"recipient_email"`
	TemplateData   map[string]string `json:"template_data,omitempty"`
	Attempts       int               `json:"attempts"`
	EnqueuedAt     time.Time         `json:"enqueued_at"`
}

// Outbox is a FIFO queue of email jobs. Dequeue blocks until a job is
// available or the context is cancelled.
type Outbox interface {
	Enqueue(ctx context.Context, job Job) error
	Dequeue(ctx context.Context) (Job, error)
}

// Sender performs the actual delivery of one email.
type Sender interface {
	Send(ctx context.Context, job Job) error
}
