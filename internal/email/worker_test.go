package email

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bidhall/internal/events"
	id "bidhall/pkg/domain"
	"bidhall/pkg/requestcontext"
)

type fakeSender struct {
	mu        sync.Mutex
	calls     []Job
	failFirst int
	delivered chan Job
}

func newFakeSender(failFirst int) *fakeSender {
	return &fakeSender{failFirst: failFirst, delivered: make(chan Job, 16)}
}

func (f *fakeSender) Send(_ context.Context, job Job) error {
	f.mu.Lock()
	f.calls = append(f.calls, job)
	n := len(f.calls)
	f.mu.Unlock()
	if n <= f.failFirst {
		return errors.New("smtp unavailable")
	}
	f.delivered <- job
	return nil
}

func (f *fakeSender) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testJob() Job {
	return Job{
		NotificationID: id.NewNotificationID(),
		Kind:           "OUTBID",
		RecipientID:    id.NewUserID(),
		RecipientEmail: "alice@example.com",
		EnqueuedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestWorkerRetriesUntilSuccess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outbox := NewMemoryOutbox(16)
	sender := newFakeSender(2)
	worker := NewWorker(outbox, sender, discardLogger(), 5, time.Millisecond)

	require.NoError(t, outbox.Enqueue(ctx, testJob()))
	go func() { _ = worker.Run(ctx) }()

	select {
	case job := <-sender.delivered:
		assert.Equal(t, 2, job.Attempts)
		assert.Equal(t, "alice@example.com", job.RecipientEmail)
	case <-time.After(5 * time.Second):
		t.Fatal("job was never delivered")
	}
	assert.Equal(t, 3, sender.callCount())
}

func TestWorkerAbandonsAfterMaxAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outbox := NewMemoryOutbox(16)
	sender := newFakeSender(100)
	worker := NewWorker(outbox, sender, discardLogger(), 3, time.Millisecond)

	require.NoError(t, outbox.Enqueue(ctx, testJob()))
	go func() { _ = worker.Run(ctx) }()

	require.Eventually(t, func() bool {
		return sender.callCount() == 3
	}, 5*time.Second, 5*time.Millisecond)

	// No fourth attempt and nothing left queued.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 3, sender.callCount())
	assert.Equal(t, 0, outbox.Len())
}

type faultyOutbox struct {
	mu    sync.Mutex
	calls int
}

func (f *faultyOutbox) Enqueue(context.Context, Job) error { return nil }

func (f *faultyOutbox) Dequeue(ctx context.Context) (Job, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return Job{}, errors.New("payload is not valid JSON")
}

func (f *faultyOutbox) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestWorkerBacksOffOnDequeueErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	outbox := &faultyOutbox{}
	worker := NewWorker(outbox, newFakeSender(0), discardLogger(), 3, 20*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancellation")
	}

	// Roughly one dequeue per backoff window, not a tight spin.
	assert.LessOrEqual(t, outbox.callCount(), 5)
}

func TestSubscribeEnqueuesCreatedNotifications(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	bus := events.NewBus(discardLogger())
	outbox := NewMemoryOutbox(16)
	unsubscribe := Subscribe(bus, outbox, discardLogger())
	defer unsubscribe()

	notificationID := id.NewNotificationID()
	recipient := id.NewUserID()
	bus.Emit(ctx, events.NotificationCreated, events.NotificationCreatedEvent{
		NotificationID: notificationID,
		Kind:           "AUCTION_WON",
		RecipientID:    recipient,
		RecipientEmail: "winner@example.com",
		TemplateData:   map[string]string{"item_name": "gift basket"},
	})

	require.Equal(t, 1, outbox.Len())
	job, err := outbox.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, notificationID, job.NotificationID)
	assert.Equal(t, "AUCTION_WON", job.Kind)
	assert.Equal(t, recipient, job.RecipientID)
	assert.Equal(t, "winner@example.com", job.RecipientEmail)
	assert.Equal(t, "gift basket", job.TemplateData["item_name"])
	assert.True(t, job.EnqueuedAt.Equal(now))
	assert.Zero(t, job.Attempts)
}

func TestSubscribeSkipsRecipientsWithoutEmail(t *testing.T) {
	bus := events.NewBus(discardLogger())
	outbox := NewMemoryOutbox(16)
	defer Subscribe(bus, outbox, discardLogger())()

	bus.Emit(context.Background(), events.NotificationCreated, events.NotificationCreatedEvent{
		NotificationID: id.NewNotificationID(),
		Kind:           "NEW_ITEM",
		RecipientID:    id.NewUserID(),
	})

	assert.Equal(t, 0, outbox.Len())
}
