package email

import "context"

// MemoryOutbox is a channel-backed outbox for tests and single-process
// deployments.
type MemoryOutbox struct {
	jobs chan Job
}

func NewMemoryOutbox(capacity int) *MemoryOutbox {
	if capacity <= 0 {
		capacity = 256
	}
	return &MemoryOutbox{jobs: make(chan Job, capacity)}
}

func (o *MemoryOutbox) Enqueue(ctx context.Context, job Job) error {
	select {
	case o.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *MemoryOutbox) Dequeue(ctx context.Context) (Job, error) {
	select {
	case job := <-o.jobs:
		return job, nil
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}

// Len reports the number of queued jobs. Test helper.
func (o *MemoryOutbox) Len() int {
	return len(o.jobs)
}
