package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultQueueKey = "bidhall:email:outbox"

// RedisOutbox stores jobs in a Redis list so multiple server instances share
// one email queue and jobs survive process restarts.
type RedisOutbox struct {
	client *redis.Client
	key    string
}

func NewRedisOutbox(client *redis.Client) *RedisOutbox {
	return &RedisOutbox{client: client, key: defaultQueueKey}
}

func (o *RedisOutbox) Enqueue(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal email job: %w", err)
	}
	if err := o.client.LPush(ctx, o.key, payload).Err(); err != nil {
		return fmt.Errorf("push email job: %w", err)
	}
	return nil
}

// Dequeue blocks on BRPOP in short intervals so context cancellation is
// honoured within a second.
func (o *RedisOutbox) Dequeue(ctx context.Context) (Job, error) {
	for {
		vals, err := o.client.BRPop(ctx, time.Second, o.key).Result()
		if errors.Is(err, redis.Nil) {
			if ctx.Err() != nil {
				return Job{}, ctx.Err()
			}
			continue
		}
		if err != nil {
			return Job{}, fmt.Errorf("pop email job: %w", err)
		}
		var job Job
		if err := json.Unmarshal([]byte(vals[1]), &job); err != nil {
			return Job{}, fmt.Errorf("unmarshal email job: %w", err)
		}
		return job, nil
	}
}
