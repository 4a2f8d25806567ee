package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"complaints-service/internal/domain"
)

// RedisNotificationQueue реализует очередь уведомлений на базе Redis lists.
type RedisNotificationQueue struct {
	client *redis.Client
	key    string
}

var _ domain.NotificationQueue = (*RedisNotificationQueue)(nil)

// NewRedisNotificationQueue создаёт очередь по указанному ключу.
func NewRedisNotificationQueue(client *redis.Client, key string) *RedisNotificationQueue {
	return &RedisNotificationQueue{client: client, key: key}
}

// Enqueue публикует задачу в очередь.
func (q *RedisNotificationQueue) Enqueue(ctx context.Context, job domain.Notification) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("push job: %w", err)
	}
	return nil
}

// Pop блокирующе читает задачу из очереди.
func (q *RedisNotificationQueue) Pop(ctx context.Context) (domain.Notification, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.Notification{}, err
		}

		res, err := q.client.BRPop(ctx, time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return domain.Notification{}, ctx.Err()
				}
				continue
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return domain.Notification{}, err
		}
		if len(res) != 2 {
			return domain.Notification{}, errors.New("redis queue: unexpected response")
		}
		var job domain.Notification
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			return domain.Notification{}, fmt.Errorf("decode job: %w", err)
		}
		return job, nil
	}
}
