package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"newsdesk/internal/model"

	"github.com/redis/go-redis/v9"
)

const DefaultQueueKey = "queue:notifications"

// ErrQueueEmpty is returned by Pop when nothing arrived within the wait.
var ErrQueueEmpty = errors.New("notification queue empty")

// RedisQueue hands intents over to the dispatcher through a Redis list.
// Deliver pushes on the left, Pop blocks on the right, so order is FIFO.
type RedisQueue struct {
	rdb *redis.Client
	key string
}

var _ Sink = (*RedisQueue)(nil)

func NewRedisQueue(rdb *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = DefaultQueueKey
	}
	return &RedisQueue{rdb: rdb, key: key}
}

func (q *RedisQueue) Deliver(ctx context.Context, intent model.NotificationIntent) error {
	data, err := json.Marshal(intent)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, q.key, data).Err()
}

// Pop waits up to wait for the next intent.
func (q *RedisQueue) Pop(ctx context.Context, wait time.Duration) (*model.NotificationIntent, error) {
	result, err := q.rdb.BRPop(ctx, wait, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrQueueEmpty
	}
	if err != nil {
		return nil, err
	}

	var intent model.NotificationIntent
	if err := json.Unmarshal([]byte(result[1]), &intent); err != nil {
		return nil, fmt.Errorf("decode intent: %w", err)
	}
	return &intent, nil
}

// Len reports how many intents are waiting.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.key).Result()
}
