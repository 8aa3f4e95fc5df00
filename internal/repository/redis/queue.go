package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/arklim/campus-clock/internal/core/port"
)

const defaultQueuePrefix = "clock:attempt_queue"

// popDueScript atomically removes and returns the members whose score
// (due time) is at or before the supplied timestamp.
var popDueScript = red.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, ARGV[2])
if #due > 0 then
  redis.call('ZREM', KEYS[1], unpack(due))
end
return due
`)

// AttemptQueue is a delayed execution queue on a Redis sorted set,
// scored by due time.
type AttemptQueue struct {
	client *red.Client
	key    string
}

// NewAttemptQueue constructs the delayed attempt queue.
func NewAttemptQueue(client *red.Client, keyPrefix string) *AttemptQueue {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultQueuePrefix
	}

	return &AttemptQueue{client: client, key: prefix}
}

// Enqueue registers an attempt for execution no earlier than due.
// Re-enqueueing the same attempt updates its due time.
func (q *AttemptQueue) Enqueue(ctx context.Context, attemptID string, due time.Time) error {
	if strings.TrimSpace(attemptID) == "" {
		return fmt.Errorf("attempt id is required")
	}

	member := red.Z{
		Score:  float64(due.Unix()),
		Member: attemptID,
	}

	if err := q.client.ZAdd(ctx, q.key, member).Err(); err != nil {
		return fmt.Errorf("redis enqueue attempt: %w", err)
	}
	return nil
}

// PopDue atomically removes and returns up to limit attempts due at or
// before now. Safe for concurrent pollers: each attempt is delivered to
// exactly one caller.
func (q *AttemptQueue) PopDue(ctx context.Context, now time.Time, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 1
	}

	result, err := popDueScript.Run(ctx, q.client,
		[]string{q.key},
		strconv.FormatInt(now.Unix(), 10),
		strconv.Itoa(limit),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("redis pop due attempts: %w", err)
	}

	raw, ok := result.([]any)
	if !ok {
		return nil, fmt.Errorf("redis pop due attempts: unexpected reply type %T", result)
	}

	ids := make([]string, 0, len(raw))
	for _, entry := range raw {
		id, ok := entry.(string)
		if !ok {
			return nil, fmt.Errorf("redis pop due attempts: unexpected member type %T", entry)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// Size returns the number of queued attempts.
func (q *AttemptQueue) Size(ctx context.Context) (int64, error) {
	size, err := q.client.ZCard(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis queue size: %w", err)
	}
	return size, nil
}

var _ port.AttemptQueue = (*AttemptQueue)(nil)
