package dispatchlog

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// keyPrefix namespaces dispatch markers in the shared Redis instance.
const keyPrefix = "escalation:dispatched:"

// DefaultTTL bounds how long a dispatch marker is remembered. Redeliveries
// of the same event arrive within seconds, so a day is generous.
const DefaultTTL = 24 * time.Hour

// RedisLog claims record ids with SETNX so that redelivered events are
// dispatched at most once across daemon restarts and replicas.
type RedisLog struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLog creates a log bound to an open Redis client.
// A non-positive ttl falls back to DefaultTTL.
func NewRedisLog(client *redis.Client, ttl time.Duration) *RedisLog {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &RedisLog{
		client: client,
		ttl:    ttl,
	}
}

// MarkDispatched atomically claims the record id. It returns true for the
// first caller and false for every later one while the marker lives.
func (l *RedisLog) MarkDispatched(ctx context.Context, recordID string) (bool, error) {
	claimed, err := l.client.SetNX(ctx, keyPrefix+recordID, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim dispatch marker: %w", err)
	}

	return claimed, nil
}
