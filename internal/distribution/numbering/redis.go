package numbering

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisAllocator allocates sequences with INCR, which is atomic across
// service instances. Keys never expire: a period's counter must survive the
// whole period, and stale counters are small.
type RedisAllocator struct {
	client *redis.Client
}

func NewRedisAllocator(client *redis.Client) *RedisAllocator {
	return &RedisAllocator{client: client}
}

func sequenceKey(code, period string) string {
	return fmt.Sprintf("distnum:%s:%s", code, period)
}

func (a *RedisAllocator) Next(ctx context.Context, code, period string) (int64, error) {
	seq, err := a.client.Incr(ctx, sequenceKey(code, period)).Result()
	if err != nil {
		return 0, fmt.Errorf("allocate sequence for %s/%s: %w", code, period, err)
	}
	return seq, nil
}
