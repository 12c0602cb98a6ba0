//go:build integration

package numbering

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/sync/errgroup"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	addr, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(addr)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	require.NoError(t, client.Ping(ctx).Err())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisAllocatorSequences(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	alloc := NewRedisAllocator(newRedisClient(t))

	first, err := alloc.Next(ctx, "U", "08.2026")
	require.NoError(t, err)
	second, err := alloc.Next(ctx, "U", "08.2026")
	require.NoError(t, err)
	other, err := alloc.Next(ctx, "P", "08.2026")
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
	assert.Equal(t, int64(1), other)
}

// TestRedisAllocatorConcurrency verifies INCR keeps sequences unique across
// concurrent allocators, which is what makes numbers safe across instances.
func TestRedisAllocatorConcurrency(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	alloc := NewRedisAllocator(newRedisClient(t))

	const n = 50
	results := make(chan int64, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			seq, err := alloc.Next(ctx, "U", "08.2026")
			if err != nil {
				return err
			}
			results <- seq
			return nil
		})
	}
	require.NoError(t, g.Wait())
	close(results)

	seen := make(map[int64]bool, n)
	for seq := range results {
		assert.False(t, seen[seq], "sequence %d allocated twice", seq)
		seen[seq] = true
	}
	assert.Len(t, seen, n)
}
