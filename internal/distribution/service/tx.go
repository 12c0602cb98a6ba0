package service

import (
	"context"
	"sync"
	"time"

	dErrors "distrack/pkg/domain-errors"
)

// lockKey carries the distribution ID a transaction is scoped to, set by the
// service before entering the runner so in-memory runners can pick a shard.
type lockKey struct{}

var lockKeyCtx = lockKey{}

// withLockScope tags the context with the distribution the operation locks.
func withLockScope(ctx context.Context, distID string) context.Context {
	return context.WithValue(ctx, lockKeyCtx, distID)
}

// numTxShards spreads in-memory transaction locks so unrelated distributions
// do not contend. Distributions are independently concurrent; only
// operations on the same distribution serialize.
const numTxShards = 64

// defaultTxTimeout bounds a workflow transaction.
const defaultTxTimeout = 5 * time.Second

// InMemoryTx provides the transactional boundary for the in-memory stores:
// a sharded mutex keyed by distribution ID. It gives tests and local dev the
// same serialization guarantee the Postgres runner gets from row versioning.
type InMemoryTx struct {
	shards  [numTxShards]sync.Mutex
	timeout time.Duration
}

func NewInMemoryTx() *InMemoryTx {
	return &InMemoryTx{}
}

func (t *InMemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := t.selectShard(ctx)
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx)
}

func (t *InMemoryTx) selectShard(ctx context.Context) int {
	if key, ok := ctx.Value(lockKeyCtx).(string); ok && key != "" {
		return int(hashString(key) % numTxShards)
	}
	return 0
}

// hashString uses FNV-1a for shard distribution.
func hashString(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
