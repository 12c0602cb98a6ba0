package numbering

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, "U0042/08.2026", Format("U", 42, "08.2026"))
	assert.Equal(t, "P0001/01.2027", Format("P", 1, "01.2027"))
	// Sequences past the pad width keep growing instead of truncating.
	assert.Equal(t, "U12345/08.2026", Format("U", 12345, "08.2026"))
}

func TestPeriod(t *testing.T) {
	at := time.Date(2026, time.August, 31, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "08.2026", Period(at, ""))
	assert.Equal(t, "2026-08", Period(at, "2006-01"))
}

func TestInMemoryAllocatorIsolatesCodeAndPeriod(t *testing.T) {
	ctx := context.Background()
	alloc := NewInMemoryAllocator()

	first, err := alloc.Next(ctx, "U", "08.2026")
	require.NoError(t, err)
	second, err := alloc.Next(ctx, "U", "08.2026")
	require.NoError(t, err)
	otherCode, err := alloc.Next(ctx, "P", "08.2026")
	require.NoError(t, err)
	otherPeriod, err := alloc.Next(ctx, "U", "09.2026")
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
	assert.Equal(t, int64(1), otherCode)
	assert.Equal(t, int64(1), otherPeriod)
}

func TestInMemoryAllocatorConcurrentUniqueness(t *testing.T) {
	ctx := context.Background()
	alloc := NewInMemoryAllocator()

	const n = 64
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]bool, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq, err := alloc.Next(ctx, "U", "08.2026")
			assert.NoError(t, err)
			mu.Lock()
			defer mu.Unlock()
			assert.False(t, seen[seq], "sequence %d allocated twice", seq)
			seen[seq] = true
		}()
	}
	wg.Wait()
	assert.Len(t, seen, n)
}
