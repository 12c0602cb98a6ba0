package numbering

import (
	"context"
	"fmt"
	"sync"
)

// InMemoryAllocator is a process-local allocator for tests/dev.
type InMemoryAllocator struct {
	mu   sync.Mutex
	seqs map[string]int64
}

func NewInMemoryAllocator() *InMemoryAllocator {
	return &InMemoryAllocator{seqs: make(map[string]int64)}
}

func (a *InMemoryAllocator) Next(_ context.Context, code, period string) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := fmt.Sprintf("%s:%s", code, period)
	a.seqs[key]++
	return a.seqs[key], nil
}
