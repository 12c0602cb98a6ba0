package history

import (
	"context"
	"sort"
	"sync"

	id "distrack/pkg/domain"
)

// InMemoryStore keeps history entries in memory for tests/dev.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *InMemoryStore) Purge(_ context.Context, distID id.DistributionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.DistributionID != distID {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	return nil
}

func (s *InMemoryStore) List(_ context.Context, distID id.DistributionID) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for _, e := range s.entries {
		if e.DistributionID == distID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}
