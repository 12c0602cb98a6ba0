package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"distrack/internal/document"
	id "distrack/pkg/domain"
	"distrack/pkg/platform/sentinel"
)

type entryKey struct {
	dist id.DistributionID
	ref  document.Ref
}

// InMemoryStore keeps verification entries in memory for tests/dev.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[entryKey]*Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[entryKey]*Entry)}
}

func (s *InMemoryStore) Ensure(_ context.Context, distID id.DistributionID, ref document.Ref, position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entryKey{dist: distID, ref: ref}
	if _, ok := s.entries[key]; ok {
		return fmt.Errorf("entry for %s already exists: %w", ref, sentinel.ErrConflict)
	}
	s.entries[key] = &Entry{DistributionID: distID, Ref: ref, Position: position}
	return nil
}

func (s *InMemoryStore) Remove(_ context.Context, distID id.DistributionID, ref document.Ref) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entryKey{dist: distID, ref: ref}
	if _, ok := s.entries[key]; !ok {
		return fmt.Errorf("entry for %s: %w", ref, sentinel.ErrNotFound)
	}
	delete(s.entries, key)
	return nil
}

func (s *InMemoryStore) RemoveByDistribution(_ context.Context, distID id.DistributionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.entries {
		if key.dist == distID {
			delete(s.entries, key)
		}
	}
	return nil
}

func (s *InMemoryStore) RecordSide(_ context.Context, distID id.DistributionID, side Side, items []Item, actor id.UserID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole batch before mutating so a partial batch cannot be
	// half-applied.
	for _, item := range items {
		if _, ok := s.entries[entryKey{dist: distID, ref: item.Ref}]; !ok {
			return fmt.Errorf("entry for %s: %w", item.Ref, sentinel.ErrNotFound)
		}
	}

	for _, item := range items {
		entry := s.entries[entryKey{dist: distID, ref: item.Ref}]
		record := SideRecord{
			Verified:   true,
			Status:     item.Status,
			Notes:      item.Notes,
			VerifiedAt: at,
			VerifiedBy: actor,
		}
		switch side {
		case SideSender:
			entry.Sender = record
		case SideReceiver:
			entry.Receiver = record
		}
	}
	return nil
}

func (s *InMemoryStore) ListByDistribution(_ context.Context, distID id.DistributionID) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for key, entry := range s.entries {
		if key.dist == distID {
			out = append(out, *entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}
