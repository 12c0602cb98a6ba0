package distribution

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"distrack/internal/document"
	id "distrack/pkg/domain"
	"distrack/pkg/platform/sentinel"
)

// InMemoryStore keeps distributions in memory for tests/dev. It honors the
// same optimistic-version contract as the Postgres store so the state
// machine's conflict handling is exercised without a database.
type InMemoryStore struct {
	mu            sync.RWMutex
	distributions map[id.DistributionID]*Distribution
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{distributions: make(map[id.DistributionID]*Distribution)}
}

func clone(d *Distribution) *Distribution {
	out := *d
	out.Documents = append([]document.Ref(nil), d.Documents...)
	return &out
}

func (s *InMemoryStore) Create(_ context.Context, dist *Distribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.distributions[dist.ID]; ok {
		return fmt.Errorf("distribution %s: %w", dist.ID, sentinel.ErrConflict)
	}
	dist.Version = 1
	s.distributions[dist.ID] = clone(dist)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, distID id.DistributionID) (*Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dist, ok := s.distributions[distID]
	if !ok {
		return nil, fmt.Errorf("distribution %s: %w", distID, sentinel.ErrNotFound)
	}
	return clone(dist), nil
}

func (s *InMemoryStore) List(_ context.Context, filter Filter) ([]*Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Distribution
	for _, dist := range s.distributions {
		if filter.Status != nil && dist.Status != *filter.Status {
			continue
		}
		if filter.Department != nil &&
			dist.OriginID != *filter.Department && dist.DestinationID != *filter.Department {
			continue
		}
		out = append(out, clone(dist))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) Update(_ context.Context, dist *Distribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.distributions[dist.ID]
	if !ok {
		return fmt.Errorf("distribution %s: %w", dist.ID, sentinel.ErrNotFound)
	}
	if current.Version != dist.Version {
		return fmt.Errorf("distribution %s version %d: %w", dist.ID, dist.Version, sentinel.ErrConflict)
	}
	dist.Version++
	s.distributions[dist.ID] = clone(dist)
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, distID id.DistributionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.distributions[distID]; !ok {
		return fmt.Errorf("distribution %s: %w", distID, sentinel.ErrNotFound)
	}
	delete(s.distributions, distID)
	return nil
}

// InMemoryTypeStore serves distribution types from memory. Production wires
// the reference-data database instead.
type InMemoryTypeStore struct {
	mu    sync.RWMutex
	types map[id.TypeID]*Type
}

func NewInMemoryTypeStore() *InMemoryTypeStore {
	return &InMemoryTypeStore{types: make(map[id.TypeID]*Type)}
}

func (s *InMemoryTypeStore) Add(t *Type) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *t
	s.types[t.ID] = &copied
}

func (s *InMemoryTypeStore) FindByID(_ context.Context, typeID id.TypeID) (*Type, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.types[typeID]
	if !ok {
		return nil, fmt.Errorf("distribution type %s: %w", typeID, sentinel.ErrNotFound)
	}
	copied := *t
	return &copied, nil
}
