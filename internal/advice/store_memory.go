package advice

import (
	"context"
	"fmt"
	"sync"

	id "distrack/pkg/domain"
	"distrack/pkg/platform/sentinel"
)

// InMemoryStore keeps advices in memory for tests/dev.
type InMemoryStore struct {
	mu      sync.RWMutex
	advices map[string]Advice
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{advices: make(map[string]Advice)}
}

func (s *InMemoryStore) Save(_ context.Context, adv Advice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.advices[adv.DistributionID]; ok {
		// Send happens once; a second snapshot would rewrite history.
		return fmt.Errorf("advice for distribution %s already generated: %w", adv.DistributionID, sentinel.ErrConflict)
	}
	s.advices[adv.DistributionID] = adv
	return nil
}

func (s *InMemoryStore) FindByDistribution(_ context.Context, distID id.DistributionID) (Advice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	adv, ok := s.advices[distID.String()]
	if !ok {
		return Advice{}, fmt.Errorf("advice for distribution %s: %w", distID, sentinel.ErrNotFound)
	}
	return adv, nil
}
