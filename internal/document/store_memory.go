package document

import (
	"context"
	"sync"

	id "distrack/pkg/domain"
)

// InMemoryStore is a document store fake for tests and local development.
// The production deployment wires the remote document API instead.
type InMemoryStore struct {
	mu   sync.RWMutex
	docs map[Ref]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{docs: make(map[Ref]struct{})}
}

// Add registers a document so later Resolve calls succeed.
func (s *InMemoryStore) Add(kind Kind, docID id.DocumentID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[Ref{Kind: kind, ID: docID}] = struct{}{}
}

func (s *InMemoryStore) Exists(_ context.Context, kind Kind, docID id.DocumentID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.docs[Ref{Kind: kind, ID: docID}]
	return ok, nil
}
