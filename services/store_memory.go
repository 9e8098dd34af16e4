package services

import (
	"context"
	"sync"
)

// MemoryStore keeps collections as nested maps guarded by one RWMutex.
// Every document crossing the boundary is deep-copied, so the store never
// aliases caller memory.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]interface{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: map[string]map[string]map[string]interface{}{},
	}
}

func (s *MemoryStore) Set(_ context.Context, collection, docID string, data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[collection]
	if !ok {
		col = map[string]map[string]interface{}{}
		s.collections[collection] = col
	}
	col[docID] = copyDocument(data)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, collection, docID string) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][docID]
	if !ok {
		return nil, nil
	}
	return copyDocument(doc), nil
}

// Update merges the given fields into an existing document. Updating a
// missing document creates it, matching Set-with-merge semantics.
func (s *MemoryStore) Update(_ context.Context, collection, docID string, updates map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[collection]
	if !ok {
		col = map[string]map[string]interface{}{}
		s.collections[collection] = col
	}
	doc, ok := col[docID]
	if !ok {
		doc = map[string]interface{}{}
		col[docID] = doc
	}
	for k, v := range copyDocument(updates) {
		doc[k] = v
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, collection, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections[collection], docID)
	return nil
}

func (s *MemoryStore) Query(_ context.Context, collection string, filters []Filter) (map[string]map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]map[string]interface{}{}
	for id, doc := range s.collections[collection] {
		if matchesFilters(doc, filters) {
			out[id] = copyDocument(doc)
		}
	}
	return out, nil
}

func (s *MemoryStore) GetAll(_ context.Context, collection string) (map[string]map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]map[string]interface{}{}
	for id, doc := range s.collections[collection] {
		out[id] = copyDocument(doc)
	}
	return out, nil
}
