// SPDX-License-Identifier: MIT
package store

import (
	"context"
	"sync"

	"github.com/ManuGH/geoanonymizer/spatial"
)

// MemoryStore keeps mappings in process memory. It is the default backend:
// consistency holds within a run and is discarded afterwards.
type MemoryStore struct {
	mu     sync.RWMutex
	points map[string]spatial.Point
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{points: make(map[string]spatial.Point)}
}

func (s *MemoryStore) Load(_ context.Context, key string) (spatial.Point, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.points[key]
	return p, ok, nil
}

func (s *MemoryStore) Save(_ context.Context, key string, p spatial.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points[key] = p
	return nil
}

// Len returns the number of stored mappings.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
