package memory

import (
	"context"
	"sync"

	id "boxoffice/pkg/domain"
	audit "boxoffice/pkg/platform/audit"
)

// InMemoryStore keeps the full event log plus positions per show so lookups
// by show do not scan the log.
type InMemoryStore struct {
	mu     sync.RWMutex
	log    []audit.Event
	byShow map[id.ShowID][]int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byShow: make(map[id.ShowID][]int)}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if event.ShowID != 0 {
		s.byShow[event.ShowID] = append(s.byShow[event.ShowID], len(s.log))
	}
	s.log = append(s.log, event)
	return nil
}

// ListByShow returns events touching showID in append order.
func (s *InMemoryStore) ListByShow(_ context.Context, showID id.ShowID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	positions := s.byShow[showID]
	out := make([]audit.Event, 0, len(positions))
	for _, p := range positions {
		out = append(out, s.log[p])
	}
	return out, nil
}

// ListAll returns every event in append order.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event(nil), s.log...), nil
}
