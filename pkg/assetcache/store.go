package assetcache

import (
	"container/list"
	"context"
	"sync"
)

// Store persists entries by key string. Implementations must be safe for
// concurrent use and must treat saved entries as immutable.
type Store interface {
	// Load returns the entry stored under key, if any.
	Load(ctx context.Context, key string) (*Entry, bool, error)
	// Save stores entry, replacing any previous entry for the same key, then
	// evicts least-recently-inserted entries until at most maxEntries remain.
	// maxEntries <= 0 disables eviction. It returns how many entries were evicted.
	Save(ctx context.Context, entry *Entry, maxEntries int) (int, error)
	Delete(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) error
	Len(ctx context.Context) (int, error)
}

// MemoryStore keeps entries in process, ordered by insertion.
type MemoryStore struct {
	mu      sync.RWMutex
	order   *list.List
	entries map[string]*list.Element
}

// NewMemoryStore constructs an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

func (s *MemoryStore) Load(_ context.Context, key string) (*Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	el, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	return el.Value.(*Entry), true, nil
}

func (s *MemoryStore) Save(_ context.Context, entry *Entry, maxEntries int) (int, error) {
	key := entry.Key.String()
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.entries[key]; ok {
		s.order.Remove(el)
	}
	s.entries[key] = s.order.PushBack(entry)

	evicted := 0
	for maxEntries > 0 && s.order.Len() > maxEntries {
		oldest := s.order.Front()
		s.order.Remove(oldest)
		delete(s.entries, oldest.Value.(*Entry).Key.String())
		evicted++
	}
	return evicted, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.entries[key]
	if !ok {
		return false, nil
	}
	s.order.Remove(el)
	delete(s.entries, key)
	return true, nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order.Init()
	s.entries = make(map[string]*list.Element)
	return nil
}

func (s *MemoryStore) Len(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.order.Len(), nil
}
