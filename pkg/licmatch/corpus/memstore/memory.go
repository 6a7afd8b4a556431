package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cognicore/licmatch/pkg/licmatch/corpus"
	"github.com/cognicore/licmatch/pkg/licmatch/internalerr"
)

// Store is an in-memory implementation of corpus.Store for tests and
// one-shot runs.
type Store struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

var _ corpus.Store = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{entries: make(map[string][]byte)}
}

// FromTexts builds a store from canonical texts, compressing each one.
func FromTexts(texts map[string]string) (*Store, error) {
	s := New()
	for id, text := range texts {
		data, err := corpus.Compress(text)
		if err != nil {
			return nil, fmt.Errorf("compress %s: %w", id, err)
		}
		s.entries[id] = data
	}
	return s, nil
}

// Close implements corpus.Store.
func (s *Store) Close() error { return nil }

// Get returns a copy of the stored bytes.
func (s *Store) Get(ctx context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("license %s: %w", id, internalerr.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

// Keys returns all IDs in sorted order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.entries))
	for id := range s.entries {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	return keys, nil
}

// Put inserts or replaces one entry.
func (s *Store) Put(ctx context.Context, id string, compressed []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[id] = append([]byte(nil), compressed...)
	return nil
}

// Replace swaps the whole map.
func (s *Store) Replace(ctx context.Context, entries map[string][]byte) error {
	next := make(map[string][]byte, len(entries))
	for id, data := range entries {
		next[id] = append([]byte(nil), data...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = next
	return nil
}
