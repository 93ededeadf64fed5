package episode

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store with in-process storage.
// Useful for testing and short-lived runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
	closed  atomic.Bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory episode store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append stores a record.
func (s *MemoryStore) Append(_ context.Context, rec Record) (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}

	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return rec.ID, nil
}

// ByTree returns all records of one tree in append order.
func (s *MemoryStore) ByTree(_ context.Context, treeID string) ([]Record, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for _, rec := range s.records {
		if rec.TreeID == treeID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Search matches records whose event, kind, path or message contain
// every query term, most recent first.
func (s *MemoryStore) Search(_ context.Context, query string, limit int) ([]Record, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 10
	}

	terms := strings.Fields(strings.ToLower(query))

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for _, rec := range s.records {
		if matchesAll(rec, terms) {
			out = append(out, rec)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close releases the store.
func (s *MemoryStore) Close() error {
	s.closed.Store(true)
	return nil
}

func matchesAll(rec Record, terms []string) bool {
	haystack := strings.ToLower(rec.Event + " " + rec.Kind + " " + rec.Path + " " + rec.Message)
	for _, term := range terms {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return len(terms) > 0
}
