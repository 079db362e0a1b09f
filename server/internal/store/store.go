package store

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Entry is a rendered image together with the time it was stored.
type Entry struct {
	Image     []byte
	UpdatedAt time.Time
}

// Store is a thread-safe in-memory image cache keyed by query key.
// A background goroutine (Run) periodically evicts entries that have not
// been refreshed within the configured TTL. When maxEntries is positive the
// store never holds more than that many images.
type Store struct {
	mu         sync.RWMutex
	data       map[string]*Entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time // injectable for deterministic tests
}

// New creates a Store with the given TTL holding at most maxEntries images.
// maxEntries <= 0 leaves the store unbounded.
func New(ttl time.Duration, maxEntries int) *Store {
	return &Store{
		data:       make(map[string]*Entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// TTL returns the configured retention.
func (s *Store) TTL() time.Duration { return s.ttl }

// Put stores or replaces the image for key. If the store is full the oldest
// entry is dropped to make room.
// Callers must not modify img after calling Put.
func (s *Store) Put(key string, img []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; !exists && s.maxEntries > 0 {
		for len(s.data) >= s.maxEntries {
			s.dropOldest()
		}
	}
	s.data[key] = &Entry{
		Image:     img,
		UpdatedAt: s.now(),
	}
}

// Get returns the live Entry for key. Entries older than the TTL that have not
// yet been evicted are reported as missing.
func (s *Store) Get(key string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[key]
	if !ok || !e.UpdatedAt.After(s.now().Add(-s.ttl)) {
		return nil, false
	}
	return e, true
}

// dropOldest removes the entry with the earliest UpdatedAt. Caller holds mu.
func (s *Store) dropOldest() {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for key, e := range s.data {
		if !found || e.UpdatedAt.Before(oldest) {
			oldestKey, oldest, found = key, e.UpdatedAt, true
		}
	}
	if found {
		delete(s.data, oldestKey)
	}
}

// Count returns the total number of entries currently held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Evict removes entries whose UpdatedAt is older than now minus TTL.
// It returns the number of entries removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)
	removed := 0
	for key, e := range s.data {
		if !e.UpdatedAt.After(cutoff) {
			delete(s.data, key)
			removed++
		}
	}
	return removed
}

// Run starts the background TTL eviction loop. It ticks at half the TTL interval
// (minimum 1 second) so entries are evicted promptly. Run blocks until ctx is
// cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted stale images", "count", n)
			}
		}
	}
}
