// Package cache provides the two memoization tiers used by the verse
// resolution pipeline: a process-lifetime store and a calendar-day cache
// that models client-resident storage.
package cache

import (
	"sync"
	"time"
)

// Entry wraps a cached value with its insertion time.
type Entry[V any] struct {
	Value      V
	InsertedAt time.Time
}

// Store is a thread-safe cache whose entries live for the process lifetime.
// There is no TTL; re-setting a key is idempotent and last-writer-wins.
type Store[V any] struct {
	mu      sync.RWMutex
	entries map[string]Entry[V]
}

// NewStore creates an empty process-lifetime store.
func NewStore[V any]() *Store[V] {
	return &Store[V]{entries: make(map[string]Entry[V])}
}

// Get retrieves a value from the store.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	return entry.Value, ok
}

// Set stores a value, recording the insertion time.
func (s *Store[V]) Set(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entries == nil {
		s.entries = make(map[string]Entry[V])
	}
	s.entries[key] = Entry[V]{Value: value, InsertedAt: time.Now()}
}

// Len returns the number of entries in the store.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear removes all entries.
func (s *Store[V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry[V])
}

// DayCache models the client-resident cache tier: an entry is valid only
// through local midnight of the calendar day it was inserted. A nil
// *DayCache is a valid always-miss cache, so an absent client-side store
// degrades gracefully.
type DayCache[V any] struct {
	mu      sync.RWMutex
	entries map[string]Entry[V]
	now     func() time.Time
}

// NewDayCache creates an empty day cache.
func NewDayCache[V any]() *DayCache[V] {
	return &DayCache[V]{
		entries: make(map[string]Entry[V]),
		now:     time.Now,
	}
}

// SetClock overrides the cache's notion of "now". Used by tests to
// simulate midnight rollover.
func (c *DayCache[V]) SetClock(now func() time.Time) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Get retrieves a value inserted on the current calendar day.
func (c *DayCache[V]) Get(key string) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if !sameCalendarDay(entry.InsertedAt, c.now()) {
		return zero, false
	}
	return entry.Value, true
}

// Set stores a value stamped with the current time.
func (c *DayCache[V]) Set(key string, value V) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries == nil {
		c.entries = make(map[string]Entry[V])
	}
	c.entries[key] = Entry[V]{Value: value, InsertedAt: c.now()}
}

// sameCalendarDay reports whether two instants fall on the same local
// calendar date.
func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
