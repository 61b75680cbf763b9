package cache

import (
	"context"
	"sync"
	"time"
)

const defaultMemoryCapacity = 256

// MemoryTier is the process-local tier. It is a plain locked map with a
// hard capacity; on overflow the least recently written entry is evicted.
// It exists so a shared-cache outage still leaves the hottest queries
// answerable without a network hop.
type MemoryTier struct {
	mu       sync.RWMutex
	entries  map[string]memoryItem
	capacity int
}

type memoryItem struct {
	entry    *Entry
	storedAt time.Time
}

// NewMemoryTier creates a process-local tier. Capacity values below one
// fall back to the default.
func NewMemoryTier(capacity int) *MemoryTier {
	if capacity < 1 {
		capacity = defaultMemoryCapacity
	}
	return &MemoryTier{
		entries:  make(map[string]memoryItem, capacity),
		capacity: capacity,
	}
}

func (m *MemoryTier) Name() string { return "memory" }

func (m *MemoryTier) Get(ctx context.Context, key string) (*Entry, error) {
	m.mu.RLock()
	item, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return item.entry, nil
}

func (m *MemoryTier) Set(ctx context.Context, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[entry.Key]; !exists && len(m.entries) >= m.capacity {
		m.evictOldestLocked()
	}
	m.entries[entry.Key] = memoryItem{entry: entry, storedAt: time.Now()}
	return nil
}

func (m *MemoryTier) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Len reports the number of resident entries.
func (m *MemoryTier) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryTier) evictOldestLocked() {
	var (
		oldestKey string
		oldestAt  time.Time
	)
	for key, item := range m.entries {
		if oldestKey == "" || item.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = item.storedAt
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}
