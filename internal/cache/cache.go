// Package cache stores rendered simulation responses keyed by a hash of the
// request that produced them.
package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Repository is a byte-oriented response cache.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte) error
}

// Key derives a cache key from a namespace and the request body.
func Key(namespace string, body []byte) string {
	digest := xxhash.New()
	_, _ = digest.WriteString(namespace)
	_, _ = digest.Write([]byte{0})
	_, _ = digest.Write(body)
	return namespace + ":" + strconv.FormatUint(digest.Sum64(), 16)
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryCache is an in-process Repository. A zero ttl keeps entries until
// they are evicted by maxEntries.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	order      []string
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewMemoryCache creates a MemoryCache. maxEntries <= 0 means unbounded.
func NewMemoryCache(ttl time.Duration, maxEntries int) *MemoryCache {
	return &MemoryCache{
		entries:    make(map[string]memoryEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the cached value when present and not expired.
func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !entry.expires.IsZero() && !m.now().Before(entry.expires) {
		delete(m.entries, key)
		return nil, false
	}
	return entry.value, true
}

// Set stores a copy of value, evicting the oldest key when full.
func (m *MemoryCache) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := memoryEntry{value: append([]byte(nil), value...)}
	if m.ttl > 0 {
		entry.expires = m.now().Add(m.ttl)
	}
	if _, exists := m.entries[key]; !exists {
		m.order = append(m.order, key)
	}
	m.entries[key] = entry

	for m.maxEntries > 0 && len(m.entries) > m.maxEntries && len(m.order) > 0 {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.entries, oldest)
	}
	if len(m.order) > 2*len(m.entries)+16 {
		m.compact()
	}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// compact drops order entries whose keys expired out of the map.
func (m *MemoryCache) compact() {
	kept := m.order[:0]
	seen := make(map[string]bool, len(m.entries))
	for _, key := range m.order {
		if _, ok := m.entries[key]; ok && !seen[key] {
			seen[key] = true
			kept = append(kept, key)
		}
	}
	m.order = kept
}
