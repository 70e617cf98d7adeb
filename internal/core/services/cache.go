package services

import (
	"container/list"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
)

// QueryCache is a time-bounded LRU memo of retrieval results.
//
// Keys are composite fingerprints of the normalized query plus every filter
// that changes result semantics. The cache is best effort: a miss never
// blocks, and failed retrievals are never cached.
type QueryCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	entries  map[string]*list.Element
	lru      *list.List

	// now is swappable for TTL tests.
	now func() time.Time
}

type queryCacheEntry struct {
	key            string
	passages       []domain.RetrievedPassage
	insertedAt     time.Time
	lastAccessedAt time.Time
}

// NewQueryCache creates a cache with the given capacity and TTL.
// Non-positive values fall back to the configured defaults.
func NewQueryCache(capacity int, ttl time.Duration) *QueryCache {
	if capacity <= 0 {
		capacity = domain.DefaultCacheCapacity
	}
	if ttl <= 0 {
		ttl = domain.DefaultCacheTTL
	}
	return &QueryCache{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string]*list.Element),
		lru:      list.New(),
		now:      time.Now,
	}
}

// ComputeKey builds the cache key for a query and its filters.
// Every semantic filter participates: omitting one would let logically
// distinct queries share an entry.
func (c *QueryCache) ComputeKey(query string, filters domain.RetrievalFilters) string {
	var b strings.Builder
	b.WriteString(normalizeQuery(query))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(filters.Limit))
	b.WriteByte('|')
	b.WriteString(joinSorted(filters.Collections))
	b.WriteByte('|')
	b.WriteString(joinSorted(filters.DocumentIDs))
	b.WriteByte('|')
	b.WriteString(filters.SourceType)
	b.WriteByte('|')
	b.WriteString(strconv.FormatFloat(filters.ScoreThreshold, 'f', -1, 64))
	b.WriteByte('|')
	b.WriteString(strconv.FormatBool(filters.GraphExpansion))
	b.WriteByte('|')
	b.WriteString(strconv.FormatBool(filters.EntityBoost))
	return b.String()
}

// Get returns the cached passages for key, refreshing recency.
// Expired entries are evicted and reported as a miss.
func (c *QueryCache) Get(key string) ([]domain.RetrievedPassage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	entry := elem.Value.(*queryCacheEntry)
	if c.now().Sub(entry.insertedAt) > c.ttl {
		c.lru.Remove(elem)
		delete(c.entries, key)
		return nil, false
	}

	entry.lastAccessedAt = c.now()
	c.lru.MoveToFront(elem)
	return entry.passages, true
}

// Put stores passages for key, evicting the least recently used entry
// beyond capacity.
func (c *QueryCache) Put(key string, passages []domain.RetrievedPassage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*queryCacheEntry)
		entry.passages = passages
		entry.insertedAt = c.now()
		entry.lastAccessedAt = c.now()
		c.lru.MoveToFront(elem)
		return
	}

	entry := &queryCacheEntry{
		key:            key,
		passages:       passages,
		insertedAt:     c.now(),
		lastAccessedAt: c.now(),
	}
	c.entries[key] = c.lru.PushFront(entry)

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.entries, oldest.Value.(*queryCacheEntry).key)
		}
	}
}

// Clear drops every entry.
func (c *QueryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.lru.Init()
}

// Len returns the number of live entries.
func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// normalizeQuery lowercases and collapses whitespace so that trivially
// different spellings of the same query share a cache entry.
func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// joinSorted renders a string set order-independently.
func joinSorted(values []string) string {
	if len(values) == 0 {
		return ""
	}
	sorted := make([]string, len(values))
	copy(sorted, values)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
