// Package memo caches impact evaluations keyed by reading and context.
package memo

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/amped/longevity/internal/domain/model"
)

// defaultMaxSize bounds the in-memory cache when no option is given.
const defaultMaxSize = 50_000

// Key identifies a memoized evaluation. Table is the calibration
// fingerprint the value was computed under.
type Key struct {
	Type   model.MetricType
	Value  float64
	Table  string
	Period model.TimePeriod
}

// String renders the key losslessly for use as a map or Redis key.
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(string(k.Type))
	b.WriteByte('|')
	b.WriteString(strconv.FormatFloat(k.Value, 'g', -1, 64))
	b.WriteByte('|')
	b.WriteString(k.Table)
	b.WriteByte('|')
	b.WriteString(string(k.Period))
	return b.String()
}

// Cache stores evaluated impacts. Implementations must be safe for concurrent
// use; a miss or backend failure only costs a recomputation.
type Cache interface {
	Get(ctx context.Context, key Key) (model.ImpactValue, bool)
	Put(ctx context.Context, key Key, v model.ImpactValue)
	Size() int64
}

// node is an entry in the insertion-ordered list.
type node struct {
	key   string
	value model.ImpactValue
	prev  *node
	next  *node
}

// reset clears the node state for reuse
func (n *node) reset() {
	n.key = ""
	n.value = model.ImpactValue{}
	n.prev = nil
	n.next = nil
}

// inMemoryCache implements Cache with a map and an insertion-ordered list.
// For bounded mode (maxSize > 0): evicts the oldest entry and pools nodes.
// For unbounded mode (maxSize <= 0): grows without eviction.
type inMemoryCache struct {
	mu       sync.RWMutex
	entries  map[string]*node
	head     *node // newest
	tail     *node // oldest
	maxSize  int
	size     atomic.Int64
	hits     atomic.Int64
	misses   atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryCache creates an in-memory cache with configuration options.
func NewInMemoryCache(opts ...Option) Cache {
	c := &inMemoryCache{
		maxSize: defaultMaxSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.entries = make(map[string]*node)
	c.nodePool = sync.Pool{
		New: func() interface{} {
			return &node{}
		},
	}

	return c
}

// Get returns the cached impact for key.
func (c *inMemoryCache) Get(_ context.Context, key Key) (model.ImpactValue, bool) {
	c.mu.RLock()
	n, ok := c.entries[key.String()]
	var v model.ImpactValue
	if ok {
		v = n.value
	}
	c.mu.RUnlock()

	if !ok {
		c.misses.Add(1)
		return model.ImpactValue{}, false
	}
	c.hits.Add(1)
	return v, true
}

// Put stores v under key. Existing keys are overwritten in place.
func (c *inMemoryCache) Put(_ context.Context, key Key, v model.ImpactValue) {
	k := key.String()

	c.mu.Lock()
	defer c.mu.Unlock()

	if n, exists := c.entries[k]; exists {
		n.value = v
		return
	}

	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	n := c.nodePool.Get().(*node)
	n.key = k
	n.value = v
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
	c.entries[k] = n
	c.size.Add(1)
}

// evictOldest removes the tail entry.
// Must be called with c.mu.Lock() held.
func (c *inMemoryCache) evictOldest() {
	n := c.tail
	if n == nil {
		return
	}
	c.tail = n.prev
	if c.tail != nil {
		c.tail.next = nil
	} else {
		c.head = nil
	}
	delete(c.entries, n.key)
	n.reset()
	c.nodePool.Put(n)
	c.size.Add(-1)
}

// Size returns the current number of entries.
func (c *inMemoryCache) Size() int64 {
	return c.size.Load()
}

// Stats reports hit and miss counts.
func (c *inMemoryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Stats reports hit and miss counts for caches that track them.
func Stats(c Cache) (hits, misses int64, ok bool) {
	s, ok := c.(interface{ Stats() (int64, int64) })
	if !ok {
		return 0, 0, false
	}
	hits, misses = s.Stats()
	return hits, misses, true
}
