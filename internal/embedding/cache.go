package embedding

import (
	"container/list"
	"sync"
)

// Cache is an LRU cache for embeddings. Keys are namespaced by the caller
// (e.g. "text:" + query, "image:" + path) so text and image entries never
// collide.
type Cache struct {
	capacity int
	entries  map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type cacheEntry struct {
	key   string
	value []float32
}

// NewCache creates a cache holding at most capacity embeddings.
func NewCache(capacity int) *Cache {
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns the cached embedding for key if present and marks it
// recently used.
func (c *Cache) Get(key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*cacheEntry).value, true
	}
	return nil, false
}

// Set stores the embedding for key, evicting the least recently used entry
// when at capacity.
func (c *Cache) Set(key string, value []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).value = value
		return
	}

	elem := c.lru.PushFront(&cacheEntry{key: key, value: value})
	c.entries[key] = elem

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Len returns the number of cached embeddings.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
