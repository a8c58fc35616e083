package query

import (
	"container/list"
	"sync"
)

type lruEntry struct {
	key   string
	value *Query
}

// Cache interns queries by canonical id so equal queries share one
// filter tree, and with it the memoized flattening. Least recently used
// entries are evicted once size is exceeded.
type Cache struct {
	mu    sync.Mutex
	items map[string]*list.Element
	order *list.List
	size  int
}

func NewCache(size int) *Cache {
	if size < 1 {
		size = 1
	}
	return &Cache{
		items: make(map[string]*list.Element, size),
		order: list.New(),
		size:  size,
	}
}

// Intern returns the cached query equal to q, or caches and returns q.
func (c *Cache) Intern(q *Query) *Query {
	key := q.CanonicalID()
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		cached := elem.Value.(lruEntry).value
		c.order.MoveToBack(elem)
		if cached.Equal(q) {
			return cached
		}
		elem.Value = lruEntry{key: key, value: q}
		return q
	}
	c.items[key] = c.order.PushBack(lruEntry{key: key, value: q})
	if len(c.items) > c.size {
		front := c.order.Front()
		c.order.Remove(front)
		delete(c.items, front.Value.(lruEntry).key)
	}
	return q
}

func (c *Cache) Get(canonicalID string) (*Query, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.items[canonicalID]
	if !ok {
		return nil, false
	}
	c.order.MoveToBack(elem)
	return elem.Value.(lruEntry).value, true
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element, c.size)
	c.order.Init()
}
