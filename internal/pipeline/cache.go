package pipeline

import (
	"sync"

	"github.com/couchcryptid/landlord-risk-etl/internal/domain"
)

// resolveCache is a thread-safe LRU of address resolutions. It lives for one
// run because the address index it memoizes is rebuilt every run.
type resolveCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.Match
	prev  *entry
	next  *entry
}

// newResolveCache returns a cache holding up to maxEntries matches. A
// non-positive size disables caching.
func newResolveCache(maxEntries int) *resolveCache {
	return &resolveCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func cacheKey(address, district string) string {
	return address + "\x1f" + district
}

func (c *resolveCache) get(key string) (domain.Match, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.Match{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *resolveCache) put(key string, value domain.Match) {
	if c.maxEntries <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *resolveCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *resolveCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *resolveCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *resolveCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *resolveCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
