package cache

import (
	"sync"
	"time"
)

type item struct {
	data      []byte
	expiredAt time.Time
}

// Cache is an in-process TTL cache for serialized values.
// It backs the entitlement cache when no Redis is configured.
type Cache struct {
	store map[string]item
	lock  *sync.RWMutex
}

func New() *Cache {
	return &Cache{
		store: map[string]item{},
		lock:  &sync.RWMutex{},
	}
}

func (c *Cache) Get(key string) ([]byte, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	entry, ok := c.store[key]
	if !ok {
		return nil, false
	}

	if c.now().After(entry.expiredAt) {
		return nil, false
	}

	return entry.data, true
}

func (c *Cache) Set(key string, data []byte, lifeTime time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.store[key] = item{
		data:      data,
		expiredAt: c.now().Add(lifeTime),
	}
}

func (c *Cache) Delete(key string) {
	c.lock.Lock()
	defer c.lock.Unlock()

	delete(c.store, key)
}

func (c *Cache) now() time.Time {
	return time.Now()
}
