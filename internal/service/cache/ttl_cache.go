package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	v   []byte
	exp time.Time
}

// TTLCache is the in-process Store used when Redis is disabled.
type TTLCache struct {
	mu  sync.Mutex
	m   map[string]entry
	now func() time.Time
}

func NewTTLCache() *TTLCache {
	return &TTLCache{m: make(map[string]entry), now: time.Now}
}

func (c *TTLCache) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok {
		return nil, false
	}
	if !e.exp.IsZero() && c.now().After(e.exp) {
		delete(c.m, key)
		return nil, false
	}
	return e.v, true
}

func (c *TTLCache) set(key string, v []byte, ttl time.Duration) {
	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.m[key] = entry{v: v, exp: exp}
	c.mu.Unlock()
}

func (c *TTLCache) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	b, ok := c.get(key)
	return b, ok, nil
}

func (c *TTLCache) SetBytes(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.set(key, value, ttl)
	return nil
}

func (c *TTLCache) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	lockKey := "lock:" + key
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.m[lockKey]; ok && (e.exp.IsZero() || !c.now().After(e.exp)) {
		return false, nil
	}
	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}
	c.m[lockKey] = entry{v: []byte{1}, exp: exp}
	return true, nil
}

func (c *TTLCache) Unlock(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.m, "lock:"+key)
	c.mu.Unlock()
	return nil
}
