package cache

import (
	"context"
	"time"
)

// BytesCache stores serialized responses with a TTL.
type BytesCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Locker is a best-effort mutual exclusion primitive keyed by name. TryLock
// returns false without error when another holder owns the key.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// Store is what the HTTP layer needs from a cache backend.
type Store interface {
	BytesCache
	Locker
}
