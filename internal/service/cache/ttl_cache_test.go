package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.SetBytes(ctx, "k", []byte("v"), time.Minute))
	b, ok, err := c.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), b)

	now = now.Add(2 * time.Minute)
	_, ok, _ = c.GetBytes(ctx, "k")
	assert.False(t, ok)
}

func TestTTLCacheLock(t *testing.T) {
	c := NewTTLCache()
	ctx := context.Background()

	ok, err := c.TryLock(ctx, "daily", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = c.TryLock(ctx, "daily", time.Minute)
	assert.False(t, ok, "second holder must be refused")

	require.NoError(t, c.Unlock(ctx, "daily"))
	ok, _ = c.TryLock(ctx, "daily", time.Minute)
	assert.True(t, ok)
}
