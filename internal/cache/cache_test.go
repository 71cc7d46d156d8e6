package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoresCopies(t *testing.T) {
	ctx := context.Background()
	current := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	c := NewLocal(time.Minute, 4, func() time.Time { return current })

	original := []byte("summary")
	require.NoError(t, c.Set(ctx, "key", original))
	original[0] = 'X'

	cached, ok, err := c.Get(ctx, "key")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "summary", string(cached))

	cached[0] = 'Y'
	again, ok, err := c.Get(ctx, "key")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "summary", string(again))
}

func TestLocalExpiresEntries(t *testing.T) {
	ctx := context.Background()
	current := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	c := NewLocal(time.Second, 4, func() time.Time { return current })

	require.NoError(t, c.Set(ctx, "key", []byte("v")))
	_, ok, _ := c.Get(ctx, "key")
	assert.True(t, ok)

	current = current.Add(2 * time.Second)
	_, ok, _ = c.Get(ctx, "key")
	assert.False(t, ok)
}

func TestLocalEvictsWhenFull(t *testing.T) {
	ctx := context.Background()
	current := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	c := NewLocal(time.Minute, 2, func() time.Time { return current })

	require.NoError(t, c.Set(ctx, "first", []byte("1")))
	current = current.Add(time.Second)
	require.NoError(t, c.Set(ctx, "second", []byte("2")))
	current = current.Add(time.Second)
	require.NoError(t, c.Set(ctx, "third", []byte("3")))

	assert.Equal(t, 2, c.Len())
	_, ok, _ := c.Get(ctx, "first")
	assert.False(t, ok, "the entry closest to expiry is evicted")
	_, ok, _ = c.Get(ctx, "third")
	assert.True(t, ok)
}

func TestLocalInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewLocal(time.Minute, 4, nil)
	require.NoError(t, c.Set(ctx, "key", []byte("v")))
	c.Invalidate()
	_, ok, _ := c.Get(ctx, "key")
	assert.False(t, ok)
}

func newTestRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	r := NewRedis(client, "", ttl)
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

func TestRedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t, time.Minute)

	_, ok, err := r.Get(ctx, "analytics:summary:1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, "analytics:summary:1", []byte(`{"totalCompanies":2}`)))
	value, ok, err := r.Get(ctx, "analytics:summary:1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"totalCompanies":2}`, string(value))

	assert.True(t, mr.Exists(DefaultKeyPrefix+"analytics:summary:1"))
	assert.Equal(t, time.Minute, mr.TTL(DefaultKeyPrefix+"analytics:summary:1"))
}

func TestRedisExpiry(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t, 10*time.Second)

	require.NoError(t, r.Set(ctx, "key", []byte("v")))
	mr.FastForward(11 * time.Second)

	_, ok, err := r.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisReportsServerErrors(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t, time.Minute)
	mr.Close()

	_, _, err := r.Get(ctx, "key")
	assert.Error(t, err)
	assert.Error(t, r.Set(ctx, "key", []byte("v")))
}

func TestDialFailsWithoutServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = Dial(ctx, addr, "", time.Minute)
	assert.Error(t, err)
}
