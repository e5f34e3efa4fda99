package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vibast-solutions/ms-go-upi-payments/app/upi"
)

// fakeRedis implements the three commands RedisStore uses over a map.
type fakeRedis struct {
	redis.Cmdable
	keys    map[string]time.Duration
	failing bool
}

func (f *fakeRedis) SetNX(_ context.Context, key string, _ interface{}, ttl time.Duration) *redis.BoolCmd {
	if f.failing {
		return redis.NewBoolResult(false, errors.New("connection refused"))
	}
	if _, ok := f.keys[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.keys[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Exists(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := f.keys[key]; ok {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := f.keys[key]; ok {
			delete(f.keys, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestMemoryStoreLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first, err := store.MarkResolved(ctx, "attempt-1")
	require.NoError(t, err)
	assert.True(t, first)

	again, _ := store.MarkResolved(ctx, "attempt-1")
	assert.False(t, again)

	resolved, _ := store.IsResolved(ctx, "attempt-1")
	assert.True(t, resolved)

	require.NoError(t, store.Reset(ctx, "attempt-1"))
	resolved, _ = store.IsResolved(ctx, "attempt-1")
	assert.False(t, resolved)
}

func TestRedisStoreUsesPrefixedKeysWithTTL(t *testing.T) {
	client := &fakeRedis{keys: map[string]time.Duration{}}
	store := NewRedisStore(client, 30*time.Minute)
	ctx := context.Background()

	first, err := store.MarkResolved(ctx, "attempt-1")
	require.NoError(t, err)
	assert.True(t, first)
	assert.Equal(t, 30*time.Minute, client.keys["upi:resolved:attempt-1"])

	again, err := store.MarkResolved(ctx, "attempt-1")
	require.NoError(t, err)
	assert.False(t, again)

	require.NoError(t, store.Reset(ctx, "attempt-1"))
	resolved, err := store.IsResolved(ctx, "attempt-1")
	require.NoError(t, err)
	assert.False(t, resolved)
}

func TestRedisStoreDefaultTTL(t *testing.T) {
	client := &fakeRedis{keys: map[string]time.Duration{}}
	store := NewRedisStore(client, 0)

	_, err := store.MarkResolved(context.Background(), "attempt-1")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, client.keys["upi:resolved:attempt-1"])
}

func TestDispatcherDeliversWhenStoreFails(t *testing.T) {
	client := &fakeRedis{keys: map[string]time.Duration{}, failing: true}
	d := NewDispatcher(WithStore(NewRedisStore(client, time.Minute)))
	ctx := context.Background()

	delivered := false
	require.NoError(t, d.Register(ctx, "attempt-1", func(context.Context, upi.PaymentResult) error {
		delivered = true
		return nil
	}))

	assert.Equal(t, OutcomeDelivered, d.Dispatch(ctx, upi.PaymentResult{Status: upi.StatusFailed, CorrelationID: "attempt-1"}))
	assert.True(t, delivered)
}
