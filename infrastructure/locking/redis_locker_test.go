package locking

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRedisLocker(t *testing.T, opts RedisOptions) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, opts, zap.NewNop()), mr
}

func TestRedisLocker_AcquireAndRelease(t *testing.T) {
	locker, mr := newTestRedisLocker(t, RedisOptions{})
	ctx := context.Background()

	release, err := locker.Lock(ctx, "graph:1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("pathfinder:lock:graph:1"))

	release()
	assert.False(t, mr.Exists("pathfinder:lock:graph:1"))
}

func TestRedisLocker_Contention(t *testing.T) {
	locker, _ := newTestRedisLocker(t, RedisOptions{WaitTimeout: 50 * time.Millisecond, RetryDelay: 5 * time.Millisecond})
	ctx := context.Background()

	release, err := locker.Lock(ctx, "graph:1")
	require.NoError(t, err)

	_, err = locker.Lock(ctx, "graph:1")
	assert.ErrorIs(t, err, ErrLockTimeout)

	release()
	release2, err := locker.Lock(ctx, "graph:1")
	require.NoError(t, err)
	release2()
}

func TestRedisLocker_WaitsForRelease(t *testing.T) {
	locker, _ := newTestRedisLocker(t, RedisOptions{RetryDelay: 5 * time.Millisecond})
	ctx := context.Background()

	release, err := locker.Lock(ctx, "graph:1")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		r, err := locker.Lock(ctx, "graph:1")
		if err == nil {
			r()
		}
		close(acquired)
	}()

	time.Sleep(30 * time.Millisecond)
	release()

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never acquired the lock")
	}
}

func TestRedisLocker_ContextCancelled(t *testing.T) {
	locker, _ := newTestRedisLocker(t, RedisOptions{RetryDelay: 5 * time.Millisecond})

	release, err := locker.Lock(context.Background(), "graph:1")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "graph:1")
	assert.Error(t, err)
}

func TestRedisLocker_ReleaseKeepsForeignLease(t *testing.T) {
	locker, mr := newTestRedisLocker(t, RedisOptions{})
	ctx := context.Background()

	release, err := locker.Lock(ctx, "graph:1")
	require.NoError(t, err)

	// lease expired and someone else took the key
	require.NoError(t, mr.Set("pathfinder:lock:graph:1", "other-token"))

	release()
	got, err := mr.Get("pathfinder:lock:graph:1")
	require.NoError(t, err)
	assert.Equal(t, "other-token", got)
}
