package locker

import (
	"context"
	"sync"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/agencydesk/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocal_SerializesSameKey(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(ctx, AgentKey("a"))
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, l.size())
}

func TestLocal_DifferentKeysDoNotBlock(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	releaseA, err := l.Acquire(ctx, "a")
	require.NoError(t, err)
	defer releaseA()

	releaseB, err := l.Acquire(ctx, "b")
	require.NoError(t, err)
	releaseB()
}

func TestLocal_TimesOutWithContext(t *testing.T) {
	l := NewLocal()

	release, err := l.Acquire(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "a")
	assert.ErrorIs(t, err, ErrLockTimeout)

	release()
	release()
	assert.Equal(t, 0, l.size())
}

func TestLocal_RejectsEmptyKey(t *testing.T) {
	_, err := NewLocal().Acquire(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestRedis_UnconfiguredClient(t *testing.T) {
	var l *Redis
	_, _, err := l.TryLock(context.Background(), "a")
	assert.Error(t, err)
	assert.NoError(t, l.Release(context.Background(), "a", "token"))
}

func TestRedis_RejectsEmptyKey(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	l := NewRedis(client, zap.NewNop(), 0)
	_, _, err := l.TryLock(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyKey)
	assert.Equal(t, defaultTTL, l.ttl)
}

func TestNew_FallsBackToLocal(t *testing.T) {
	lk := New(Params{Cfg: config.Config{}, Log: zap.NewNop()})
	_, ok := lk.(*Local)
	assert.True(t, ok)
}
