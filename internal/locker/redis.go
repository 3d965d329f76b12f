package locker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// Redis is a SETNX lock with token-checked release.
type Redis struct {
	client redis.Cmdable
	script *redis.Script
	log    *zap.Logger

	ttl  time.Duration
	wait time.Duration
}

func NewRedis(client redis.Cmdable, log *zap.Logger, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Redis{
		client: client,
		script: redis.NewScript(releaseScript),
		log:    log.Named("locker.redis"),
		ttl:    ttl,
		wait:   defaultWait,
	}
}

// TryLock makes a single attempt and returns the owner token on success.
func (l *Redis) TryLock(ctx context.Context, key string) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", false, errors.New("lock client not configured")
	}
	if key == "" {
		return "", false, ErrEmptyKey
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (l *Redis) Release(ctx context.Context, key, token string) error {
	if l == nil || l.client == nil || key == "" || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{key}, token).Err()
}

// Acquire polls TryLock until it succeeds, ctx ends or the wait budget runs out.
func (l *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	deadline := time.Now().Add(l.wait)
	ticker := time.NewTicker(pollEvery)
	defer ticker.Stop()

	for {
		token, ok, err := l.TryLock(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				// release must outlive a cancelled request context
				releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := l.Release(releaseCtx, key, token); err != nil {
					l.log.Warn("lock release failed", zap.String("key", key), zap.Error(err))
				}
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, key)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrLockTimeout, key, ctx.Err())
		case <-ticker.C:
		}
	}
}
