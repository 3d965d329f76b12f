package locker

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/agencydesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("locker",
	fx.Provide(NewRedisClient),
	fx.Provide(New),
)

// NewRedisClient returns nil when no redis address is configured.
func NewRedisClient(lc fx.Lifecycle, cfg config.Config) *redis.Client {
	if !cfg.Redis.Enabled() {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client
}

type Params struct {
	fx.In

	Cfg    config.Config
	Log    *zap.Logger
	Client *redis.Client `optional:"true"`
}

func New(p Params) Locker {
	if p.Client == nil {
		p.Log.Info("using in-process agent locks")
		return NewLocal()
	}
	p.Log.Info("using redis agent locks", zap.String("addr", p.Cfg.Redis.Addr))
	return NewRedis(p.Client, p.Log, time.Duration(p.Cfg.AgentLockTTLSeconds)*time.Second)
}
