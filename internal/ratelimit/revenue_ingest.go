package ratelimit

import (
	"context"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/agencydesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyRevenueIngestAgent = "agencydesk:ratelimit:revenue:"

// RevenueIngestLimiter throttles revenue submissions per agent. A nil or
// disabled limiter allows everything.
type RevenueIngestLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

type Params struct {
	fx.In

	Cfg    config.Config
	Log    *zap.Logger
	Client *redis.Client `optional:"true"`
}

func NewRevenueIngestLimiter(p Params) *RevenueIngestLimiter {
	limitCfg := p.Cfg.RateLimit
	if !limitCfg.Enabled {
		return nil
	}
	if p.Client == nil {
		p.Log.Warn("revenue rate limit enabled without redis, limiter disabled")
		return nil
	}
	if limitCfg.RevenueIngestRate <= 0 || limitCfg.RevenueIngestBurst <= 0 {
		p.Log.Warn("revenue rate limit needs positive rate and burst, limiter disabled")
		return nil
	}
	return &RevenueIngestLimiter{
		bucket: NewTokenBucket(p.Client),
		rate:   limitCfg.RevenueIngestRate,
		burst:  limitCfg.RevenueIngestBurst,
	}
}

func (l *RevenueIngestLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *RevenueIngestLimiter) AllowAgent(ctx context.Context, agentID string) (Result, error) {
	if !l.Enabled() {
		return Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, keyRevenueIngestAgent+strings.TrimSpace(agentID), l.rate, l.burst)
}
