package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/agencydesk/internal/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestEvaluate(t *testing.T) {
	ok := evaluate(true, 4.6, 2, 10)
	assert.True(t, ok.Allowed)
	assert.Equal(t, 4, ok.Remaining)
	assert.Equal(t, 10, ok.Limit)
	assert.Zero(t, ok.RetryAfter)

	denied := evaluate(false, 0.5, 2, 10)
	assert.False(t, denied.Allowed)
	assert.Equal(t, 0, denied.Remaining)
	assert.Equal(t, 250*time.Millisecond, denied.RetryAfter)
}

func TestBucketTTL(t *testing.T) {
	assert.Equal(t, 20*time.Second, bucketTTL(1, 10))
	assert.Equal(t, time.Second, bucketTTL(100, 1))
}

func TestScriptValueConversion(t *testing.T) {
	assert.Equal(t, int64(1), toInt(int64(1)))
	assert.Equal(t, int64(0), toInt("1"))
	assert.Equal(t, 2.5, toFloat("2.5"))
	assert.Equal(t, 3.0, toFloat(int64(3)))
	assert.Equal(t, 0.0, toFloat("n/a"))
}

func TestRevenueIngestLimiter_DisabledAllows(t *testing.T) {
	var nilLimiter *RevenueIngestLimiter
	res, err := nilLimiter.AllowAgent(context.Background(), "agent")
	assert.NoError(t, err)
	assert.True(t, res.Allowed)

	cfg := config.Config{RateLimit: config.RateLimitConfig{Enabled: true, RevenueIngestRate: 1, RevenueIngestBurst: 1}}
	limiter := NewRevenueIngestLimiter(Params{Cfg: cfg, Log: zap.NewNop()})
	assert.Nil(t, limiter)
	assert.False(t, limiter.Enabled())
}

func TestTokenBucket_Unconfigured(t *testing.T) {
	var bucket *TokenBucket
	_, err := bucket.Allow(context.Background(), "k", 1, 1)
	assert.Error(t, err)
}
