package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DATABASE_TYPE", "REDIS_ADDR", "FISCAL_YEAR", "RATE_LIMIT_ENABLED", "SEED_DEFAULT_PACKS", "SCHEDULER_ENABLED", "SCHEDULER_INTERVAL_SECONDS", "LOG_LEVEL", "OTEL_ENABLED", "OTEL_EXPORTER_OTLP_PROTOCOL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "postgres", cfg.DBType)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 0, cfg.FiscalYear)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.True(t, cfg.SeedDefaultPacks)
	assert.Equal(t, 15, cfg.AgentLockTTLSeconds)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 300, cfg.Scheduler.IntervalSeconds)
	assert.Equal(t, "info", cfg.Telemetry.LogLevel)
	assert.Equal(t, "grpc", cfg.Telemetry.OTLPProtocol)
	assert.False(t, cfg.Telemetry.OTLPEnabled)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "SQLite")
	t.Setenv("REDIS_ADDR", " localhost:6379 ")
	t.Setenv("FISCAL_YEAR", "2026")
	t.Setenv("RATE_LIMIT_ENABLED", "yes")
	t.Setenv("RATE_LIMIT_REVENUE_INGEST_RATE", "0.5")
	t.Setenv("SEED_DEFAULT_PACKS", "off")
	t.Setenv("ENVIRONMENT", "Production")

	cfg := Load()

	assert.Equal(t, "sqlite", cfg.DBType)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 2026, cfg.FiscalYear)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 0.5, cfg.RateLimit.RevenueIngestRate)
	assert.False(t, cfg.SeedDefaultPacks)
	assert.True(t, cfg.IsProduction())
}

func TestGetenvHelpers_FallBackOnGarbage(t *testing.T) {
	t.Setenv("X_INT", "ten")
	t.Setenv("X_BOOL", "maybe")
	t.Setenv("X_FLOAT", "1,5")

	assert.Equal(t, 3, getenvInt("X_INT", 3))
	assert.True(t, getenvBool("X_BOOL", true))
	assert.Equal(t, 1.5, getenvFloat("X_FLOAT", 1.5))
}
