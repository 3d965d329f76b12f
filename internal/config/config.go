package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	// FiscalYear overrides the clock-derived year used for catalog lookups.
	FiscalYear int

	Telemetry TelemetryConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Redis     RedisConfig
	RateLimit RateLimitConfig

	// AgentLockTTLSeconds bounds how long a recompute may hold an agent lock.
	AgentLockTTLSeconds int

	PackCatalogPath  string
	SeedDefaultPacks bool

	Scheduler SchedulerConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Enabled            bool
	RevenueIngestRate  float64
	RevenueIngestBurst int
}

// TelemetryConfig selects log output and OTLP export.
type TelemetryConfig struct {
	LogLevel  string
	LogFormat string

	OTLPEnabled  bool
	OTLPEndpoint string
	// OTLPProtocol is grpc or http.
	OTLPProtocol  string
	SamplingRatio float64
}

// SchedulerConfig drives the background recompute sweep.
type SchedulerConfig struct {
	Enabled                    bool
	IntervalSeconds            int
	RecomputeStaleAfterSeconds int
	BatchSize                  int
}

// Enabled reports whether a redis address was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Addr) != ""
}

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewPackConfigHolder),
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:      getenv("APP_SERVICE", "agencydesk"),
		AppVersion:   getenv("APP_VERSION", "0.1.0"),
		Environment:  getenv("ENVIRONMENT", "development"),
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		FiscalYear:   getenvInt("FISCAL_YEAR", 0),

		Telemetry: TelemetryConfig{
			LogLevel:      strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
			LogFormat:     strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),
			OTLPEnabled:   getenvBool("OTEL_ENABLED", false),
			OTLPEndpoint:  strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")),
			OTLPProtocol:  strings.ToLower(strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
			SamplingRatio: getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
		},

		DBType:            strings.ToLower(getenv("DATABASE_TYPE", "postgres")),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "agencydesk"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "agencydesk.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 10),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 50),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),

		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getenvInt("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			Enabled:            getenvBool("RATE_LIMIT_ENABLED", false),
			RevenueIngestRate:  getenvFloat("RATE_LIMIT_REVENUE_INGEST_RATE", 2),
			RevenueIngestBurst: getenvInt("RATE_LIMIT_REVENUE_INGEST_BURST", 20),
		},
		AgentLockTTLSeconds: getenvInt("AGENT_LOCK_TTL_SECONDS", 15),

		PackCatalogPath:  strings.TrimSpace(getenv("PACK_CATALOG_PATH", "")),
		SeedDefaultPacks: getenvBool("SEED_DEFAULT_PACKS", true),

		Scheduler: SchedulerConfig{
			Enabled:                    getenvBool("SCHEDULER_ENABLED", true),
			IntervalSeconds:            getenvInt("SCHEDULER_INTERVAL_SECONDS", 300),
			RecomputeStaleAfterSeconds: getenvInt("SCHEDULER_RECOMPUTE_STALE_AFTER_SECONDS", 3600),
			BatchSize:                  getenvInt("SCHEDULER_BATCH_SIZE", 50),
		},
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
