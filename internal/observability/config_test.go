package observability

import (
	"testing"

	"github.com/smallbiznis/agencydesk/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig(config.Config{Environment: "production", AppVersion: "1.2.3"})

	assert.Equal(t, "agencydesk", cfg.ServiceName)
	assert.Equal(t, "1.2.3", cfg.Version)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "grpc", cfg.OTLPProtocol)
	assert.False(t, cfg.OTLPEnabled)
	assert.False(t, cfg.Debug())
}

func TestLoadConfig_NormalizesTelemetry(t *testing.T) {
	cfg := LoadConfig(config.Config{
		AppName: "agencydesk-api",
		Telemetry: config.TelemetryConfig{
			LogLevel:      "warn",
			OTLPEnabled:   true,
			OTLPEndpoint:  "collector:4318",
			OTLPProtocol:  "http",
			SamplingRatio: 3,
		},
	})

	assert.Equal(t, "agencydesk-api", cfg.ServiceName)
	assert.Equal(t, "http", cfg.OTLPProtocol)
	assert.Equal(t, "collector:4318", cfg.OTLPEndpoint)
	assert.Equal(t, 0.1, cfg.SamplingRatio)

	assert.Equal(t, "grpc", LoadConfig(config.Config{Telemetry: config.TelemetryConfig{OTLPProtocol: "thrift"}}).OTLPProtocol)
}

func TestConfig_DebugInDevelopment(t *testing.T) {
	assert.True(t, Config{Environment: "development"}.Debug())
	assert.True(t, Config{Environment: "production", LogLevel: "debug"}.Debug())
}
