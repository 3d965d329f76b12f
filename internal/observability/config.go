package observability

import (
	"strings"

	"github.com/smallbiznis/agencydesk/internal/config"
)

const defaultServiceName = "agencydesk"

// Config is the slice of application config the logger, tracer and meter need.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OTLPEnabled   bool
	OTLPEndpoint  string
	OTLPProtocol  string
	SamplingRatio float64
}

func LoadConfig(cfg config.Config) Config {
	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = defaultServiceName
	}
	level := cfg.Telemetry.LogLevel
	if level == "" {
		level = "info"
	}
	protocol := cfg.Telemetry.OTLPProtocol
	if protocol != "http" {
		protocol = "grpc"
	}
	ratio := cfg.Telemetry.SamplingRatio
	if ratio < 0 || ratio > 1 {
		ratio = 0.1
	}

	return Config{
		ServiceName:   serviceName,
		Environment:   strings.TrimSpace(cfg.Environment),
		Version:       strings.TrimSpace(cfg.AppVersion),
		LogLevel:      level,
		LogFormat:     cfg.Telemetry.LogFormat,
		OTLPEnabled:   cfg.Telemetry.OTLPEnabled,
		OTLPEndpoint:  cfg.Telemetry.OTLPEndpoint,
		OTLPProtocol:  protocol,
		SamplingRatio: ratio,
	}
}

// Debug turns on stack traces for errors outside production-like envs.
func (c Config) Debug() bool {
	if c.LogLevel == "debug" {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}
