package config

import (
	"fmt"
	"strings"
	"time"
)

// TelemetryConfig enables span export over OTLP/HTTP.
type TelemetryConfig struct {
	Enabled bool         `koanf:"enabled"`
	Traces  TracesConfig `koanf:"traces"`
}

type TracesConfig struct {
	OtlpHttp OtlpHttpConfig `koanf:"otlphttp"`
}

type OtlpHttpConfig struct {
	Endpoint string        `koanf:"endpoint"`
	Insecure bool          `koanf:"insecure"`
	Timeout  time.Duration `koanf:"timeout"`
}

func (c *TelemetryConfig) String() string {
	otlp := c.Traces.OtlpHttp
	return section("Telemetry",
		"enabled", c.Enabled,
		"traces.otlphttp.endpoint", otlp.Endpoint,
		"traces.otlphttp.insecure", otlp.Insecure,
		"traces.otlphttp.timeout", otlp.Timeout,
	)
}

func (c *TelemetryConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Traces.OtlpHttp.Endpoint == "" {
		return fmt.Errorf("OTel endpoint is not configured")
	}
	if strings.Contains(c.Traces.OtlpHttp.Endpoint, "://") {
		return fmt.Errorf("OTel endpoint must be host:port without a scheme: %s", c.Traces.OtlpHttp.Endpoint)
	}
	if c.Traces.OtlpHttp.Timeout <= 0 {
		return fmt.Errorf("telemetry timeout must be greater than 0")
	}

	return nil
}
