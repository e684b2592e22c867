package config

import (
	"fmt"
	"strconv"
	"time"
)

// GrpcServerConfig controls the catalog gRPC listener.
type GrpcServerConfig struct {
	Enabled bool   `koanf:"enabled"`
	Port    string `koanf:"port"`
}

func (c *GrpcServerConfig) String() string {
	return section("gRPC Server", "enabled", c.Enabled, "port", c.Port)
}

func (c *GrpcServerConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Port == "" {
		return fmt.Errorf("gRPC port is not configured")
	}
	if p, err := strconv.Atoi(c.Port); err != nil || p <= 0 || p > 65535 {
		return fmt.Errorf("invalid gRPC port: %q", c.Port)
	}
	return nil
}

// GrpcClientConfig points a caller at the catalog gRPC endpoint.
// Timeout bounds a whole call, retries included.
type GrpcClientConfig struct {
	Addr    string        `koanf:"addr"`
	Timeout time.Duration `koanf:"timeout"`
}

func (c *GrpcClientConfig) String() string {
	return section("gRPC Client", "addr", c.Addr, "timeout", c.Timeout)
}

func (c *GrpcClientConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("gRPC address is not configured")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("gRPC timeout is not configured")
	}
	return nil
}

