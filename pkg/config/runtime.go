package config

import (
	"fmt"
	"log/slog"
	"net"
	"time"
)

// LogConfig selects the minimum level of the JSON logger. Empty means info.
type LogConfig struct {
	Level string `koanf:"level"`
}

func (c *LogConfig) String() string {
	return section("Log", "level", c.Level)
}

// Validate accepts any level slog can parse, such as "warn" or "info+2".
func (c *LogConfig) Validate() error {
	if c.Level == "" {
		return nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return fmt.Errorf("unknown log level: %s", c.Level)
	}
	return nil
}

// PProfConfig exposes net/http/pprof on a separate listener.
type PProfConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

func (c *PProfConfig) String() string {
	return section("PProf", "enabled", c.Enabled, "addr", c.Addr)
}

func (c *PProfConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("pprof addr must be host:port: %q", c.Addr)
	}
	return nil
}

// ShutdownConfig bounds how long each listener may take to drain once a stop signal arrives.
type ShutdownConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

func (c *ShutdownConfig) String() string {
	return section("Shutdown", "timeout", c.Timeout)
}

func (c *ShutdownConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("shutdown timeout is not configured")
	}
	return nil
}
