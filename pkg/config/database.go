package config

import (
	"fmt"
	"strings"
	"time"
)

// Store drivers understood by DatabaseConfig.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DatabaseConfig selects the product store. An empty driver means postgres.
type DatabaseConfig struct {
	Driver  string        `koanf:"driver"`
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

// String masks the credentials in URL.
func (c *DatabaseConfig) String() string {
	return section("Database", "driver", c.Driver, "url", MaskURL(c.URL), "timeout", c.Timeout)
}

func (c *DatabaseConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = DriverPostgres
	}
	switch c.Driver {
	case DriverMemory:
		return nil
	case DriverPostgres:
	default:
		return fmt.Errorf("unknown database driver: %s", c.Driver)
	}
	if c.URL == "" {
		return fmt.Errorf("database URL is not configured")
	}
	if !isValidPostgresURL(c.URL) {
		return fmt.Errorf("database URL must start with 'postgres://': %s", MaskURL(c.URL))
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("database connect timeout is not configured")
	}
	return nil
}

// isValidPostgresURL checks if the provided URL is a valid PostgreSQL URL
func isValidPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") ||
		strings.HasPrefix(url, "postgresql://")
}

// MaskURL hides the user info part of a connection URL. URLs without user info are returned as is.
func MaskURL(url string) string {
	if url == "" {
		return "<not configured>"
	}
	if i := strings.LastIndex(url, "@"); i >= 0 {
		return "****" + url[i:]
	}
	return url
}
