package config

import (
	"fmt"
	"strings"
)

// MetricsConfig mounts the Prometheus scrape handler on the HTTP router.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

func (c *MetricsConfig) String() string {
	return section("Metrics", "enabled", c.Enabled, "path", c.Path)
}

func (c *MetricsConfig) Validate() error {
	if c.Enabled && !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("metrics path must start with '/': %q", c.Path)
	}
	return nil
}
