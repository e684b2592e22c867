package config

import (
	"fmt"
	"strings"
	"time"
)

// NATSConfig configures the request-reply responder. Subject is the prefix of every
// product subject and Queue groups replicas so each request is answered once.
// Timeout bounds both the dial and the handling of a single request.
type NATSConfig struct {
	Enabled bool          `koanf:"enabled"`
	Url     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
	Subject string        `koanf:"subject"`
	Queue   string        `koanf:"queue"`
}

func (c *NATSConfig) String() string {
	return section("NATS",
		"enabled", c.Enabled,
		"url", MaskURL(c.Url),
		"timeout", c.Timeout,
		"subject", c.Subject,
		"queue", c.Queue,
	)
}

func (c *NATSConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Url == "" {
		return fmt.Errorf("NATS URL is not configured")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("nats dial timeout is not configured")
	}
	if c.Subject == "" || strings.ContainsAny(c.Subject, "*> \t") {
		return fmt.Errorf("NATS subject prefix must be a literal subject: %q", c.Subject)
	}
	return nil
}
