package config

import (
	"fmt"
	"time"
)

// HTTPConfig configures the REST listener. A zero MaxHeaderBytes keeps the net/http default.
type HTTPConfig struct {
	Port           int `koanf:"port"`
	MaxHeaderBytes int `koanf:"maxHeaderBytes"`
	Timeout        struct {
		Read       time.Duration `koanf:"read"`
		Write      time.Duration `koanf:"write"`
		Idle       time.Duration `koanf:"idle"`
		ReadHeader time.Duration `koanf:"readHeader"`
	} `koanf:"timeout"`
}

func (c *HTTPConfig) String() string {
	return section("HTTP Server",
		"port", c.Port,
		"maxHeaderBytes", c.MaxHeaderBytes,
		"timeout.read", c.Timeout.Read,
		"timeout.write", c.Timeout.Write,
		"timeout.idle", c.Timeout.Idle,
		"timeout.readHeader", c.Timeout.ReadHeader,
	)
}

func (c *HTTPConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid HTTP server port: %d", c.Port)
	}
	if c.MaxHeaderBytes < 0 {
		return fmt.Errorf("invalid HTTP server maxHeaderBytes: %d", c.MaxHeaderBytes)
	}
	timeouts := []struct {
		name string
		d    time.Duration
	}{
		{"read", c.Timeout.Read},
		{"write", c.Timeout.Write},
		{"idle", c.Timeout.Idle},
		{"read header", c.Timeout.ReadHeader},
	}
	for _, t := range timeouts {
		if t.d <= 0 {
			return fmt.Errorf("invalid HTTP server %s timeout: %v", t.name, t.d)
		}
	}
	return nil
}
