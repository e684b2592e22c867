package config

import (
	"fmt"
	"time"
)

// ResilienceConfig tunes the retry and circuit breaker interceptors of a gRPC client.
type ResilienceConfig struct {
	Retry          RetryConfig          `koanf:"retry"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuitbreaker"`
}

type RetryConfig struct {
	MaxAttempts    uint          `koanf:"maxattempts"`
	InitialBackoff time.Duration `koanf:"initialbackoff"`
}

type CircuitBreakerConfig struct {
	ConsecutiveFailures uint32        `koanf:"consecutivefailures"`
	ErrorRatePercent    int           `koanf:"errorratepercent"`
	OpenTimeout         time.Duration `koanf:"opentimeout"`
}

func (c *ResilienceConfig) String() string {
	return section("Retry",
		"maxattempts", c.Retry.MaxAttempts,
		"initialbackoff", c.Retry.InitialBackoff,
	) + section("Circuit Breaker",
		"consecutivefailures", c.CircuitBreaker.ConsecutiveFailures,
		"errorratepercent", c.CircuitBreaker.ErrorRatePercent,
		"opentimeout", c.CircuitBreaker.OpenTimeout,
	)
}

// Validate reports problems using the koanf keys of the offending fields.
func (c *ResilienceConfig) Validate() error {
	switch {
	case c.Retry.MaxAttempts == 0:
		return fmt.Errorf("resilience.retry.maxattempts must be greater than 0")
	case c.Retry.InitialBackoff <= 0:
		return fmt.Errorf("resilience.retry.initialbackoff must be greater than 0")
	case c.CircuitBreaker.ConsecutiveFailures == 0:
		return fmt.Errorf("resilience.circuitbreaker.consecutivefailures must be greater than 0")
	case c.CircuitBreaker.ErrorRatePercent < 0 || c.CircuitBreaker.ErrorRatePercent > 100:
		return fmt.Errorf("resilience.circuitbreaker.errorratepercent must be between 0 and 100")
	case c.CircuitBreaker.OpenTimeout <= 0:
		return fmt.Errorf("resilience.circuitbreaker.opentimeout must be greater than 0")
	}
	return nil
}
