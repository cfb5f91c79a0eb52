package resilience

import "time"

// CircuitBreakerConfig tunes the breaker guarding one optional dependency.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

// DefaultCircuitBreakerConfig matches the WEBHOOK_CIRCUIT_* defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 5,
		OpenTimeout:      15 * time.Second,
		HalfOpenMaxReq:   2,
	}
}

// CacheCircuitBreakerConfig is used for the Redis leaderboard cache. The
// cache sits on every leaderboard read and has a local fallback, so it trips
// after fewer failures and retries sooner than the webhook.
func CacheCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 3,
		OpenTimeout:      5 * time.Second,
		HalfOpenMaxReq:   1,
	}
}

// WithDefaults fills unset or invalid fields from defaults. Enabled is kept.
func (c CircuitBreakerConfig) WithDefaults(defaults CircuitBreakerConfig) CircuitBreakerConfig {
	if c.FailureThreshold < 1 {
		c.FailureThreshold = defaults.FailureThreshold
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = defaults.OpenTimeout
	}
	if c.HalfOpenMaxReq < 1 {
		c.HalfOpenMaxReq = defaults.HalfOpenMaxReq
	}
	return c
}

// LogFields returns key/value pairs for logging.Logger.
func (c CircuitBreakerConfig) LogFields() []any {
	if !c.Enabled {
		return []any{"circuit_enabled", false}
	}
	return []any{
		"circuit_enabled", true,
		"circuit_failure_threshold", c.FailureThreshold,
		"circuit_open_timeout", c.OpenTimeout.String(),
		"circuit_half_open_max_req", c.HalfOpenMaxReq,
	}
}

func NormalizeCircuitBreakerConfig(cfg CircuitBreakerConfig) CircuitBreakerConfig {
	return cfg.WithDefaults(DefaultCircuitBreakerConfig())
}
