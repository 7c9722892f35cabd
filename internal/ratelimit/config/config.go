package config

import (
	"time"

	"azadi/internal/ratelimit/models"
)

type Limit struct {
	RequestsPerWindow int
	Window            time.Duration
}

// AuthLockoutConfig drives login lockouts. FailureCount resets once
// WindowDuration has passed since the last failure.
type AuthLockoutConfig struct {
	AttemptsPerWindow int
	WindowDuration    time.Duration
	HardLockThreshold int
	HardLockDuration  time.Duration
}

// ResetTime is when the failure window opened by lastFailure closes.
func (c AuthLockoutConfig) ResetTime(lastFailure time.Time) time.Time {
	return lastFailure.Add(c.WindowDuration)
}

type Config struct {
	IPLimits    map[models.EndpointClass]Limit
	AuthLockout AuthLockoutConfig
}

func DefaultConfig() *Config {
	return &Config{
		IPLimits: map[models.EndpointClass]Limit{
			models.ClassAuth:        {RequestsPerWindow: 10, Window: time.Minute},
			models.ClassPublicWrite: {RequestsPerWindow: 10, Window: time.Minute},
		},
		AuthLockout: AuthLockoutConfig{
			AttemptsPerWindow: 5,
			WindowDuration:    15 * time.Minute,
			HardLockThreshold: 10,
			HardLockDuration:  15 * time.Minute,
		},
	}
}

// GetIPLimit returns the per-IP limit for class. ok is false when the class
// has none configured.
func (c *Config) GetIPLimit(class models.EndpointClass) (requests int, window time.Duration, ok bool) {
	l, ok := c.IPLimits[class]
	if !ok {
		return 0, 0, false
	}
	return l.RequestsPerWindow, l.Window, true
}
