package main

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"azadi/internal/admin"
	"azadi/internal/platform/config"
	ratelimitconfig "azadi/internal/ratelimit/config"
	ratelimitmetrics "azadi/internal/ratelimit/metrics"
	ratelimitmw "azadi/internal/ratelimit/middleware"
	"azadi/internal/ratelimit/models"
	authlockoutsvc "azadi/internal/ratelimit/service/authlockout"
	"azadi/internal/ratelimit/service/requestlimit"
	authlockoutstore "azadi/internal/ratelimit/store/authlockout"
	"azadi/internal/ratelimit/store/bucket"
)

// rateLimiting is the per-IP limiter for public writes and login, plus the
// login lockout. lockout is nil when limits are disabled.
type rateLimiting struct {
	middleware *ratelimitmw.Middleware
	lockout    admin.Lockout
}

func newRateLimiting(cfg config.RateLimit, reg prometheus.Registerer, log *slog.Logger) (*rateLimiting, error) {
	m := ratelimitmetrics.New(reg)
	limits := &ratelimitconfig.Config{
		IPLimits: map[models.EndpointClass]ratelimitconfig.Limit{
			models.ClassPublicWrite: {RequestsPerWindow: cfg.DonationsPerIP, Window: cfg.DonationWindow},
			// the lockout does the fine-grained work; this only stops floods
			models.ClassAuth: {RequestsPerWindow: 4 * cfg.LoginAttempts, Window: cfg.LoginWindow},
		},
		AuthLockout: ratelimitconfig.AuthLockoutConfig{
			AttemptsPerWindow: cfg.LoginAttempts,
			WindowDuration:    cfg.LoginWindow,
			HardLockThreshold: cfg.HardLockThreshold,
			HardLockDuration:  cfg.HardLockDuration,
		},
	}

	requests, err := requestlimit.New(bucket.NewInMemoryBucketStore(),
		requestlimit.WithConfig(limits),
		requestlimit.WithLogger(log),
		requestlimit.WithMetrics(m),
	)
	if err != nil {
		return nil, err
	}
	rl := &rateLimiting{middleware: ratelimitmw.New(requests, log, ratelimitmw.WithDisabled(cfg.Disabled))}
	if cfg.Disabled {
		return rl, nil
	}

	lockout, err := authlockoutsvc.New(authlockoutstore.New(cfg.LoginWindow),
		authlockoutsvc.WithConfig(limits.AuthLockout),
		authlockoutsvc.WithLogger(log),
		authlockoutsvc.WithMetrics(m),
	)
	if err != nil {
		return nil, err
	}
	rl.lockout = lockout
	return rl, nil
}

// adminOptions adds the login lockout when one is configured.
func (rl *rateLimiting) adminOptions(opts ...admin.Option) []admin.Option {
	if rl.lockout != nil {
		opts = append(opts, admin.WithLockout(rl.lockout))
	}
	return opts
}
