package requestlimit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"azadi/internal/ratelimit/config"
	"azadi/internal/ratelimit/metrics"
	"azadi/internal/ratelimit/models"
	dErrors "azadi/pkg/domain-errors"
	"azadi/pkg/requestcontext"
)

type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

type Service struct {
	buckets BucketStore
	logger  *slog.Logger
	config  *config.Config
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(buckets BucketStore, opts ...Option) (*Service, error) {
	if buckets == nil {
		return nil, errors.New("buckets store is required")
	}
	svc := &Service{
		buckets: buckets,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		config:  config.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CheckIP admits one request from ip for class. A class with no configured
// limit is denied.
func (s *Service) CheckIP(ctx context.Context, ip string, class models.EndpointClass) (*models.RateLimitResult, error) {
	requests, window, ok := s.config.GetIPLimit(class)
	if !ok {
		s.logger.WarnContext(ctx, "rate limit not configured, denying", "endpoint_class", class)
		return &models.RateLimitResult{
			Allowed:    false,
			ResetAt:    requestcontext.Now(ctx),
			RetryAfter: 60,
		}, nil
	}

	key := models.NewRateLimitKey(models.KeyPrefixIP, ip, class)
	result, err := s.buckets.Allow(ctx, key.String(), requests, window)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check rate limit")
	}
	if !result.Allowed {
		s.metrics.RecordRejected(string(class))
		s.logger.WarnContext(ctx, "ip rate limit exceeded",
			"client_ip", ip,
			"endpoint_class", class,
			"limit", requests,
			"window_seconds", int(window.Seconds()),
		)
	}
	return result, nil
}
