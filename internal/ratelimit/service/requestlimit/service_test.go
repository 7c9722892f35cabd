package requestlimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"azadi/internal/ratelimit/config"
	"azadi/internal/ratelimit/metrics"
	"azadi/internal/ratelimit/models"
	"azadi/internal/ratelimit/store/bucket"
	dErrors "azadi/pkg/domain-errors"
)

type failingBuckets struct{}

func (failingBuckets) Allow(context.Context, string, int, time.Duration) (*models.RateLimitResult, error) {
	return nil, errors.New("store down")
}

func TestCheckIP(t *testing.T) {
	cfg := &config.Config{IPLimits: map[models.EndpointClass]config.Limit{
		models.ClassPublicWrite: {RequestsPerWindow: 2, Window: time.Minute},
	}}
	m := metrics.New(prometheus.NewRegistry())
	svc, err := New(bucket.NewInMemoryBucketStore(), WithConfig(cfg), WithMetrics(m))
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("limit applies per IP", func(t *testing.T) {
		for range 2 {
			res, err := svc.CheckIP(ctx, "203.0.113.7", models.ClassPublicWrite)
			require.NoError(t, err)
			assert.True(t, res.Allowed)
		}
		res, err := svc.CheckIP(ctx, "203.0.113.7", models.ClassPublicWrite)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.InDelta(t, 1, testutil.ToFloat64(m.RequestsRejected.WithLabelValues("public_write")), 0)

		res, err = svc.CheckIP(ctx, "198.51.100.1", models.ClassPublicWrite)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("unconfigured class is denied", func(t *testing.T) {
		res, err := svc.CheckIP(ctx, "203.0.113.7", models.ClassAuth)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Equal(t, 60, res.RetryAfter)
	})

	t.Run("store errors are internal", func(t *testing.T) {
		broken, err := New(failingBuckets{}, WithConfig(cfg))
		require.NoError(t, err)
		_, err = broken.CheckIP(ctx, "203.0.113.7", models.ClassPublicWrite)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})
}
