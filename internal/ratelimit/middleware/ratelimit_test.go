package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"azadi/internal/ratelimit/models"
	"azadi/pkg/platform/middleware/metadata"
)

type stubLimiter struct {
	result *models.RateLimitResult
	err    error
	ips    []string
}

func (s *stubLimiter) CheckIP(_ context.Context, ip string, _ models.EndpointClass) (*models.RateLimitResult, error) {
	s.ips = append(s.ips, ip)
	return s.result, s.err
}

func serve(m *Middleware, remoteAddr string) *httptest.ResponseRecorder {
	h := metadata.ClientMetadata(m.RateLimit(models.ClassPublicWrite)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})))
	req := httptest.NewRequest(http.MethodPost, "/api/donations", nil)
	req.RemoteAddr = remoteAddr
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRateLimit(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reset := time.Unix(1718452800, 0)

	t.Run("allowed request carries limit headers", func(t *testing.T) {
		limiter := &stubLimiter{result: &models.RateLimitResult{Allowed: true, Limit: 10, Remaining: 9, ResetAt: reset}}
		rr := serve(New(limiter, logger), "203.0.113.7:5555")

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "10", rr.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "9", rr.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, "1718452800", rr.Header().Get("X-RateLimit-Reset"))
		assert.Equal(t, []string{"203.0.113.7"}, limiter.ips)
	})

	t.Run("denied request gets 429", func(t *testing.T) {
		limiter := &stubLimiter{result: &models.RateLimitResult{Allowed: false, Limit: 10, ResetAt: reset, RetryAfter: 42}}
		rr := serve(New(limiter, logger), "203.0.113.7:5555")

		require.Equal(t, http.StatusTooManyRequests, rr.Code)
		assert.Equal(t, "42", rr.Header().Get("Retry-After"))
		var body models.RateLimitExceededResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		assert.Equal(t, "rate_limit_exceeded", body.Error)
		assert.Equal(t, 42, body.RetryAfter)
	})

	t.Run("limiter errors fail open", func(t *testing.T) {
		limiter := &stubLimiter{err: errors.New("store down")}
		rr := serve(New(limiter, logger), "203.0.113.7:5555")
		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("disabled skips the limiter", func(t *testing.T) {
		limiter := &stubLimiter{result: &models.RateLimitResult{Allowed: false}}
		rr := serve(New(limiter, logger, WithDisabled(true)), "203.0.113.7:5555")
		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Empty(t, limiter.ips)
	})
}
