package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"azadi/pkg/requestcontext"
)

type validatorFunc func(string) (*JWTClaims, error)

func (f validatorFunc) ValidateToken(token string) (*JWTClaims, error) { return f(token) }

func TestRequireAuth(t *testing.T) {
	validator := validatorFunc(func(token string) (*JWTClaims, error) {
		if token == "good" {
			return &JWTClaims{Username: "admin", JTI: "j1"}, nil
		}
		return nil, errors.New("invalid token")
	})
	var user string
	h := RequireAuth(validator, slog.New(slog.NewTextHandler(io.Discard, nil)))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user = requestcontext.AdminUser(r.Context())
		}))

	tests := []struct {
		name   string
		header string
		status int
		user   string
		desc   string
	}{
		{name: "valid token", header: "Bearer good", status: http.StatusOK, user: "admin"},
		{name: "invalid token", header: "Bearer bad", status: http.StatusUnauthorized, desc: "Invalid or expired token"},
		{name: "missing header", status: http.StatusUnauthorized, desc: "Missing or invalid Authorization header"},
		{name: "wrong scheme", header: "Basic good", status: http.StatusUnauthorized, desc: "Missing or invalid Authorization header"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user = ""
			req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.user, user)
			if tt.desc != "" {
				assert.JSONEq(t, `{"error":"unauthorized","error_description":"`+tt.desc+`"}`, rr.Body.String())
			}
		})
	}
}
