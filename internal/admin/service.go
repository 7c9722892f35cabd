// Package admin authenticates the single site administrator against the
// credentials stored in AppSettings.
package admin

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"azadi/internal/content/models"
	"azadi/internal/content/store"
	ratelimitmodels "azadi/internal/ratelimit/models"
	dErrors "azadi/pkg/domain-errors"
	"azadi/pkg/platform/secrets"
	"azadi/pkg/requestcontext"
)

const (
	defaultTokenTTL   = 12 * time.Hour
	minPasswordLength = 8
)

type SettingsStore interface {
	Get(ctx context.Context) (models.AppSettings, error)
	Update(ctx context.Context, settings models.AppSettings) error
}

type TokenIssuer interface {
	GenerateAdminToken(username string, expiresIn time.Duration) (string, time.Time, error)
}

// Lockout throttles repeated failed logins per username and client IP.
type Lockout interface {
	Check(ctx context.Context, identifier, ip string) (*ratelimitmodels.AuthRateLimitResult, error)
	RecordFailure(ctx context.Context, identifier, ip string) (*ratelimitmodels.AuthLockout, error)
	Clear(ctx context.Context, identifier, ip string) error
}

// LockedOutError carries how long a locked-out caller must wait.
type LockedOutError struct {
	RetryAfter int
}

func (e *LockedOutError) Error() string {
	return fmt.Sprintf("login locked, retry after %ds", e.RetryAfter)
}

type Service struct {
	settings SettingsStore
	tokens   TokenIssuer
	lockout  Lockout
	ttl      time.Duration
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithLockout(l Lockout) Option {
	return func(s *Service) { s.lockout = l }
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func New(settings SettingsStore, tokens TokenIssuer, opts ...Option) (*Service, error) {
	if settings == nil {
		return nil, errors.New("settings store is required")
	}
	if tokens == nil {
		return nil, errors.New("token issuer is required")
	}
	s := &Service{
		settings: settings,
		tokens:   tokens,
		ttl:      defaultTokenTTL,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Username  string    `json:"username"`
}

// Login verifies the credentials and issues a session token. A stored
// legacy digest is replaced with a bcrypt hash on success. With a lockout
// configured, a caller over its failure budget is refused before any
// credential check.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	ip := requestcontext.ClientIP(ctx)
	if err := s.checkLockout(ctx, username, ip); err != nil {
		return nil, err
	}

	settings, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(settings.AdminUser)) == 1
	verifyErr := secrets.Verify(password, settings.AdminPassHash)
	if verifyErr != nil && !dErrors.HasCode(verifyErr, dErrors.CodeUnauthorized) {
		return nil, verifyErr
	}
	if !userOK || verifyErr != nil {
		s.logger.WarnContext(ctx, "admin login rejected",
			"client_ip", ip,
			"request_id", requestcontext.RequestID(ctx),
		)
		s.recordFailure(ctx, username, ip)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	s.clearFailures(ctx, username, ip)

	if !secrets.IsBcrypt(settings.AdminPassHash) {
		s.upgradeHash(ctx, settings, password)
	}

	token, expiresAt, err := s.tokens.GenerateAdminToken(settings.AdminUser, s.ttl)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	s.logger.InfoContext(ctx, "admin logged in",
		"username", settings.AdminUser,
		"client_ip", ip,
	)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Username: settings.AdminUser}, nil
}

// checkLockout refuses a locked-out caller. Lockout store errors are
// logged and let the attempt through.
func (s *Service) checkLockout(ctx context.Context, username, ip string) error {
	if s.lockout == nil {
		return nil
	}
	res, err := s.lockout.Check(ctx, username, ip)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to check login lockout", "error", err, "client_ip", ip)
		return nil
	}
	if res.Allowed {
		return nil
	}
	s.logger.WarnContext(ctx, "admin login locked out",
		"client_ip", ip,
		"failure_count", res.FailureCount,
		"retry_after", res.RetryAfter,
	)
	return dErrors.Wrap(&LockedOutError{RetryAfter: res.RetryAfter}, dErrors.CodeRateLimited,
		"too many failed login attempts, try again later")
}

func (s *Service) recordFailure(ctx context.Context, username, ip string) {
	if s.lockout == nil {
		return
	}
	if _, err := s.lockout.RecordFailure(ctx, username, ip); err != nil {
		s.logger.ErrorContext(ctx, "failed to record login failure", "error", err, "client_ip", ip)
	}
}

func (s *Service) clearFailures(ctx context.Context, username, ip string) {
	if s.lockout == nil {
		return
	}
	if err := s.lockout.Clear(ctx, username, ip); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear login failures", "error", err, "client_ip", ip)
	}
}

// ChangePassword re-hashes the admin password through get, mutate, update
// so other settings fields survive.
func (s *Service) ChangePassword(ctx context.Context, current, next string) error {
	if len(next) < minPasswordLength {
		return dErrors.New(dErrors.CodeValidation, "new password must be at least 8 characters")
	}
	settings, err := s.load(ctx)
	if err != nil {
		return err
	}
	if err := secrets.Verify(current, settings.AdminPassHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return dErrors.New(dErrors.CodeUnauthorized, "current password is incorrect")
		}
		return err
	}

	hash, err := secrets.Hash(next)
	if err != nil {
		return err
	}
	settings.AdminPassHash = hash
	if err := s.settings.Update(ctx, settings); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to save settings")
	}
	s.logger.InfoContext(ctx, "admin password changed", "username", settings.AdminUser)
	return nil
}

// load refuses to authenticate against default settings served during a
// store outage.
func (s *Service) load(ctx context.Context) (models.AppSettings, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		if errors.Is(err, store.ErrDegraded) {
			return models.AppSettings{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "settings store unavailable")
		}
		return models.AppSettings{}, err
	}
	return settings, nil
}

func (s *Service) upgradeHash(ctx context.Context, settings models.AppSettings, password string) {
	hash, err := secrets.Hash(password)
	if err != nil {
		s.logger.WarnContext(ctx, "could not re-hash legacy admin password", "error", err)
		return
	}
	settings.AdminPassHash = hash
	if err := s.settings.Update(ctx, settings); err != nil {
		s.logger.WarnContext(ctx, "could not store upgraded admin password hash", "error", err)
		return
	}
	s.logger.InfoContext(ctx, "upgraded legacy admin password hash")
}
