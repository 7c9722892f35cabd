// Package config loads process configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"azadi/internal/docstore"
)

type Config struct {
	Server     Server
	Log        Log
	Docstore   Docstore
	Redis      Redis
	Postgres   Postgres
	Text       TextService
	Automation Automation
	Admin      Admin
	RateLimit  RateLimit
	// SeedOnStart writes seed data into collections confirmed absent.
	SeedOnStart bool
}

type Server struct {
	Addr string
	// MetricsToken guards /metrics when set.
	MetricsToken    string
	ShutdownTimeout time.Duration
}

type Log struct {
	Level  string
	Format string
}

type Docstore struct {
	Driver  docstore.Driver
	URL     string
	Auth    string
	Timeout time.Duration
}

type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Postgres struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

type TextService struct {
	APIKey  string
	URL     string
	Model   string
	Timeout time.Duration
	Delay   time.Duration
}

type Automation struct {
	// Schedule is a cron spec. Empty disables scheduled runs.
	Schedule         string
	ProbeTimeout     time.Duration
	SettleDelay      time.Duration
	ProbeConcurrency int
	QuotaBytes       int64
	WarnPercent      float64
}

type Admin struct {
	JWTSigningKey   string
	JWTIssuer       string
	TokenTTL        time.Duration
	DefaultUser     string
	DefaultPassword string
	ContactPhone    string
}

// RateLimit bounds public donation submissions per client IP and locks out
// repeated failed admin logins.
type RateLimit struct {
	Disabled          bool
	DonationsPerIP    int
	DonationWindow    time.Duration
	LoginAttempts     int
	LoginWindow       time.Duration
	HardLockThreshold int
	HardLockDuration  time.Duration
}

const devSigningKey = "dev-secret-key-change-in-production"

// Load reads .env when present, then the environment. Unset variables take
// their defaults; malformed values are errors.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	e := &env{lookup: lookup}
	cfg := Config{
		Server: Server{
			Addr:            e.str("HTTP_ADDR", ":8080"),
			MetricsToken:    e.str("METRICS_TOKEN", ""),
			ShutdownTimeout: e.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Log: Log{
			Level:  e.str("LOG_LEVEL", "info"),
			Format: e.str("LOG_FORMAT", "json"),
		},
		Docstore: Docstore{
			URL:     e.str("DOCSTORE_URL", ""),
			Auth:    e.str("DOCSTORE_AUTH", ""),
			Timeout: e.duration("DOCSTORE_TIMEOUT", 15*time.Second),
		},
		Redis: Redis{
			URL:          e.str("REDIS_URL", ""),
			PoolSize:     e.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: e.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  e.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  e.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: e.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: Postgres{
			URL:          e.str("DATABASE_URL", ""),
			MaxOpenConns: e.integer("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns: e.integer("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Text: TextService{
			APIKey:  e.str("TEXT_SERVICE_API_KEY", ""),
			URL:     e.str("TEXT_SERVICE_URL", "https://api.openai.com/v1"),
			Model:   e.str("TEXT_SERVICE_MODEL", ""),
			Timeout: e.duration("TEXT_SERVICE_TIMEOUT", 20*time.Second),
			Delay:   e.duration("TEXT_SERVICE_DELAY", 0),
		},
		Automation: Automation{
			Schedule:         e.str("AUTOMATION_SCHEDULE", ""),
			ProbeTimeout:     e.duration("AUTOMATION_PROBE_TIMEOUT", 10*time.Second),
			SettleDelay:      e.duration("AUTOMATION_SETTLE_DELAY", time.Second),
			ProbeConcurrency: e.integer("AUTOMATION_PROBE_CONCURRENCY", 8),
			QuotaBytes:       int64(e.integer("STORAGE_QUOTA_BYTES", 5<<20)),
			WarnPercent:      e.float("STORAGE_WARN_PERCENT", 80),
		},
		Admin: Admin{
			JWTSigningKey:   e.str("JWT_SIGNING_KEY", devSigningKey),
			JWTIssuer:       e.str("JWT_ISSUER", "azadi"),
			TokenTTL:        e.duration("ADMIN_TOKEN_TTL", 12*time.Hour),
			DefaultUser:     e.str("ADMIN_DEFAULT_USER", "admin"),
			DefaultPassword: e.str("ADMIN_DEFAULT_PASSWORD", "admin123"),
			ContactPhone:    e.str("CONTACT_PHONE", ""),
		},
		RateLimit: RateLimit{
			Disabled:          e.boolean("RATE_LIMIT_DISABLED", false),
			DonationsPerIP:    e.integer("RATE_LIMIT_DONATIONS", 10),
			DonationWindow:    e.duration("RATE_LIMIT_DONATION_WINDOW", time.Minute),
			LoginAttempts:     e.integer("LOGIN_MAX_ATTEMPTS", 5),
			LoginWindow:       e.duration("LOGIN_WINDOW", 15*time.Minute),
			HardLockThreshold: e.integer("LOGIN_HARD_LOCK_THRESHOLD", 10),
			HardLockDuration:  e.duration("LOGIN_HARD_LOCK_DURATION", 15*time.Minute),
		},
		SeedOnStart: e.boolean("SEED_ON_START", false),
	}

	driver := docstore.DriverMemory
	if cfg.Docstore.URL != "" {
		driver = docstore.DriverHTTP
	}
	cfg.Docstore.Driver = docstore.Driver(strings.ToLower(e.str("DOCSTORE_DRIVER", string(driver))))

	if err := errors.Join(append(e.errs, cfg.validate())...); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	switch c.Docstore.Driver {
	case docstore.DriverMemory:
	case docstore.DriverHTTP:
		if c.Docstore.URL == "" {
			errs = append(errs, errors.New("DOCSTORE_URL is required for the http driver"))
		}
	case docstore.DriverRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis driver"))
		}
	case docstore.DriverPostgres:
		if c.Postgres.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DOCSTORE_DRIVER %q", c.Docstore.Driver))
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.Log.Format))
	}
	if c.Automation.ProbeConcurrency < 1 {
		errs = append(errs, errors.New("AUTOMATION_PROBE_CONCURRENCY must be at least 1"))
	}
	if c.Automation.QuotaBytes <= 0 {
		errs = append(errs, errors.New("STORAGE_QUOTA_BYTES must be positive"))
	}
	if c.Admin.TokenTTL <= 0 {
		errs = append(errs, errors.New("ADMIN_TOKEN_TTL must be positive"))
	}
	if !c.RateLimit.Disabled {
		if c.RateLimit.DonationsPerIP < 1 || c.RateLimit.LoginAttempts < 1 || c.RateLimit.HardLockThreshold < 1 {
			errs = append(errs, errors.New("rate limits must be at least 1"))
		}
		if c.RateLimit.DonationWindow <= 0 || c.RateLimit.LoginWindow <= 0 || c.RateLimit.HardLockDuration <= 0 {
			errs = append(errs, errors.New("rate limit windows must be positive"))
		}
	}
	return errors.Join(errs...)
}

// UsesDevSigningKey reports whether admin tokens are signed with the
// built-in development key.
func (c Config) UsesDevSigningKey() bool {
	return c.Admin.JWTSigningKey == devSigningKey
}

// env reads typed variables and collects parse failures.
type env struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *env) str(key, def string) string {
	if v, ok := e.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (e *env) integer(key string, def int) int {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (e *env) float(key string, def float64) float64 {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (e *env) boolean(key string, def bool) bool {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}
