package models

import (
	"fmt"
	"strings"
	"time"
)

// EndpointClass groups routes that share a request limit.
type EndpointClass string

const (
	// ClassAuth covers the admin login route.
	ClassAuth EndpointClass = "auth"
	// ClassPublicWrite covers anonymous writes such as donation submissions.
	ClassPublicWrite EndpointClass = "public_write"
)

func (c EndpointClass) IsValid() bool {
	return c == ClassAuth || c == ClassPublicWrite
}

type KeyPrefix string

const (
	KeyPrefixIP   KeyPrefix = "ip"
	KeyPrefixAuth KeyPrefix = "auth"
)

// RateLimitResult is the outcome of one limit check.
type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// AuthRateLimitResult adds the failure count to a login check.
type AuthRateLimitResult struct {
	RateLimitResult
	FailureCount int `json:"failure_count"`
}

// AuthLockout tracks failed logins for one username and IP pair.
type AuthLockout struct {
	Identifier    string     `json:"identifier"`
	FailureCount  int        `json:"failure_count"`  // failures in the current window
	DailyFailures int        `json:"daily_failures"` // failures since the last clear, drives hard locks
	LockedUntil   *time.Time `json:"locked_until,omitempty"`
	LastFailureAt time.Time  `json:"last_failure_at"`
}

func (l *AuthLockout) IsLockedAt(now time.Time) bool {
	return l.LockedUntil != nil && now.Before(*l.LockedUntil)
}

func (l *AuthLockout) IsAttemptLimitReached(limit int) bool {
	return l.FailureCount >= limit
}

func (l *AuthLockout) RemainingAttempts(limit int) int {
	return max(limit-l.FailureCount, 0)
}

func (l *AuthLockout) ShouldHardLock(threshold int) bool {
	return l.DailyFailures >= threshold && l.LockedUntil == nil
}

func (l *AuthLockout) ApplyHardLock(d time.Duration, now time.Time) {
	until := now.Add(d)
	l.LockedUntil = &until
}

// RateLimitExceededResponse is the body written with a 429.
type RateLimitExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

// SanitizeKeySegment keeps a caller-controlled value from spilling into the
// neighbouring key segment.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

type RateLimitKey struct {
	prefix     KeyPrefix
	identifier string
	class      EndpointClass
}

func NewRateLimitKey(prefix KeyPrefix, identifier string, class EndpointClass) RateLimitKey {
	return RateLimitKey{prefix: prefix, identifier: identifier, class: class}
}

func (k RateLimitKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.prefix, SanitizeKeySegment(k.identifier), k.class)
}

type AuthLockoutKey struct {
	identifier string
	ip         string
}

func NewAuthLockoutKey(identifier, ip string) AuthLockoutKey {
	return AuthLockoutKey{identifier: strings.ToLower(strings.TrimSpace(identifier)), ip: ip}
}

func (k AuthLockoutKey) String() string {
	return fmt.Sprintf("%s:%s:%s", KeyPrefixAuth, SanitizeKeySegment(k.identifier), SanitizeKeySegment(k.ip))
}
