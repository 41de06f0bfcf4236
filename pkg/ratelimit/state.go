// Package ratelimit implements Pixabay request quota tracking and request gating.
// It monitors the X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset
// headers so that a busy gallery stops calling the API before Pixabay answers
// with 429 Too Many Requests.
package ratelimit

import (
	"time"
)

// Redis keys for rate limit state storage.
const (
	RedisKeyLimit          = "pixabay:rate_limit:limit"
	RedisKeyRemaining      = "pixabay:rate_limit:remaining"
	RedisKeyResetTimestamp = "pixabay:rate_limit:reset_timestamp"
	RedisKeyLastUpdate     = "pixabay:rate_limit:last_update"
)

// Thresholds for rate limit decisions.
const (
	// RemainingThresholdCritical blocks all requests when remaining requests fall below this value.
	RemainingThresholdCritical = 2

	// RemainingThresholdWarning applies throttling when remaining requests fall below this value.
	RemainingThresholdWarning = 10

	// RemainingThresholdHealthy indicates normal operation.
	RemainingThresholdHealthy = 25
)

// DefaultLimit is Pixabay's documented quota: 100 requests per 60 seconds.
const DefaultLimit = 100

// State represents the current Pixabay rate limit window.
type State struct {
	// Limit is the number of requests allowed in the window (X-RateLimit-Limit).
	Limit int `json:"limit"`

	// Remaining is the number of requests left in the window (X-RateLimit-Remaining).
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets, derived from X-RateLimit-Reset (seconds).
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was last refreshed from response headers.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when Remaining >= RemainingThresholdHealthy.
	IsHealthy bool `json:"is_healthy"`
}

// HealthyState returns the state assumed before any response headers were seen.
func HealthyState() *State {
	now := time.Now()
	return &State{
		Limit:      DefaultLimit,
		Remaining:  DefaultLimit,
		ResetAt:    now.Add(60 * time.Second),
		LastUpdate: now,
		IsHealthy:  true,
	}
}

// IsStale returns true if the state data is older than the given duration.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// Expired reports whether the window the state describes has already reset.
func (s *State) Expired() bool {
	return !s.ResetAt.IsZero() && time.Now().After(s.ResetAt)
}

// NeedsCriticalBlock returns true if requests should be blocked.
func (s *State) NeedsCriticalBlock() bool {
	return s.Remaining < RemainingThresholdCritical
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *State) NeedsThrottling() bool {
	return s.Remaining < RemainingThresholdWarning && !s.NeedsCriticalBlock()
}

// TimeUntilReset returns the duration until the window resets.
// Returns 0 if the reset time has already passed.
func (s *State) TimeUntilReset() time.Duration {
	d := time.Until(s.ResetAt)
	if d < 0 {
		return 0
	}
	return d
}

// UpdateHealth updates the IsHealthy field based on current Remaining.
func (s *State) UpdateHealth() {
	s.IsHealthy = s.Remaining >= RemainingThresholdHealthy
}
