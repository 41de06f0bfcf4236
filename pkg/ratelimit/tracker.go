package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Pixabay rate limit response headers.
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// Prometheus metrics for rate limit tracking.
var (
	rateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pixabay_rate_limit_remaining",
		Help: "Requests remaining in the current Pixabay rate limit window",
	})

	rateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pixabay_rate_limit_blocks_total",
		Help: "Total number of requests blocked because the Pixabay quota is nearly exhausted",
	})

	rateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pixabay_rate_limit_throttles_total",
		Help: "Total number of requests delayed because the Pixabay quota is running low",
	})
)

// ThrottleDelay is how long a request waits when the window is in the warning range.
var ThrottleDelay = 1 * time.Second

// Tracker monitors the Pixabay quota and gates requests.
type Tracker struct {
	store  Store
	logger zerolog.Logger
}

// NewTracker creates a new rate limit tracker. A nil store falls back to memory.
func NewTracker(store Store, logger zerolog.Logger) *Tracker {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Tracker{
		store:  store,
		logger: logger,
	}
}

// GetState retrieves the current rate limit state.
// Returns a default healthy state if nothing is stored or the stored window already reset.
func (t *Tracker) GetState(ctx context.Context) (*State, error) {
	state, err := t.store.Load(ctx)
	if errors.Is(err, ErrNoState) {
		t.logger.Debug().Msg("No rate limit state stored, assuming healthy")
		return HealthyState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load rate limit state: %w", err)
	}
	if state.Expired() {
		t.logger.Debug().Time("reset_at", state.ResetAt).Msg("Rate limit window reset, assuming healthy")
		return HealthyState(), nil
	}
	return state, nil
}

// UpdateFromHeaders parses the Pixabay rate limit headers and stores the new state.
// Responses without the headers are ignored.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	resetStr := headers.Get(HeaderReset)
	if resetStr == "" {
		return fmt.Errorf("%s header missing", HeaderReset)
	}
	resetSeconds, err := strconv.ParseFloat(resetStr, 64)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderReset, err)
	}

	limit := DefaultLimit
	if limitStr := headers.Get(HeaderLimit); limitStr != "" {
		if limit, err = strconv.Atoi(limitStr); err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderLimit, err)
		}
	}

	now := time.Now()
	state := &State{
		Limit:      limit,
		Remaining:  remain,
		ResetAt:    now.Add(time.Duration(resetSeconds * float64(time.Second))),
		LastUpdate: now,
	}
	state.UpdateHealth()

	if err := t.store.Save(ctx, state); err != nil {
		return err
	}

	rateLimitRemaining.Set(float64(remain))

	switch {
	case state.NeedsCriticalBlock():
		t.logger.Error().
			Int("remaining", remain).
			Time("reset_at", state.ResetAt).
			Msg("Pixabay quota CRITICAL - requests will be blocked")
	case state.NeedsThrottling():
		t.logger.Warn().
			Int("remaining", remain).
			Time("reset_at", state.ResetAt).
			Msg("Pixabay quota WARNING - requests will be throttled")
	default:
		t.logger.Debug().
			Int("remaining", remain).
			Int("limit", limit).
			Bool("is_healthy", state.IsHealthy).
			Msg("Pixabay quota state updated")
	}

	return nil
}

// ShouldAllowRequest checks if a request should be sent.
// Returns false if the quota is nearly exhausted. In the warning range it
// waits ThrottleDelay (or until ctx is done) before allowing the request.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get rate limit state: %w", err)
	}

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("remaining", state.Remaining).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("Pixabay quota critical - blocking request")
		rateLimitBlocksTotal.Inc()
		return false, nil
	}

	if state.NeedsThrottling() {
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Msg("Pixabay quota warning - throttling request")
		rateLimitThrottlesTotal.Inc()

		timer := time.NewTimer(ThrottleDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
		}
	}

	return true, nil
}
