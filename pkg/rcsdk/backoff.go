package rcsdk

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultMinTimeBetweenRefreshes is the spacing floor between token
	// refresh attempts, independent of any rate-limit signal.
	DefaultMinTimeBetweenRefreshes = 5 * time.Second

	// DefaultInitialBackoff is the cool-down applied on the first observed
	// rate-limit signal.
	DefaultInitialBackoff = 30 * time.Second

	// DefaultMaxBackoff caps the cool-down growth.
	DefaultMaxBackoff = 5 * time.Minute
)

// Guard throttles token refresh attempts against the provider. A single Guard
// is shared by every Client in the process so that concurrent requests cannot
// collectively hammer the token endpoint. Construct one explicitly and inject
// it; tests get a fresh instance per case.
type Guard struct {
	mu sync.Mutex

	now func() time.Time

	lastRefreshAttempt      time.Time
	minTimeBetweenRefreshes time.Duration

	rateLimited        bool
	rateLimitResetTime time.Time
	rateLimitBackoff   time.Duration
	initialBackoff     time.Duration
	maxBackoff         time.Duration
}

// NewGuard returns a Guard with the default spacing floor and backoff window.
func NewGuard() *Guard {
	return &Guard{
		now:                     time.Now,
		minTimeBetweenRefreshes: DefaultMinTimeBetweenRefreshes,
		rateLimitBackoff:        DefaultInitialBackoff,
		initialBackoff:          DefaultInitialBackoff,
		maxBackoff:              DefaultMaxBackoff,
	}
}

// CanAttemptRefresh reports whether a refresh attempt may proceed right now.
// It is the single atomic decision point: the attempt time is recorded (and
// an elapsed cool-down cleared) only on a true outcome.
func (g *Guard) CanAttemptRefresh() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()

	if g.rateLimited {
		if now.Before(g.rateLimitResetTime) {
			return false
		}
		// Cool-down elapsed: clear the flag and allow exactly one attempt.
		g.rateLimited = false
		g.lastRefreshAttempt = now
		return true
	}

	if now.Sub(g.lastRefreshAttempt) < g.minTimeBetweenRefreshes {
		return false
	}

	g.lastRefreshAttempt = now
	return true
}

// SetRateLimited records a rate-limit signal from the provider. The current
// backoff becomes the cool-down, then doubles (capped) for the next episode.
// Calling this repeatedly while already rate-limited extends the reset time
// and compounds the backoff, so callers must invoke it once per observed
// signal.
func (g *Guard) SetRateLimited() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()

	g.rateLimited = true
	g.rateLimitResetTime = now.Add(g.rateLimitBackoff)

	g.rateLimitBackoff = min(g.rateLimitBackoff*2, g.maxBackoff)
}

// Reset clears the rate-limited state and restores the initial backoff.
// The spacing floor still applies relative to the last attempt.
func (g *Guard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.rateLimited = false
	g.rateLimitBackoff = g.initialBackoff
}

// RateLimited reports whether the guard is currently inside a cool-down.
func (g *Guard) RateLimited() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rateLimited && g.now().Before(g.rateLimitResetTime)
}

// IsRateLimitResponse classifies a provider response as rate-limiting, based
// on the HTTP status or provider-specific error codes and message text.
// Pure function, no Guard state involved.
func IsRateLimitResponse(statusCode int, body []byte) bool {
	if statusCode == 429 {
		return true
	}

	if len(body) == 0 {
		return false
	}

	var payload struct {
		ErrorCode        string `json:"errorCode"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return false
	}

	if payload.ErrorCode == rateLimitErrorCode {
		return true
	}

	return strings.Contains(strings.ToLower(payload.Message), "rate") ||
		strings.Contains(strings.ToLower(payload.ErrorDescription), "rate")
}
