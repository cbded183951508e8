package tradier

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const (
	// RateLimitHeader carries the calls left in the current window.
	RateLimitHeader = "X-Ratelimit-Available"

	initialAvailable = 120
)

// RateBudget tracks the call budget Tradier reports on every response and
// pauses callers while it runs low. It is owned by whoever builds the client
// and may be shared by several clients using the same token.
type RateBudget struct {
	mu        sync.Mutex
	available int
	threshold int
	pause     time.Duration
	pauses    int
}

// NewRateBudget creates a budget that pauses for pause whenever fewer than
// threshold calls remain.
func NewRateBudget(threshold int, pause time.Duration) *RateBudget {
	return &RateBudget{
		available: initialAvailable,
		threshold: threshold,
		pause:     pause,
	}
}

// Observe records the budget reported by a response. Missing or malformed
// headers leave it unchanged.
func (b *RateBudget) Observe(h http.Header) {
	v := h.Get(RateLimitHeader)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return
	}

	b.mu.Lock()
	b.available = n
	b.mu.Unlock()
}

// Throttle blocks for the configured pause when the budget is below its
// threshold.
func (b *RateBudget) Throttle(ctx context.Context) error {
	b.mu.Lock()
	low := b.available < b.threshold
	if low {
		b.pauses++
	}
	b.mu.Unlock()

	if !low || b.pause <= 0 {
		return nil
	}

	timer := time.NewTimer(b.pause)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Available returns the last reported budget.
func (b *RateBudget) Available() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.available
}

// Pauses returns how many times Throttle found the budget low.
func (b *RateBudget) Pauses() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pauses
}
