// Package limiter provides an adaptive rate limiter for outbound
// media-resolution calls. The allowed rate climbs while calls succeed and is
// cut when the remote site starts failing, so a struggling extractor slows
// the bot down instead of breaking it.
package limiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Adaptive wraps a token-bucket limiter whose rate adjusts with call
// outcomes. Safe for concurrent use.
type Adaptive struct {
	mu          sync.Mutex
	limiter     *rate.Limiter
	minLimit    rate.Limit
	maxLimit    rate.Limit
	stepUp      rate.Limit
	stepDown    float64
	lastFailure time.Time
}

// New creates an Adaptive limiter.
//
//   - initial: starting requests per second
//   - min/max: bounds the rate never leaves
//   - stepUp: increment applied on success
//   - stepDown: multiplier applied on failure (e.g. 0.5 to halve)
func New(initial, min, max, stepUp rate.Limit, stepDown float64) *Adaptive {
	if initial < min {
		initial = min
	}
	burst := int(initial)
	if burst < 1 {
		burst = 1
	}
	return &Adaptive{
		limiter:  rate.NewLimiter(initial, burst),
		minLimit: min,
		maxLimit: max,
		stepUp:   stepUp,
		stepDown: stepDown,
	}
}

// Wait blocks until a token is available or ctx is done.
func (a *Adaptive) Wait(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return a.limiter.Wait(ctx)
}

// Success nudges the rate up, unless a failure happened in the last few
// seconds and the remote likely still needs breathing room.
func (a *Adaptive) Success() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if time.Since(a.lastFailure) > 10*time.Second {
		a.setLimit(a.limiter.Limit() + a.stepUp)
	}
}

// Failure cuts the rate after a failed call.
func (a *Adaptive) Failure() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastFailure = time.Now()
	a.setLimit(rate.Limit(float64(a.limiter.Limit()) * a.stepDown))
}

// Limit returns the current requests per second.
func (a *Adaptive) Limit() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return float64(a.limiter.Limit())
}

func (a *Adaptive) setLimit(l rate.Limit) {
	if l > a.maxLimit {
		l = a.maxLimit
	}
	if l < a.minLimit {
		l = a.minLimit
	}
	if l == a.limiter.Limit() {
		return
	}
	a.limiter.SetLimit(l)
	burst := int(l)
	if burst < 1 {
		burst = 1
	}
	a.limiter.SetBurst(burst)
}
