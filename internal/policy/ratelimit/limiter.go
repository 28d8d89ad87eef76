// Package ratelimit enforces a minimum pause between the end of one API call
// and the start of the next.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/JakeFAU/inat-harvester/internal/metrics"
)

// Limiter paces calls so each one starts at least Delay after the previous
// one finished. Callers pair every successful Wait with a Done.
type Limiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	delay   time.Duration
	name    string
}

// Config holds rate limiter configuration.
type Config struct {
	// Delay is the minimum pause after each call. Zero disables limiting.
	Delay time.Duration
	// Name labels the wait histogram.
	Name string
}

// New creates a new Limiter. The first call is never delayed.
func New(cfg Config) *Limiter {
	name := cfg.Name
	if name == "" {
		name = "api"
	}
	l := &Limiter{delay: cfg.Delay, name: name}
	if cfg.Delay > 0 {
		l.limiter = rate.NewLimiter(rate.Every(cfg.Delay), 1)
	}
	return l
}

// FromSeconds converts a fractional second count into a Config delay.
func FromSeconds(seconds float64) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

// Delay reports the configured pause.
func (l *Limiter) Delay() time.Duration {
	return l.delay
}

// Wait blocks until the pause after the last finished call has elapsed.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.delay <= 0 {
		return ctx.Err()
	}
	l.mu.Lock()
	lim := l.limiter
	l.mu.Unlock()

	start := time.Now()
	if err := lim.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if waited := time.Since(start); waited > time.Millisecond {
		metrics.ObserveRateLimitDelay(l.name, waited)
	}
	return nil
}

// Done marks the end of a call. The next Wait returns no earlier than Delay
// from now, however long the call itself took.
func (l *Limiter) Done() {
	l.doneAt(time.Now())
}

func (l *Limiter) doneAt(t time.Time) {
	if l.delay <= 0 {
		return
	}
	// A fresh bucket drained at t refills exactly Delay later.
	lim := rate.NewLimiter(rate.Every(l.delay), 1)
	lim.AllowN(t, 1)

	l.mu.Lock()
	l.limiter = lim
	l.mu.Unlock()
}
