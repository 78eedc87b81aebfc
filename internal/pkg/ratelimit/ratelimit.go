// Package ratelimit provides the process-wide request governor: a sliding
// window over recent request timestamps plus classified retry with truncated
// exponential backoff. One Governor instance is constructed at startup and
// injected into the remote-service adapter so every remote call shares the
// same budget.
package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"drivesync/internal/domain"
)

// Config holds the operator-supplied limits.
type Config struct {
	RateLimit  int           // admitted requests per window
	TimeWindow time.Duration // trailing window length
	MaxRetries int           // retry attempts after the first call
	BaseDelay  time.Duration // first backoff step
	MaxBackoff time.Duration // backoff ceiling before jitter
}

// DefaultConfig returns the defaults: 1000 requests per 60 seconds, 10
// retries, backoff capped at 64 seconds.
func DefaultConfig() Config {
	return Config{
		RateLimit:  1000,
		TimeWindow: 60 * time.Second,
		MaxRetries: 10,
		BaseDelay:  time.Second,
		MaxBackoff: 64 * time.Second,
	}
}

// Governor throttles and retries remote calls. Safe for concurrent use.
type Governor struct {
	cfg   Config
	clock clockwork.Clock

	mu    sync.Mutex
	times []time.Time
}

// Option configures a Governor.
type Option func(*Governor)

// WithClock substitutes the wall clock, used by tests.
func WithClock(c clockwork.Clock) Option {
	return func(g *Governor) { g.clock = c }
}

// New builds a Governor from cfg, filling zero fields with defaults.
func New(cfg Config, opts ...Option) *Governor {
	def := DefaultConfig()
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = def.RateLimit
	}
	if cfg.TimeWindow <= 0 {
		cfg.TimeWindow = def.TimeWindow
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}

	g := &Governor{cfg: cfg, clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(g)
	}
	log.WithFields(log.Fields{
		"rate_limit":  cfg.RateLimit,
		"time_window": cfg.TimeWindow,
	}).Debug("Rate governor configured")
	return g
}

// Admit blocks until issuing one more request stays within the rate limit,
// then records the request timestamp. Requests are never dropped, only
// delayed.
func (g *Governor) Admit(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	g.prune(now)

	if len(g.times) >= g.cfg.RateLimit {
		wait := g.cfg.TimeWindow - now.Sub(g.times[0])
		if wait > 0 {
			log.WithField("wait", wait).Debug("Rate limit reached, sleeping")
			select {
			case <-g.clock.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
			now = g.clock.Now()
			g.prune(now)
		}
	}

	g.times = append(g.times, now)
	return nil
}

// prune drops timestamps older than the window. Callers hold g.mu.
func (g *Governor) prune(now time.Time) {
	cutoff := now.Add(-g.cfg.TimeWindow)
	i := 0
	for i < len(g.times) && !g.times[i].After(cutoff) {
		i++
	}
	g.times = g.times[i:]
}

// Do admits and invokes op, retrying transient failures with truncated
// exponential backoff plus up to one second of uniform jitter. Permanent
// failures propagate immediately. After MaxRetries retries the last error is
// surfaced.
func (g *Governor) Do(ctx context.Context, name string, op func() error) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := g.Admit(ctx); err != nil {
			return err
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !domain.IsRetriable(lastErr) {
			return lastErr
		}
		if attempt >= g.cfg.MaxRetries {
			log.WithField("op", name).Errorf("Giving up after %d retries: %v", g.cfg.MaxRetries, lastErr)
			return lastErr
		}

		delay := g.backoff(attempt)
		log.WithFields(log.Fields{
			"op":    name,
			"retry": attempt + 1,
			"delay": delay,
		}).Warnf("Transient failure, backing off: %v", lastErr)

		select {
		case <-g.clock.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (g *Governor) backoff(attempt int) time.Duration {
	delay := g.cfg.BaseDelay << uint(attempt)
	if delay > g.cfg.MaxBackoff || delay <= 0 {
		delay = g.cfg.MaxBackoff
	}
	jitter := time.Duration(rand.Int63n(int64(time.Second)))
	return delay + jitter
}
