package semantic

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/bravo1goingdark/ucfp/pkg/ucfperr"
)

// Process-wide, provider-keyed circuit breakers and rate limiters. They are
// optional and affect only the api-mode embedder's availability, never the
// determinism of fast/onnx modes (§9 design notes).
var (
	breakers  sync.Map // provider name -> *CircuitBreaker
	limiters  sync.Map // provider name -> *RateLimiter
)

// BreakerConfig tunes a provider-keyed circuit breaker.
type BreakerConfig struct {
	FailureThreshold int           // consecutive failures before opening
	OpenDuration     time.Duration // how long the breaker stays open before probing
	HalfOpenSuccesses int          // consecutive successes in half-open before closing
}

// RateLimitConfig tunes a provider-keyed token-bucket rate limiter.
type RateLimitConfig struct {
	RatePerSecond float64
	Burst         float64
}

// RetryConfig tunes exponential backoff with jitter for the api embedder
// boundary only.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      float64 // fraction of the computed delay, e.g. 0.2 = +/-20%
}

// ResilienceConfig bundles all three api-mode resilience policies.
type ResilienceConfig struct {
	Breaker   BreakerConfig
	RateLimit RateLimitConfig
	Retry     RetryConfig
}

// DefaultResilienceConfig returns a conservative policy: open after 5
// consecutive failures, stay open 30s, close after 2 half-open successes,
// 5 req/s with burst 10, 3 retry attempts starting at 100ms doubling up to
// 2s with 20% jitter.
func DefaultResilienceConfig() ResilienceConfig {
	return ResilienceConfig{
		Breaker: BreakerConfig{
			FailureThreshold:  5,
			OpenDuration:      30 * time.Second,
			HalfOpenSuccesses: 2,
		},
		RateLimit: RateLimitConfig{
			RatePerSecond: 5,
			Burst:         10,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   100 * time.Millisecond,
			MaxDelay:    2 * time.Second,
			Jitter:      0.2,
		},
	}
}

func (c ResilienceConfig) Validate() error {
	const op = "semantic.ResilienceConfig.Validate"
	if c.Breaker.FailureThreshold < 1 {
		return ucfperr.New(op, ucfperr.KindInvalidConfig, "breaker failure_threshold must be >= 1")
	}
	if c.RateLimit.RatePerSecond <= 0 {
		return ucfperr.New(op, ucfperr.KindInvalidConfig, "rate_limit.rate_per_second must be > 0")
	}
	if c.Retry.MaxAttempts < 1 {
		return ucfperr.New(op, ucfperr.KindInvalidConfig, "retry.max_attempts must be >= 1")
	}
	return nil
}

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

// CircuitBreaker is a closed/open/half-open state machine guarding the
// remote embedding call for one provider.
type CircuitBreaker struct {
	mu             sync.Mutex
	cfg            BreakerConfig
	state          breakerState
	consecutiveErr int
	halfOpenOK     int
	openedAt       time.Time
}

func breakerFor(provider string) *CircuitBreaker {
	v, _ := breakers.LoadOrStore(provider, &CircuitBreaker{})
	return v.(*CircuitBreaker)
}

// Allow reports whether a call may proceed, transitioning open -> half-open
// once OpenDuration has elapsed.
func (b *CircuitBreaker) Allow(cfg BreakerConfig) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cfg = cfg

	switch b.state {
	case stateOpen:
		if time.Since(b.openedAt) >= cfg.OpenDuration {
			b.state = stateHalfOpen
			b.halfOpenOK = 0
			return true
		}
		return false
	default:
		return true
	}
}

func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case stateHalfOpen:
		b.halfOpenOK++
		if b.halfOpenOK >= b.cfg.HalfOpenSuccesses {
			b.state = stateClosed
			b.consecutiveErr = 0
		}
	default:
		b.consecutiveErr = 0
	}
}

func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case stateHalfOpen:
		b.state = stateOpen
		b.openedAt = time.Now()
	default:
		b.consecutiveErr++
		if b.consecutiveErr >= b.cfg.FailureThreshold {
			b.state = stateOpen
			b.openedAt = time.Now()
		}
	}
}

// RateLimiter is a token-bucket limiter for one provider.
type RateLimiter struct {
	mu         sync.Mutex
	cfg        RateLimitConfig
	tokens     float64
	lastRefill time.Time
}

func limiterFor(provider string, cfg ResilienceConfig) *RateLimiter {
	v, _ := limiters.LoadOrStore(provider, &RateLimiter{
		cfg:        cfg.RateLimit,
		tokens:     cfg.RateLimit.Burst,
		lastRefill: time.Now(),
	})
	return v.(*RateLimiter)
}

// Allow reports whether a token is available and consumes one if so.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(r.lastRefill).Seconds()
	r.lastRefill = now
	r.tokens += elapsed * r.cfg.RatePerSecond
	if r.tokens > r.cfg.Burst {
		r.tokens = r.cfg.Burst
	}
	if r.tokens < 1 {
		return false
	}
	r.tokens--
	return true
}

// retryWithBackoff runs fn up to cfg.MaxAttempts times, sleeping an
// exponentially growing, jittered delay between attempts. It returns the
// last error if every attempt fails, and stops early when fn returns a
// context cancellation or deadline error.
func retryWithBackoff(cfg RetryConfig, fn func() error) error {
	var err error
	delay := cfg.BaseDelay
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(jittered(delay, cfg.Jitter))
			delay *= 2
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}
		err = fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
	}
	return err
}

func jittered(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return d
	}
	delta := float64(d) * fraction
	offset := (rand.Float64()*2 - 1) * delta
	return time.Duration(float64(d) + offset)
}
