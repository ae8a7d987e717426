// Package resilience keeps the speech providers (ASR, TTS, severity model)
// from dragging the therapy loop down with them. A [Breaker] guards one
// provider endpoint; a [Chain] orders a primary provider and its stand-ins so
// a tripped primary is bypassed instead of retried on every attempt.
//
// All types are safe for concurrent use.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrUnavailable is returned by [Breaker.Do] while the breaker is tripped and
// its cooldown has not elapsed.
var ErrUnavailable = errors.New("resilience: provider unavailable")

// BreakerState is the operating mode of a [Breaker].
type BreakerState int

const (
	// BreakerClosed forwards all calls.
	BreakerClosed BreakerState = iota

	// BreakerTripped rejects calls with [ErrUnavailable] until the cooldown
	// elapses.
	BreakerTripped

	// BreakerProbing lets a limited number of calls through after the
	// cooldown; their outcome decides between closing and re-tripping.
	BreakerProbing
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerTripped:
		return "tripped"
	case BreakerProbing:
		return "probing"
	default:
		return "unknown"
	}
}

// BreakerConfig tunes a [Breaker]. Zero fields get defaults.
type BreakerConfig struct {
	// Service labels the guarded provider in log lines.
	Service string

	// TripAfter is how many consecutive failures trip the breaker. Default 5.
	TripAfter int

	// Cooldown is how long a tripped breaker rejects calls before probing.
	// Default 30s.
	Cooldown time.Duration

	// ProbeBudget is how many probe calls the probing state allows. All of
	// them must succeed to close the breaker. Default 3.
	ProbeBudget int
}

// Breaker is a three-state circuit breaker guarding one provider endpoint.
type Breaker struct {
	service     string
	tripAfter   int
	cooldown    time.Duration
	probeBudget int

	mu        sync.Mutex
	state     BreakerState
	failures  int
	trippedAt time.Time
	probes    int
	probeFail int
}

// NewBreaker creates a [Breaker] from cfg, filling defaults.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.TripAfter <= 0 {
		cfg.TripAfter = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.ProbeBudget <= 0 {
		cfg.ProbeBudget = 3
	}
	return &Breaker{
		service:     cfg.Service,
		tripAfter:   cfg.TripAfter,
		cooldown:    cfg.Cooldown,
		probeBudget: cfg.ProbeBudget,
	}
}

// Do runs fn unless the breaker rejects the call. The error from fn is
// returned unchanged so callers can still inspect provider errors.
func (b *Breaker) Do(fn func() error) error {
	b.mu.Lock()
	switch b.state {
	case BreakerTripped:
		if time.Since(b.trippedAt) < b.cooldown {
			b.mu.Unlock()
			return ErrUnavailable
		}
		b.state = BreakerProbing
		b.probes = 0
		b.probeFail = 0
		slog.Info("provider breaker probing", "service", b.service)

	case BreakerProbing:
		if b.probes >= b.probeBudget {
			b.mu.Unlock()
			return ErrUnavailable
		}
	}

	probing := b.state == BreakerProbing
	if probing {
		b.probes++
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.fail(probing)
	} else {
		b.ok(probing)
	}
	return err
}

// fail updates failure accounting. Caller holds b.mu.
func (b *Breaker) fail(probing bool) {
	b.trippedAt = time.Now()
	if probing {
		b.probeFail++
		b.state = BreakerTripped
		b.failures = b.tripAfter
		slog.Warn("provider breaker re-tripped during probe", "service", b.service)
		return
	}
	b.failures++
	if b.failures >= b.tripAfter {
		b.state = BreakerTripped
		slog.Warn("provider breaker tripped",
			"service", b.service, "consecutive_failures", b.failures)
	}
}

// ok updates success accounting. Caller holds b.mu.
func (b *Breaker) ok(probing bool) {
	if probing {
		if b.probes-b.probeFail >= b.probeBudget {
			b.state = BreakerClosed
			b.failures = 0
			b.probes = 0
			b.probeFail = 0
			slog.Info("provider breaker closed after probes", "service", b.service)
		}
		return
	}
	b.failures = 0
}

// State reports the breaker's state, surfacing an elapsed cooldown as
// probing even though the transition happens on the next [Breaker.Do].
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BreakerTripped && time.Since(b.trippedAt) >= b.cooldown {
		return BreakerProbing
	}
	return b.state
}

// Reset forces the breaker closed and clears the counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = BreakerClosed
	b.failures = 0
	b.probes = 0
	b.probeFail = 0
	slog.Info("provider breaker reset", "service", b.service)
}
