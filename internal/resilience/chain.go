package resilience

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrChainExhausted is returned when every provider in a [Chain] failed or
// was rejected by its breaker.
var ErrChainExhausted = errors.New("resilience: all providers exhausted")

// link pairs one provider with its dedicated breaker.
type link[T any] struct {
	name    string
	value   T
	breaker *Breaker
}

// Chain orders a primary provider and its stand-ins (a remote ASR endpoint
// first, the on-device heuristic last, say). Each link gets its own
// [Breaker]; calls walk the chain skipping tripped links.
type Chain[T any] struct {
	links []link[T]
	cfg   BreakerConfig
}

// NewChain creates a chain whose per-link breakers share cfg (the Service
// label is replaced by each link's name).
func NewChain[T any](cfg BreakerConfig) *Chain[T] {
	return &Chain[T]{cfg: cfg}
}

// Add appends a provider. Providers are tried in registration order.
func (c *Chain[T]) Add(name string, v T) *Chain[T] {
	bc := c.cfg
	bc.Service = name
	c.links = append(c.links, link[T]{name: name, value: v, breaker: NewBreaker(bc)})
	return c
}

// Len reports how many providers are registered.
func (c *Chain[T]) Len() int { return len(c.links) }

// Do walks the chain until fn succeeds against some provider. Returns
// [ErrChainExhausted] wrapping the last failure when none does.
func (c *Chain[T]) Do(fn func(name string, v T) error) error {
	var lastErr error
	for i := range c.links {
		l := &c.links[i]
		err := l.breaker.Do(func() error { return fn(l.name, l.value) })
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, ErrUnavailable) {
			slog.Debug("skipping provider, breaker tripped", "provider", l.name)
		} else {
			slog.Warn("provider failed, trying next in chain", "provider", l.name, "err", err)
		}
	}
	if lastErr == nil {
		return ErrChainExhausted
	}
	return fmt.Errorf("%w: %v", ErrChainExhausted, lastErr)
}

// DoResult is [Chain.Do] for calls that produce a value. Package-level
// because methods cannot add type parameters.
func DoResult[T, R any](c *Chain[T], fn func(name string, v T) (R, error)) (R, error) {
	var (
		zero    R
		lastErr error
	)
	for i := range c.links {
		l := &c.links[i]
		var out R
		err := l.breaker.Do(func() error {
			var inner error
			out, inner = fn(l.name, l.value)
			return inner
		})
		if err == nil {
			return out, nil
		}
		lastErr = err
		if errors.Is(err, ErrUnavailable) {
			slog.Debug("skipping provider, breaker tripped", "provider", l.name)
		} else {
			slog.Warn("provider failed, trying next in chain", "provider", l.name, "err", err)
		}
	}
	if lastErr == nil {
		return zero, ErrChainExhausted
	}
	return zero, fmt.Errorf("%w: %v", ErrChainExhausted, lastErr)
}
