// Package mock provides a test double for the severity package interfaces.
package mock

import (
	"context"
	"sync"

	"github.com/kalpana-health/vaakya/pkg/provider/severity"
)

// Ensure Provider implements severity.Provider at compile time.
var _ severity.Provider = (*Provider)(nil)

// EstimateCall records a single invocation of Provider.Estimate.
type EstimateCall struct {
	// Ctx is the context passed to Estimate.
	Ctx context.Context
	// Req is the request passed to Estimate.
	Req severity.Request
}

// Provider is a mock implementation of severity.Provider.
type Provider struct {
	mu sync.Mutex

	// Result is returned by every Estimate call unless EstimateErr is set.
	Result severity.Estimate

	// EstimateErr, if non-nil, is returned as the error from Estimate.
	EstimateErr error

	// EstimateCalls records every call to Estimate.
	EstimateCalls []EstimateCall
}

// Estimate records the call and returns Result, EstimateErr.
func (p *Provider) Estimate(ctx context.Context, req severity.Request) (severity.Estimate, error) {
	p.mu.Lock()
	p.EstimateCalls = append(p.EstimateCalls, EstimateCall{Ctx: ctx, Req: req})
	p.mu.Unlock()

	if p.EstimateErr != nil {
		return severity.Estimate{}, p.EstimateErr
	}
	return p.Result, nil
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.EstimateCalls = nil
}
