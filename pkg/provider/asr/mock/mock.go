// Package mock provides a test double for the asr package interfaces.
//
// Use Provider to return canned transcripts and inspect the requests the
// caller made:
//
//	p := &mock.Provider{Transcript: types.Transcript{Text: "water"}}
//	got, _ := p.Transcribe(ctx, asr.Request{Clip: clip})
package mock

import (
	"context"
	"sync"

	"github.com/kalpana-health/vaakya/pkg/provider/asr"
	"github.com/kalpana-health/vaakya/pkg/types"
)

// Ensure Provider implements asr.Provider at compile time.
var _ asr.Provider = (*Provider)(nil)

// TranscribeCall records a single invocation of Provider.Transcribe.
type TranscribeCall struct {
	// Ctx is the context passed to Transcribe.
	Ctx context.Context
	// Req is the request passed to Transcribe.
	Req asr.Request
}

// Provider is a mock implementation of asr.Provider.
type Provider struct {
	mu sync.Mutex

	// Transcript is returned by every Transcribe call unless TranscribeFn or
	// TranscribeErr is set.
	Transcript types.Transcript

	// TranscribeErr, if non-nil, is returned as the error from Transcribe.
	TranscribeErr error

	// TranscribeFn, if non-nil, overrides the canned Transcript/TranscribeErr
	// behaviour entirely.
	TranscribeFn func(ctx context.Context, req asr.Request) (types.Transcript, error)

	// TranscribeCalls records every call to Transcribe.
	TranscribeCalls []TranscribeCall
}

// Transcribe records the call and returns the configured result.
func (p *Provider) Transcribe(ctx context.Context, req asr.Request) (types.Transcript, error) {
	p.mu.Lock()
	p.TranscribeCalls = append(p.TranscribeCalls, TranscribeCall{Ctx: ctx, Req: req})
	fn := p.TranscribeFn
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if p.TranscribeErr != nil {
		return types.Transcript{}, p.TranscribeErr
	}
	return p.Transcript, nil
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.TranscribeCalls = nil
}
