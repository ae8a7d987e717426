// Package mock provides a test double for the tts package interfaces.
package mock

import (
	"context"
	"sync"

	"github.com/kalpana-health/vaakya/pkg/provider/tts"
	"github.com/kalpana-health/vaakya/pkg/types"
)

// Ensure Provider implements tts.Provider at compile time.
var _ tts.Provider = (*Provider)(nil)

// SynthesizeCall records a single invocation of Provider.Synthesize.
type SynthesizeCall struct {
	// Ctx is the context passed to Synthesize.
	Ctx context.Context
	// Req is the request passed to Synthesize.
	Req tts.Request
}

// Provider is a mock implementation of tts.Provider.
type Provider struct {
	mu sync.Mutex

	// Clip is returned by every Synthesize call unless SynthesizeErr is set.
	Clip types.AudioClip

	// SynthesizeErr, if non-nil, is returned as the error from Synthesize.
	SynthesizeErr error

	// VoiceList is returned by Voices.
	VoiceList []types.VoiceProfile

	// VoicesErr, if non-nil, is returned as the error from Voices.
	VoicesErr error

	// SynthesizeCalls records every call to Synthesize.
	SynthesizeCalls []SynthesizeCall
}

// Synthesize records the call and returns Clip, SynthesizeErr.
func (p *Provider) Synthesize(ctx context.Context, req tts.Request) (types.AudioClip, error) {
	p.mu.Lock()
	p.SynthesizeCalls = append(p.SynthesizeCalls, SynthesizeCall{Ctx: ctx, Req: req})
	p.mu.Unlock()

	if p.SynthesizeErr != nil {
		return types.AudioClip{}, p.SynthesizeErr
	}
	return p.Clip, nil
}

// Voices returns VoiceList, VoicesErr.
func (p *Provider) Voices(_ context.Context, _ string) ([]types.VoiceProfile, error) {
	if p.VoicesErr != nil {
		return nil, p.VoicesErr
	}
	return p.VoiceList, nil
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SynthesizeCalls = nil
}
