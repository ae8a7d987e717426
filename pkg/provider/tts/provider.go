// Package tts defines the Provider interface for text-to-speech backends.
//
// The server speaks exercise prompts and feedback messages back to the
// patient. Prompts are short sentences, so the interface is one batch call
// per utterance.
//
// Implementations must be safe for concurrent use.
package tts

import (
	"context"

	"github.com/kalpana-health/vaakya/pkg/types"
)

// Request describes one utterance to synthesise.
type Request struct {
	// Text is the sentence to speak.
	Text string

	// Language is the BCP-47 language tag (e.g., "en", "hi", "kn").
	Language string

	// Voice selects the synthesis voice. A zero value selects the provider's
	// default voice for the language.
	Voice types.VoiceProfile

	// Slow requests a reduced speaking rate, useful for therapy prompts.
	// Providers without rate control ignore it.
	Slow bool
}

// Provider is the abstraction over any TTS backend.
type Provider interface {
	// Synthesize renders the request as an audio clip. It blocks until the
	// backend responds or ctx is done.
	Synthesize(ctx context.Context, req Request) (types.AudioClip, error)

	// Voices lists the voices available on the backend, optionally filtered
	// by language tag. An empty language returns all voices.
	Voices(ctx context.Context, language string) ([]types.VoiceProfile, error)
}
