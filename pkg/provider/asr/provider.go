// Package asr defines the Provider interface for automatic speech recognition
// backends.
//
// Vaakya transcribes complete recorded attempts, not live audio. The patient
// records one utterance in the browser and the UI uploads it whole, so the
// interface is a single batch call per clip rather than a streaming session.
//
// Implementations must be safe for concurrent use; the server transcribes
// clips from multiple sessions simultaneously.
package asr

import (
	"context"

	"github.com/kalpana-health/vaakya/pkg/types"
)

// Request carries one recorded attempt to the recognition backend.
type Request struct {
	// Clip is the recorded utterance.
	Clip types.AudioClip

	// Language is the BCP-47 language tag for recognition (e.g., "en", "hi",
	// "kn"). An empty string lets the provider auto-detect, if supported.
	Language string

	// Hints lists words the utterance is expected to contain (the exercise's
	// target words). Providers that support vocabulary biasing may use them;
	// others ignore them.
	Hints []string
}

// Provider is the abstraction over any ASR backend.
type Provider interface {
	// Transcribe submits the clip for recognition and returns the transcript.
	// It blocks until the backend responds or ctx is done.
	Transcribe(ctx context.Context, req Request) (types.Transcript, error)
}
