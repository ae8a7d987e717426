// Package types defines the shared types used across all Vaakya packages.
//
// These types form the lingua franca between providers, the scoring layer, the
// progression controller, and the HTTP API. They are intentionally minimal:
// each package defines its own domain types, but cross-cutting data structures
// live here to avoid circular imports.
package types

import "time"

// AudioClip is a complete recorded utterance submitted for transcription or
// severity assessment. Clips are batch payloads, not streaming frames: the
// patient records an attempt, the UI uploads it whole.
type AudioClip struct {
	// Data is the encoded audio payload (typically WAV or WebM as captured by
	// the browser). Providers that require a specific container re-encode or
	// reject as documented per implementation.
	Data []byte

	// MIMEType describes the encoding (e.g., "audio/wav", "audio/webm").
	// Empty means unknown; providers should sniff or assume WAV.
	MIMEType string

	// SampleRate in Hz when known (e.g., 16000 for ASR-optimised capture).
	// Zero means unknown.
	SampleRate int

	// Duration is the clip length when known. Zero means unknown.
	Duration time.Duration
}

// Transcript represents a speech-to-text result from an ASR provider.
type Transcript struct {
	// Text is the transcribed speech content.
	Text string

	// Language is the BCP-47 language tag the provider recognised against
	// (e.g., "en", "hi", "kn").
	Language string

	// Confidence is the overall confidence score (0.0–1.0). May be zero if the
	// provider does not report confidence.
	Confidence float64

	// Words contains per-word detail when available. May be nil for providers
	// that don't support word-level output.
	Words []WordDetail
}

// WordDetail holds per-word metadata from ASR providers that support it.
type WordDetail struct {
	Word       string
	Start      time.Duration
	End        time.Duration
	Confidence float64
}

// VoiceProfile identifies a synthesis voice on a TTS provider.
type VoiceProfile struct {
	// ID is the provider-specific voice identifier. Empty selects the
	// provider's default voice (valid for single-speaker models).
	ID string

	// Name is the human-readable voice name, when the provider reports one.
	Name string

	// Language is the voice's primary language tag.
	Language string
}
