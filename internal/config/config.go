// Package config provides the configuration schema, loader, and provider
// registry for the Vaakya therapy server.
package config

import "github.com/kalpana-health/vaakya/internal/therapy"

// LogLevel controls log verbosity for the Vaakya server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for Vaakya.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Providers ProvidersConfig `yaml:"providers"`
	Therapy   TherapyConfig   `yaml:"therapy"`
	Library   LibraryConfig   `yaml:"library"`
}

// ServerConfig holds network and logging settings for the Vaakya server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// CORSAllowedOrigins lists origins allowed to call the API from a
	// browser. An empty list allows any origin.
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// StorageConfig selects where sessions, attempts, and progress are persisted.
type StorageConfig struct {
	// PostgresDSN is the connection string for the PostgreSQL store.
	// When empty, the server runs on the in-memory store.
	PostgresDSN string `yaml:"postgres_dsn"`

	// FallbackMemory keeps the server running on the in-memory store when
	// PostgreSQL is unreachable at startup instead of exiting.
	FallbackMemory bool `yaml:"fallback_memory"`
}

// ProvidersConfig declares which provider implementation to use for each
// pipeline stage. Each field selects a named provider registered in the [Registry].
type ProvidersConfig struct {
	ASR      ProviderEntry `yaml:"asr"`
	TTS      ProviderEntry `yaml:"tts"`
	Severity ProviderEntry `yaml:"severity"`
}

// ProviderEntry is the common configuration block shared by all provider types.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "whisper", "coqui").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "large-v3").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above. Values may be strings, numbers, booleans, or nested maps.
	Options map[string]any `yaml:"options"`

	// Fallbacks lists providers tried in order when this one is tripped by
	// its circuit breaker.
	Fallbacks []ProviderEntry `yaml:"fallbacks"`
}

// TherapyConfig holds session defaults applied when a request does not
// specify them.
type TherapyConfig struct {
	// DefaultLanguage is used when a session request omits the language
	// (e.g., "en", "hi", "kn").
	DefaultLanguage string `yaml:"default_language"`

	// DefaultTier is the starting difficulty for patients with no
	// progression history.
	DefaultTier therapy.Tier `yaml:"default_tier"`

	// SessionQuota is the number of completed exercises that ends a session.
	SessionQuota int `yaml:"session_quota"`

	// BatchSize is how many exercises are handed out per fetch.
	// Defaults to SessionQuota when zero.
	BatchSize int `yaml:"batch_size"`
}

// LibraryConfig points at an optional exercise library file merged over
// the built-in exercises.
type LibraryConfig struct {
	// ExerciseFile is the path to a YAML exercise library. Exercises with
	// IDs matching built-in ones replace them.
	ExerciseFile string `yaml:"exercise_file"`
}
