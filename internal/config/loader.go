package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"asr":      {"whisper", "mock"},
	"tts":      {"coqui", "mock"},
	"severity": {"model", "heuristic", "mock"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. Environment variables (optionally sourced from a .env file next
// to the process) override the secrets in the file; see [ApplyEnv].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	ApplyEnv(cfg)
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables onto cfg so secrets can stay out
// of the config file. A .env file in the working directory is loaded first
// if present; real environment variables win over .env entries.
func ApplyEnv(cfg *Config) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("config: cannot read .env file", "err", err)
	}

	if v := os.Getenv("VAAKYA_LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("VAAKYA_POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := os.Getenv("VAAKYA_ASR_API_KEY"); v != "" {
		cfg.Providers.ASR.APIKey = v
	}
	if v := os.Getenv("VAAKYA_TTS_API_KEY"); v != "" {
		cfg.Providers.TTS.APIKey = v
	}
	if v := os.Getenv("VAAKYA_SEVERITY_API_KEY"); v != "" {
		cfg.Providers.Severity.APIKey = v
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" {
			errs = append(errs, errors.New("server.tls.cert_file is required when tls is set"))
		}
		if cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls.key_file is required when tls is set"))
		}
	}

	// Unknown provider names warn rather than fail.
	validateProviderName("asr", cfg.Providers.ASR)
	validateProviderName("tts", cfg.Providers.TTS)
	validateProviderName("severity", cfg.Providers.Severity)

	if cfg.Providers.ASR.Name == "" {
		slog.Warn("no ASR provider configured; attempts must carry their own transcription")
	}

	// Therapy defaults
	if cfg.Therapy.DefaultTier != "" && !cfg.Therapy.DefaultTier.IsValid() {
		errs = append(errs, fmt.Errorf("therapy.default_tier %q is invalid; valid values: easy, medium, hard", cfg.Therapy.DefaultTier))
	}
	if cfg.Therapy.SessionQuota < 0 {
		errs = append(errs, fmt.Errorf("therapy.session_quota %d must not be negative", cfg.Therapy.SessionQuota))
	}
	if cfg.Therapy.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("therapy.batch_size %d must not be negative", cfg.Therapy.BatchSize))
	}
	if cfg.Therapy.BatchSize > 0 && cfg.Therapy.SessionQuota > 0 && cfg.Therapy.BatchSize > cfg.Therapy.SessionQuota {
		slog.Warn("therapy.batch_size exceeds session_quota; surplus exercises will never be served",
			"batch_size", cfg.Therapy.BatchSize,
			"session_quota", cfg.Therapy.SessionQuota,
		)
	}

	// Storage
	if cfg.Storage.PostgresDSN == "" && !cfg.Storage.FallbackMemory {
		slog.Warn("storage.postgres_dsn is empty; sessions and progress will not survive restarts")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// validateProviderName warns when a provider name is not in the known list
// for its kind. Unknown names are not an error so out-of-tree providers can
// still be registered.
func validateProviderName(kind string, entry ProviderEntry) {
	check := func(name string) {
		if name == "" {
			return
		}
		if !slices.Contains(ValidProviderNames[kind], name) {
			slog.Warn("unrecognised provider name; make sure a factory is registered for it",
				"kind", kind, "name", name)
		}
	}
	check(entry.Name)
	for _, fb := range entry.Fallbacks {
		check(fb.Name)
	}
}
