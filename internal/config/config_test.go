package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kalpana-health/vaakya/internal/config"
	"github.com/kalpana-health/vaakya/internal/therapy"
	"github.com/kalpana-health/vaakya/pkg/provider/asr"
	asrmock "github.com/kalpana-health/vaakya/pkg/provider/asr/mock"
	"github.com/kalpana-health/vaakya/pkg/types"
)

const validYAML = `
server:
  listen_addr: ":8080"
  log_level: info
  cors_allowed_origins: ["https://app.example.com"]
storage:
  postgres_dsn: "postgres://vaakya@localhost/vaakya"
  fallback_memory: true
providers:
  asr:
    name: whisper
    base_url: "http://localhost:8081"
  tts:
    name: coqui
    base_url: "http://localhost:5002"
  severity:
    name: model
    base_url: "http://localhost:9000"
    fallbacks:
      - name: heuristic
therapy:
  default_language: kn
  default_tier: easy
  session_quota: 10
library:
  exercise_file: ""
`

// TestLoadFromReaderValid verifies that a complete config parses and keeps
// its values.
func TestLoadFromReaderValid(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want :8080", cfg.Server.ListenAddr)
	}
	if cfg.Providers.Severity.Name != "model" {
		t.Errorf("severity provider = %q, want model", cfg.Providers.Severity.Name)
	}
	if len(cfg.Providers.Severity.Fallbacks) != 1 || cfg.Providers.Severity.Fallbacks[0].Name != "heuristic" {
		t.Errorf("severity fallbacks = %+v, want [heuristic]", cfg.Providers.Severity.Fallbacks)
	}
	if cfg.Therapy.DefaultTier != therapy.TierEasy {
		t.Errorf("DefaultTier = %q, want easy", cfg.Therapy.DefaultTier)
	}
}

// TestLoadFromReaderUnknownField verifies that unrecognised YAML keys are
// rejected rather than silently ignored.
func TestLoadFromReaderUnknownField(t *testing.T) {
	t.Parallel()

	_, err := config.LoadFromReader(strings.NewReader("server:\n  listen_adr: \":8080\"\n"))
	if err == nil {
		t.Fatal("LoadFromReader accepted a misspelled key")
	}
}

// TestValidateJoinsErrors verifies that all validation failures are reported
// together.
func TestValidateJoinsErrors(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Server.LogLevel = "verbose"
	cfg.Therapy.DefaultTier = "expert"
	cfg.Therapy.SessionQuota = -1

	err := config.Validate(cfg)
	if err == nil {
		t.Fatal("Validate accepted invalid config")
	}
	for _, want := range []string{"server.log_level", "therapy.default_tier", "therapy.session_quota"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

// TestValidateTLSRequiresBothFiles verifies the cert/key pairing check.
func TestValidateTLSRequiresBothFiles(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Server.TLS = &config.TLSConfig{CertFile: "server.crt"}
	err := config.Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "key_file") {
		t.Fatalf("Validate = %v, want key_file error", err)
	}
}

// TestApplyEnvOverridesSecrets verifies that environment variables win over
// file values. Not parallel: t.Setenv mutates process state.
func TestApplyEnvOverridesSecrets(t *testing.T) {
	t.Setenv("VAAKYA_POSTGRES_DSN", "postgres://env@localhost/envdb")
	t.Setenv("VAAKYA_ASR_API_KEY", "from-env")

	cfg := &config.Config{}
	cfg.Storage.PostgresDSN = "postgres://file@localhost/filedb"
	config.ApplyEnv(cfg)

	if cfg.Storage.PostgresDSN != "postgres://env@localhost/envdb" {
		t.Errorf("PostgresDSN = %q, want env value", cfg.Storage.PostgresDSN)
	}
	if cfg.Providers.ASR.APIKey != "from-env" {
		t.Errorf("ASR APIKey = %q, want from-env", cfg.Providers.ASR.APIKey)
	}
}

// TestRegistryCreateASR verifies factory lookup by name and the error for
// unregistered names.
func TestRegistryCreateASR(t *testing.T) {
	t.Parallel()

	reg := config.NewRegistry()
	reg.RegisterASR("mock", func(entry config.ProviderEntry) (asr.Provider, error) {
		return &asrmock.Provider{Transcript: types.Transcript{Text: entry.Model}}, nil
	})

	p, err := reg.CreateASR(config.ProviderEntry{Name: "mock", Model: "tiny"})
	if err != nil {
		t.Fatalf("CreateASR: %v", err)
	}
	got, err := p.Transcribe(context.Background(), asr.Request{})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got.Text != "tiny" {
		t.Errorf("factory did not receive entry: Text = %q", got.Text)
	}

	_, err = reg.CreateASR(config.ProviderEntry{Name: "missing"})
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("CreateASR(missing) = %v, want ErrProviderNotRegistered", err)
	}
}

// TestWatcherReloadsOnChange verifies that editing the file triggers the
// onChange callback with the new config.
func TestWatcherReloadsOnChange(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "vaakya.yaml")
	if err := os.WriteFile(path, []byte("server:\n  listen_addr: \":8080\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	changed := make(chan *config.Config, 1)
	w, err := config.NewWatcher(path, func(_, cfg *config.Config) {
		changed <- cfg
	}, config.WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	if got := w.Current().Server.ListenAddr; got != ":8080" {
		t.Fatalf("initial ListenAddr = %q, want :8080", got)
	}

	// Backdate then rewrite so the mtime check cannot miss the change on
	// filesystems with coarse timestamps.
	past := time.Now().Add(-time.Minute)
	os.Chtimes(path, past, past)
	if err := os.WriteFile(path, []byte("server:\n  listen_addr: \":9090\"\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-changed:
		if cfg.Server.ListenAddr != ":9090" {
			t.Errorf("reloaded ListenAddr = %q, want :9090", cfg.Server.ListenAddr)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the change")
	}
}

// TestWatcherKeepsOldOnInvalid verifies that a broken rewrite does not
// replace the last good config.
func TestWatcherKeepsOldOnInvalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "vaakya.yaml")
	if err := os.WriteFile(path, []byte("server:\n  listen_addr: \":8080\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	w, err := config.NewWatcher(path, nil, config.WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	past := time.Now().Add(-time.Minute)
	os.Chtimes(path, past, past)
	if err := os.WriteFile(path, []byte("server:\n  log_level: shouty\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	// Give the poller a few cycles to notice and reject the bad file.
	time.Sleep(100 * time.Millisecond)

	if got := w.Current().Server.ListenAddr; got != ":8080" {
		t.Errorf("Current().ListenAddr = %q, want the pre-edit value", got)
	}
}
