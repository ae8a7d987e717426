// Command vaakyad is the main entry point for the Vaakya speech therapy server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kalpana-health/vaakya/internal/app"
	"github.com/kalpana-health/vaakya/internal/config"
	"github.com/kalpana-health/vaakya/internal/resilience"
	"github.com/kalpana-health/vaakya/pkg/provider/asr"
	asrmock "github.com/kalpana-health/vaakya/pkg/provider/asr/mock"
	"github.com/kalpana-health/vaakya/pkg/provider/asr/whisper"
	"github.com/kalpana-health/vaakya/pkg/provider/severity"
	"github.com/kalpana-health/vaakya/pkg/provider/severity/heuristic"
	"github.com/kalpana-health/vaakya/pkg/provider/severity/model"
	sevmock "github.com/kalpana-health/vaakya/pkg/provider/severity/mock"
	"github.com/kalpana-health/vaakya/pkg/provider/tts"
	"github.com/kalpana-health/vaakya/pkg/provider/tts/coqui"
	ttsmock "github.com/kalpana-health/vaakya/pkg/provider/tts/mock"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "vaakyad: config file %q not found, copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "vaakyad: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("vaakyad starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	// ── Provider chains ───────────────────────────────────────────────────────
	chains, err := buildChains(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Config watcher ────────────────────────────────────────────────────────
	// Only the log level is applied live; other changes need a restart.
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		if new.Server.LogLevel != old.Server.LogLevel {
			slog.SetDefault(newLogger(new.Server.LogLevel))
			slog.Info("log level changed", "from", old.Server.LogLevel, "to", new.Server.LogLevel)
		} else {
			slog.Warn("config file changed, restart to apply")
		}
	})
	if err != nil {
		slog.Error("failed to watch config file", "err", err)
		return 1
	}
	defer watcher.Stop()

	// ── Startup summary ───────────────────────────────────────────────────────
	printStartupSummary(cfg)

	application, err := app.New(ctx, cfg, chains)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}
	if application.Degraded() {
		slog.Warn("running in degraded mode, session data is not persisted")
	}

	slog.Info("server ready, press Ctrl+C to shut down")

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutdown signal received, stopping")

	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// builtinProviders maps provider kind names to the implementations that ship
// with Vaakya. Used for startup logging.
var builtinProviders = map[string][]string{
	"asr":      {"whisper", "mock"},
	"tts":      {"coqui", "mock"},
	"severity": {"model", "heuristic", "mock"},
}

// registerBuiltinProviders wires all built-in provider factories into reg.
// Each factory receives a config.ProviderEntry and constructs the matching
// provider from the real implementation packages.
func registerBuiltinProviders(reg *config.Registry) {
	// ── ASR ───────────────────────────────────────────────────────────────────

	reg.RegisterASR("whisper", func(entry config.ProviderEntry) (asr.Provider, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		return whisper.New(entry.BaseURL, opts...)
	})

	reg.RegisterASR("mock", func(entry config.ProviderEntry) (asr.Provider, error) {
		return &asrmock.Provider{}, nil
	})

	// ── TTS ───────────────────────────────────────────────────────────────────

	reg.RegisterTTS("coqui", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []coqui.Option
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, coqui.WithLanguage(lang))
		}
		return coqui.New(entry.BaseURL, opts...), nil
	})

	reg.RegisterTTS("mock", func(entry config.ProviderEntry) (tts.Provider, error) {
		return &ttsmock.Provider{}, nil
	})

	// ── Severity ──────────────────────────────────────────────────────────────

	reg.RegisterSeverity("model", func(entry config.ProviderEntry) (severity.Provider, error) {
		var opts []model.Option
		if entry.APIKey != "" {
			opts = append(opts, model.WithAPIKey(entry.APIKey))
		}
		if entry.Model != "" {
			opts = append(opts, model.WithModel(entry.Model))
		}
		return model.New(entry.BaseURL, opts...)
	})

	reg.RegisterSeverity("heuristic", func(entry config.ProviderEntry) (severity.Provider, error) {
		return heuristic.New(), nil
	})

	reg.RegisterSeverity("mock", func(entry config.ProviderEntry) (severity.Provider, error) {
		return &sevmock.Provider{}, nil
	})

	// Debug log of all registered providers.
	for kind, names := range builtinProviders {
		for _, name := range names {
			slog.Debug("registered provider", "kind", kind, "name", name)
		}
	}
}

// buildChains instantiates every provider named in cfg, primaries first and
// fallbacks after, and hands the assembled chains to the application. A kind
// with no configured provider yields a nil chain, which disables the
// endpoints that need it.
func buildChains(cfg *config.Config, reg *config.Registry) (*app.Chains, error) {
	chains := &app.Chains{}
	breakerCfg := resilience.BreakerConfig{}

	if cfg.Providers.ASR.Name != "" {
		chain := resilience.NewChain[asr.Provider](breakerCfg)
		for _, entry := range flatten(cfg.Providers.ASR) {
			p, err := reg.CreateASR(entry)
			if err != nil {
				return nil, fmt.Errorf("create asr provider %q: %w", entry.Name, err)
			}
			chain.Add(entry.Name, p)
			slog.Info("provider created", "kind", "asr", "name", entry.Name)
		}
		chains.ASR = chain
	}

	if cfg.Providers.TTS.Name != "" {
		chain := resilience.NewChain[tts.Provider](breakerCfg)
		for _, entry := range flatten(cfg.Providers.TTS) {
			p, err := reg.CreateTTS(entry)
			if err != nil {
				return nil, fmt.Errorf("create tts provider %q: %w", entry.Name, err)
			}
			chain.Add(entry.Name, p)
			slog.Info("provider created", "kind", "tts", "name", entry.Name)
		}
		chains.TTS = chain
	}

	if cfg.Providers.Severity.Name != "" {
		chain := resilience.NewChain[severity.Provider](breakerCfg)
		for _, entry := range flatten(cfg.Providers.Severity) {
			p, err := reg.CreateSeverity(entry)
			if err != nil {
				return nil, fmt.Errorf("create severity provider %q: %w", entry.Name, err)
			}
			chain.Add(entry.Name, p)
			slog.Info("provider created", "kind", "severity", "name", entry.Name)
		}
		chains.Severity = chain
	}

	return chains, nil
}

// flatten returns the entry followed by its fallbacks in configured order.
func flatten(entry config.ProviderEntry) []config.ProviderEntry {
	out := []config.ProviderEntry{entry}
	return append(out, entry.Fallbacks...)
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║          Vaakya — startup summary     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("ASR", cfg.Providers.ASR)
	printProvider("TTS", cfg.Providers.TTS)
	printProvider("Severity", cfg.Providers.Severity)
	if cfg.Storage.PostgresDSN != "" {
		fmt.Printf("║  Storage      : %-22s ║\n", "postgres")
	} else {
		fmt.Printf("║  Storage      : %-22s ║\n", "in-memory")
	}
	fmt.Printf("║  Default tier : %-22s ║\n", cfg.Therapy.DefaultTier)
	fmt.Printf("║  Session quota: %-22d ║\n", cfg.Therapy.SessionQuota)
	if cfg.Server.ListenAddr != "" {
		fmt.Printf("║  Listen addr  : %-22s ║\n", cfg.Server.ListenAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind string, entry config.ProviderEntry) {
	value := entry.Name
	if value == "" {
		value = "(not configured)"
	} else if entry.Model != "" {
		value = entry.Name + " / " + entry.Model
	}
	for _, fb := range entry.Fallbacks {
		value += " → " + fb.Name
	}
	if len(value) > 22 {
		value = value[:19] + "…"
	}
	fmt.Printf("║  %-8s     : %-22s ║\n", kind, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// optString extracts a string value from a provider Options map[string]any.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	v, ok := opts[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
