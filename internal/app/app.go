// Package app wires all Vaakya subsystems into a running server.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves HTTP until the context is cancelled, and Shutdown
// tears everything down in order.
//
// For testing, inject doubles via functional options (WithStore,
// WithLibrary, etc.). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/kalpana-health/vaakya/internal/config"
	"github.com/kalpana-health/vaakya/internal/exercise"
	"github.com/kalpana-health/vaakya/internal/health"
	"github.com/kalpana-health/vaakya/internal/httpapi"
	"github.com/kalpana-health/vaakya/internal/observe"
	"github.com/kalpana-health/vaakya/internal/resilience"
	"github.com/kalpana-health/vaakya/internal/store"
	"github.com/kalpana-health/vaakya/pkg/provider/asr"
	"github.com/kalpana-health/vaakya/pkg/provider/severity"
	"github.com/kalpana-health/vaakya/pkg/provider/tts"
)

// Chains holds the provider fallback chains assembled by main.go from the
// config registry. A nil chain disables the endpoints that need it.
type Chains struct {
	ASR      *resilience.Chain[asr.Provider]
	TTS      *resilience.Chain[tts.Provider]
	Severity *resilience.Chain[severity.Provider]
}

// App owns all subsystem lifetimes.
type App struct {
	cfg    *config.Config
	chains *Chains

	// Subsystems, initialised in New and torn down in Shutdown.
	store    store.Store
	pool     *pgxpool.Pool
	library  *exercise.Library
	metrics  *observe.Metrics
	health   *health.Handler
	api      *httpapi.API
	server   *http.Server
	degraded bool

	// closers are called in reverse order during Shutdown.
	closers []func(context.Context) error

	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithStore injects a store instead of creating one from config.
func WithStore(s store.Store) Option {
	return func(a *App) { a.store = s }
}

// WithLibrary injects an exercise library instead of loading from config.
func WithLibrary(l *exercise.Library) Option {
	return func(a *App) { a.library = l }
}

// WithMetrics injects a metrics set instead of initialising the OTel provider.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// New creates an App by wiring all subsystems together. The chains struct
// comes from main.go (populated via the config registry).
func New(ctx context.Context, cfg *config.Config, chains *Chains, opts ...Option) (*App, error) {
	a := &App{
		cfg:    cfg,
		chains: chains,
	}
	if a.chains == nil {
		a.chains = &Chains{}
	}
	for _, o := range opts {
		o(a)
	}

	if err := a.initObservability(ctx); err != nil {
		return nil, fmt.Errorf("app: init observability: %w", err)
	}
	if err := a.initStore(ctx); err != nil {
		return nil, fmt.Errorf("app: init store: %w", err)
	}
	if err := a.initLibrary(); err != nil {
		return nil, fmt.Errorf("app: init library: %w", err)
	}
	a.initHealth()
	a.initServer()

	return a, nil
}

// initObservability sets up the OTel meter and trace providers unless a
// metrics set was injected.
func (a *App) initObservability(ctx context.Context) error {
	if a.metrics != nil {
		return nil
	}
	shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{})
	if err != nil {
		return err
	}
	a.closers = append(a.closers, shutdown)
	a.metrics = observe.DefaultMetrics()
	return nil
}

// initStore connects to PostgreSQL and migrates the schema. When the
// database is unreachable and fallback_memory is set, the server comes up on
// the in-memory store in degraded mode rather than refusing to start.
func (a *App) initStore(ctx context.Context) error {
	if a.store != nil {
		return nil
	}

	dsn := a.cfg.Storage.PostgresDSN
	if dsn == "" {
		slog.Warn("no postgres_dsn configured, using in-memory store")
		a.store = store.NewMemoryStore()
		return nil
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err == nil {
		err = pool.Ping(ctx)
	}
	if err != nil {
		if !a.cfg.Storage.FallbackMemory {
			return fmt.Errorf("connect postgres: %w", err)
		}
		slog.Error("postgres unreachable, running degraded on the in-memory store", "err", err)
		a.store = store.NewMemoryStore()
		a.degraded = true
		return nil
	}

	pg := store.NewPostgresStore(pool)
	if err := pg.Migrate(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("migrate schema: %w", err)
	}

	a.pool = pool
	a.store = pg
	a.closers = append(a.closers, func(context.Context) error {
		pool.Close()
		return nil
	})
	return nil
}

// initLibrary seeds the built-in exercises and merges the configured library
// file over them.
func (a *App) initLibrary() error {
	if a.library == nil {
		a.library = exercise.NewLibrary()
	}
	if path := a.cfg.Library.ExerciseFile; path != "" {
		if err := a.library.LoadFile(path); err != nil {
			return err
		}
		slog.Info("loaded exercise library", "path", path)
	}
	return nil
}

// initHealth registers the readiness checks. The database check is
// degradable: losing PostgreSQL degrades the service but does not take it
// out of rotation, because sessions keep working on the in-memory store.
func (a *App) initHealth() {
	checks := []health.Check{
		{
			Name: "exercise_library",
			Probe: func(context.Context) error {
				if len(a.library.Languages()) == 0 {
					return errors.New("exercise library is empty")
				}
				return nil
			},
		},
	}
	if a.pool != nil {
		checks = append(checks, health.Check{
			Name:       "postgres",
			Probe:      a.pool.Ping,
			Degradable: true,
		})
	} else if a.degraded {
		checks = append(checks, health.Check{
			Name:       "postgres",
			Probe:      func(context.Context) error { return errors.New("running on in-memory fallback") },
			Degradable: true,
		})
	}
	a.health = health.New(checks...)
}

// initServer assembles the HTTP API and server.
func (a *App) initServer() {
	a.api = httpapi.New(httpapi.Config{
		Store:    a.store,
		Library:  a.library,
		ASR:      a.chains.ASR,
		TTS:      a.chains.TTS,
		Severity: a.chains.Severity,
		Metrics:  a.metrics,
		Health:   a.health,
		Defaults: httpapi.Defaults{
			Language: a.cfg.Therapy.DefaultLanguage,
			Tier:     a.cfg.Therapy.DefaultTier,
			Quota:    a.cfg.Therapy.SessionQuota,
		},
		CORSAllowedOrigins: a.cfg.Server.CORSAllowedOrigins,
	})

	addr := a.cfg.Server.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	a.server = &http.Server{
		Addr:         addr,
		Handler:      a.api.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // WebSocket event streams stay open indefinitely
		IdleTimeout:  2 * time.Minute,
	}
}

// API exposes the HTTP API, mainly for tests.
func (a *App) API() *httpapi.API { return a.api }

// Store exposes the active store, mainly for tests.
func (a *App) Store() store.Store { return a.store }

// Degraded reports whether the app fell back to the in-memory store.
func (a *App) Degraded() bool { return a.degraded }

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server listening", "addr", a.server.Addr)
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			err = a.server.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = a.server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.server.Shutdown(drainCtx)
	})

	return g.Wait()
}

// Shutdown releases all subsystem resources in reverse initialisation order.
// Safe to call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	a.stopOnce.Do(func() {
		for i := len(a.closers) - 1; i >= 0; i-- {
			if err := a.closers[i](ctx); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
