// Package httpapi exposes the therapy server's REST and WebSocket surface.
//
// The API is stateless between requests: every handler loads what it needs
// from the store, so multiple server replicas can sit behind one load
// balancer. Clients drive the session flow (start, attempts, completion)
// and subscribe to per-session WebSocket events for live updates.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kalpana-health/vaakya/internal/exercise"
	"github.com/kalpana-health/vaakya/internal/health"
	"github.com/kalpana-health/vaakya/internal/observe"
	"github.com/kalpana-health/vaakya/internal/resilience"
	"github.com/kalpana-health/vaakya/internal/store"
	"github.com/kalpana-health/vaakya/internal/therapy"
	"github.com/kalpana-health/vaakya/pkg/provider/asr"
	"github.com/kalpana-health/vaakya/pkg/provider/severity"
	"github.com/kalpana-health/vaakya/pkg/provider/tts"
)

const (
	defaultLanguage = "en"
	defaultQuota    = 10

	// maxAudioBytes caps uploaded attempt recordings. Clips are short
	// utterances; anything bigger is a client bug.
	maxAudioBytes = 10 << 20
)

// Defaults are the session parameters applied when a request omits them.
type Defaults struct {
	Language string
	Tier     therapy.Tier
	Quota    int
}

// Config assembles the API's collaborators.
type Config struct {
	Store    store.Store
	Library  *exercise.Library
	ASR      *resilience.Chain[asr.Provider]
	TTS      *resilience.Chain[tts.Provider]
	Severity *resilience.Chain[severity.Provider]
	Metrics  *observe.Metrics
	Health   *health.Handler
	Defaults Defaults

	// CORSAllowedOrigins is passed to the CORS middleware. Empty allows any
	// origin.
	CORSAllowedOrigins []string
}

// API is the HTTP handler set for the therapy server.
type API struct {
	store    store.Store
	library  *exercise.Library
	asr      *resilience.Chain[asr.Provider]
	tts      *resilience.Chain[tts.Provider]
	severity *resilience.Chain[severity.Provider]
	metrics  *observe.Metrics
	health   *health.Handler
	hub      *Hub
	defaults Defaults
	cors     []string
}

// New builds the API. Store and Library are required; nil provider chains
// disable the endpoints that need them (attempts then require a client-side
// transcription).
func New(cfg Config) *API {
	d := cfg.Defaults
	if d.Language == "" {
		d.Language = defaultLanguage
	}
	if !d.Tier.IsValid() {
		d.Tier = therapy.TierEasy
	}
	if d.Quota <= 0 {
		d.Quota = defaultQuota
	}
	m := cfg.Metrics
	if m == nil {
		m = observe.DefaultMetrics()
	}
	return &API{
		store:    cfg.Store,
		library:  cfg.Library,
		asr:      cfg.ASR,
		tts:      cfg.TTS,
		severity: cfg.Severity,
		metrics:  m,
		health:   cfg.Health,
		hub:      NewHub(),
		defaults: d,
		cors:     cfg.CORSAllowedOrigins,
	}
}

// Hub returns the WebSocket event hub so other components can publish.
func (a *API) Hub() *Hub { return a.hub }

// Router assembles the chi router with the full middleware stack.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsMiddleware(a.cors))
	r.Use(observe.Middleware(a.metrics))

	if a.health != nil {
		r.Get("/healthz", a.health.Healthz)
		r.Get("/readyz", a.health.Readyz)
	}
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/languages", a.Languages)
		r.Get("/difficulties", a.Difficulties)
		r.Get("/exercises", a.Exercises)

		r.Route("/session", func(r chi.Router) {
			r.Post("/start", a.StartSession)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", a.GetSession)
				r.Post("/attempts", a.SubmitAttempt)
				r.Post("/complete", a.CompleteSession)
				r.Get("/events", a.SessionEvents)
			})
		})

		r.Route("/assessment", func(r chi.Router) {
			r.Get("/word", a.AssessmentWord)
			r.Post("/score", a.AssessmentScore)
			r.Post("/complete", a.AssessmentComplete)
			r.Get("/latest", a.AssessmentLatest)
		})

		r.Post("/tts", a.Speak)
	})

	return r
}

// transcribe runs the clip through the ASR chain, falling through to the
// next provider when one is tripped.
func (a *API) transcribe(ctx context.Context, req asr.Request) (string, error) {
	t, err := resilience.DoResult(a.asr, func(name string, p asr.Provider) (string, error) {
		start := time.Now()
		tr, err := p.Transcribe(ctx, req)
		a.metrics.RecordProviderDuration(ctx, "asr", name, time.Since(start).Seconds())
		if err != nil {
			a.metrics.RecordProviderError(ctx, name, "asr")
			return "", err
		}
		return tr.Text, nil
	})
	return t, err
}
