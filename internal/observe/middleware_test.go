package observe_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kalpana-health/vaakya/internal/observe"
)

// traceSetup installs an in-memory span exporter as the global tracer
// provider and restores the previous one on cleanup. Tests using it must not
// run in parallel.
func traceSetup(t *testing.T) (*observe.Metrics, *tracetest.InMemoryExporter) {
	t.Helper()

	mp := sdkmetric.NewMeterProvider()
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	origTP := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(origTP) })

	return m, exp
}

// spanAttr returns the string value of the named attribute on the first
// recorded span, or "" when absent.
func spanAttr(t *testing.T, exp *tracetest.InMemoryExporter, key string) string {
	t.Helper()
	spans := exp.GetSpans()
	if len(spans) == 0 {
		t.Fatal("no spans recorded")
	}
	for _, a := range spans[0].Attributes {
		if string(a.Key) == key {
			return a.Value.AsString()
		}
	}
	return ""
}

func TestMiddleware_TagsSessionIDOnSpan(t *testing.T) {
	m, exp := traceSetup(t)
	handler := observe.Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/session/sess-42/complete", nil))

	if got := spanAttr(t, exp, "vaakya.session_id"); got != "sess-42" {
		t.Errorf("vaakya.session_id = %q, want %q", got, "sess-42")
	}
}

func TestMiddleware_StartEndpointHasNoSessionID(t *testing.T) {
	m, exp := traceSetup(t)
	handler := observe.Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/session/start", nil))

	if got := spanAttr(t, exp, "vaakya.session_id"); got != "" {
		t.Errorf("vaakya.session_id = %q, want empty on the start endpoint", got)
	}
}

func TestMiddleware_TagsLanguageOnSpan(t *testing.T) {
	m, exp := traceSetup(t)
	handler := observe.Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/exercises?language=hi&tier=easy", nil))

	if got := spanAttr(t, exp, "vaakya.language"); got != "hi" {
		t.Errorf("vaakya.language = %q, want %q", got, "hi")
	}
}
