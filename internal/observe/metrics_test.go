package observe_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kalpana-health/vaakya/internal/observe"
)

// TestNewMetrics verifies all instruments initialise against a fresh meter
// provider.
func TestNewMetrics(t *testing.T) {
	t.Parallel()
	mp := sdkmetric.NewMeterProvider()
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	// Exercise the convenience recorders; they must not panic.
	ctx := context.Background()
	m.RecordAttempt(ctx, "hi", "easy", 82.5, "ok")
	m.RecordAttempt(ctx, "hi", "easy", 0, "error")
	m.RecordTierTransition(ctx, "easy", "medium")
	m.RecordProviderError(ctx, "whisper", "asr")
	m.ActiveSessions.Add(ctx, 1)
	m.ActiveSessions.Add(ctx, -1)
}

// TestMiddleware_SetsCorrelationHeaderAndServes verifies the middleware
// passes the request through and captures the downstream status.
func TestMiddleware_SetsCorrelationHeaderAndServes(t *testing.T) {
	t.Parallel()
	mp := sdkmetric.NewMeterProvider()
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	handler := observe.Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/languages", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rec.Code)
	}
}
