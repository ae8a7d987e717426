// Package observe provides observability for the therapy service:
// OpenTelemetry metrics, tracing helpers, and HTTP middleware tying them
// together.
//
// Metrics are recorded through the OpenTelemetry Metrics API and exported via
// a Prometheus bridge (see [InitProvider]) so the standard /metrics endpoint
// keeps working. A package-level default [Metrics] instance is provided for
// convenience; tests should call [NewMetrics] with their own
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name for all service metrics.
const meterName = "github.com/kalpana-health/vaakya"

// Metrics holds the service's OTel metric instruments. All fields are safe
// for concurrent use.
type Metrics struct {
	// ASRDuration tracks speech-recognition latency per attempt.
	ASRDuration metric.Float64Histogram

	// TTSDuration tracks feedback-audio synthesis latency.
	TTSDuration metric.Float64Histogram

	// SeverityDuration tracks severity-model inference latency.
	SeverityDuration metric.Float64Histogram

	// AttemptScore distributes the accuracy of scored attempts. Use with
	// attribute.String("language", ...) and attribute.String("tier", ...).
	AttemptScore metric.Float64Histogram

	// Attempts counts scored attempts by language, tier, and status.
	Attempts metric.Int64Counter

	// TierTransitions counts confirmed difficulty changes by direction.
	TierTransitions metric.Int64Counter

	// ProviderErrors counts speech-provider failures by provider and kind.
	ProviderErrors metric.Int64Counter

	// ActiveSessions tracks sessions currently in progress.
	ActiveSessions metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time by method and
	// route.
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram boundaries (seconds) sized for speech
// round trips: ASR on a few seconds of audio sits in the 0.5-5s range.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20,
}

// scoreBuckets covers the accuracy percentage range with the tier thresholds
// as boundaries.
var scoreBuckets = []float64{10, 25, 40, 51, 60, 70, 76, 85, 90, 95}

// NewMetrics creates a fully initialised [Metrics] using the given
// [metric.MeterProvider].
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.ASRDuration, err = m.Float64Histogram("vaakya.asr.duration",
		metric.WithDescription("Latency of speech recognition per attempt."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TTSDuration, err = m.Float64Histogram("vaakya.tts.duration",
		metric.WithDescription("Latency of feedback audio synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SeverityDuration, err = m.Float64Histogram("vaakya.severity.duration",
		metric.WithDescription("Latency of severity model inference."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.AttemptScore, err = m.Float64Histogram("vaakya.attempt.score",
		metric.WithDescription("Accuracy distribution of scored attempts by language and tier."),
		metric.WithExplicitBucketBoundaries(scoreBuckets...),
	); err != nil {
		return nil, err
	}

	if met.Attempts, err = m.Int64Counter("vaakya.attempts",
		metric.WithDescription("Scored attempts by language, tier, and status."),
	); err != nil {
		return nil, err
	}
	if met.TierTransitions, err = m.Int64Counter("vaakya.tier.transitions",
		metric.WithDescription("Confirmed difficulty tier changes by direction."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("vaakya.provider.errors",
		metric.WithDescription("Speech provider failures by provider and kind."),
	); err != nil {
		return nil, err
	}

	if met.ActiveSessions, err = m.Int64UpDownCounter("vaakya.sessions.active",
		metric.WithDescription("Therapy sessions currently in progress."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("vaakya.http.request.duration",
		metric.WithDescription("HTTP request latency by method and route."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics], created on first call
// from the global meter provider. Panics if instrument creation fails, which
// cannot happen with the global provider.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordAttempt records one scored attempt: the counter and the score
// histogram, with the shared attribute set.
func (m *Metrics) RecordAttempt(ctx context.Context, language, tier string, score float64, status string) {
	attrs := metric.WithAttributes(
		attribute.String("language", language),
		attribute.String("tier", tier),
		attribute.String("status", status),
	)
	m.Attempts.Add(ctx, 1, attrs)
	if status == "ok" {
		m.AttemptScore.Record(ctx, score, metric.WithAttributes(
			attribute.String("language", language),
			attribute.String("tier", tier),
		))
	}
}

// RecordTierTransition records a confirmed difficulty change.
func (m *Metrics) RecordTierTransition(ctx context.Context, from, to string) {
	m.TierTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// RecordProviderDuration records one provider call's latency on the
// histogram for its kind. Failed calls are recorded too, so a slow failing
// provider is visible before its breaker trips.
func (m *Metrics) RecordProviderDuration(ctx context.Context, kind, provider string, seconds float64) {
	attrs := metric.WithAttributes(attribute.String("provider", provider))
	switch kind {
	case "asr":
		m.ASRDuration.Record(ctx, seconds, attrs)
	case "tts":
		m.TTSDuration.Record(ctx, seconds, attrs)
	case "severity":
		m.SeverityDuration.Record(ctx, seconds, attrs)
	}
}

// SessionStarted moves the active-sessions gauge up by one.
func (m *Metrics) SessionStarted(ctx context.Context) {
	m.ActiveSessions.Add(ctx, 1)
}

// SessionEnded moves the active-sessions gauge down by one. Callers must
// pair it with exactly one SessionStarted.
func (m *Metrics) SessionEnded(ctx context.Context) {
	m.ActiveSessions.Add(ctx, -1)
}

// RecordProviderError records a speech-provider failure.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("kind", kind),
	))
}
