package httpapi_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/kalpana-health/vaakya/internal/observe"
	"github.com/kalpana-health/vaakya/internal/therapy"
	"github.com/kalpana-health/vaakya/pkg/types"
)

// newMeteredAPI wires a test API onto its own meter provider so instrument
// values can be read back through the manual reader.
func newMeteredAPI(t *testing.T) (*testAPI, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return newTestAPIWith(t, m), reader
}

// findMetric locates a named metric in a collected snapshot, or nil.
func findMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) *metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// sumValue returns the single data point of an int64 sum metric.
func sumValue(t *testing.T, met *metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric %s is %T, want Sum[int64]", met.Name, met.Data)
	}
	if len(sum.DataPoints) != 1 {
		t.Fatalf("metric %s has %d data points, want 1", met.Name, len(sum.DataPoints))
	}
	return sum.DataPoints[0].Value
}

// TestTierTransitionCountedOncePerAdvancement verifies that advancing from
// easy to medium moves the transition counter exactly once, and that a repeat
// completion of the same session does not move it again.
func TestTierTransitionCountedOncePerAdvancement(t *testing.T) {
	t.Parallel()
	ta, reader := newMeteredAPI(t)

	// Ten completed exercises in a full session unlock the next tier.
	sessionID, _ := ta.startSession(t, "p-m1", "", 10)
	exID, text := ta.exerciseID(t, therapy.TierEasy)
	for i := 0; i < 10; i++ {
		ta.postJSON(t, "/api/session/"+sessionID+"/attempts", map[string]any{
			"exercise_id":   exID,
			"transcription": text,
		}).Body.Close()
	}
	ta.postJSON(t, "/api/session/"+sessionID+"/complete", struct{}{}).Body.Close()

	met := findMetric(t, reader, "vaakya.tier.transitions")
	if met == nil {
		t.Fatal("tier transition counter never recorded")
	}
	if got := sumValue(t, met); got != 1 {
		t.Errorf("transitions = %d, want 1", got)
	}
	sum := met.Data.(metricdata.Sum[int64])
	attrs := sum.DataPoints[0].Attributes
	if v, ok := attrs.Value("from"); !ok || v.AsString() != "easy" {
		t.Errorf("from attribute = %v, want easy", v.AsString())
	}
	if v, ok := attrs.Value("to"); !ok || v.AsString() != "medium" {
		t.Errorf("to attribute = %v, want medium", v.AsString())
	}

	// Completing again is idempotent and must not double-count.
	ta.postJSON(t, "/api/session/"+sessionID+"/complete", struct{}{}).Body.Close()
	met = findMetric(t, reader, "vaakya.tier.transitions")
	if got := sumValue(t, met); got != 1 {
		t.Errorf("transitions after repeat completion = %d, want still 1", got)
	}
}

// TestActiveSessionsGauge verifies the gauge goes up on start, down on
// completion, and stays put on a repeat completion.
func TestActiveSessionsGauge(t *testing.T) {
	t.Parallel()
	ta, reader := newMeteredAPI(t)

	sessionID, _ := ta.startSession(t, "p-m2", "", 3)
	met := findMetric(t, reader, "vaakya.sessions.active")
	if met == nil {
		t.Fatal("active sessions gauge never recorded")
	}
	if got := sumValue(t, met); got != 1 {
		t.Errorf("active sessions = %d, want 1 after start", got)
	}

	ta.postJSON(t, "/api/session/"+sessionID+"/complete", struct{}{}).Body.Close()
	ta.postJSON(t, "/api/session/"+sessionID+"/complete", struct{}{}).Body.Close()

	met = findMetric(t, reader, "vaakya.sessions.active")
	if got := sumValue(t, met); got != 0 {
		t.Errorf("active sessions = %d, want 0 after completion", got)
	}
}

// TestProviderDurationsRecorded verifies that ASR and TTS calls land on their
// latency histograms with the provider attribute.
func TestProviderDurationsRecorded(t *testing.T) {
	t.Parallel()
	ta, reader := newMeteredAPI(t)

	sessionID, _ := ta.startSession(t, "p-m3", "", 10)
	exID, text := ta.exerciseID(t, therapy.TierEasy)
	ta.asr.Transcript = types.Transcript{Text: text}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("exercise_id", exID)
	fw, _ := mw.CreateFormFile("audio", "attempt.wav")
	fw.Write([]byte("RIFF....WAVE"))
	mw.Close()
	resp, err := http.Post(ta.srv.URL+"/api/session/"+sessionID+"/attempts", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("POST attempt: %v", err)
	}
	resp.Body.Close()

	ta.postJSON(t, "/api/tts", map[string]any{"text": "Say: water", "language": "en"}).Body.Close()

	for _, name := range []string{"vaakya.asr.duration", "vaakya.tts.duration"} {
		met := findMetric(t, reader, name)
		if met == nil {
			t.Errorf("%s never recorded", name)
			continue
		}
		hist, ok := met.Data.(metricdata.Histogram[float64])
		if !ok {
			t.Errorf("%s is %T, want Histogram[float64]", name, met.Data)
			continue
		}
		if len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 1 {
			t.Errorf("%s data points = %+v, want one sample", name, hist.DataPoints)
			continue
		}
		if v, ok := hist.DataPoints[0].Attributes.Value("provider"); !ok || v.AsString() != "mock" {
			t.Errorf("%s provider attribute = %q, want mock", name, v.AsString())
		}
	}
}
