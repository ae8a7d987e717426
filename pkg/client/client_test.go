package client_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kalpana-health/vaakya/internal/exercise"
	"github.com/kalpana-health/vaakya/internal/httpapi"
	"github.com/kalpana-health/vaakya/internal/resilience"
	"github.com/kalpana-health/vaakya/internal/store"
	"github.com/kalpana-health/vaakya/internal/therapy"
	"github.com/kalpana-health/vaakya/pkg/client"
	"github.com/kalpana-health/vaakya/pkg/provider/asr"
	asrmock "github.com/kalpana-health/vaakya/pkg/provider/asr/mock"
	"github.com/kalpana-health/vaakya/pkg/types"
)

var breakerCfg = resilience.BreakerConfig{TripAfter: 3, Cooldown: time.Minute, ProbeBudget: 1}

// newTestClient wires a Client against a real API backed by the in-memory
// store, so the client's wire format is verified against the server's.
func newTestClient(t *testing.T, asrMock *asrmock.Provider, opts ...client.Option) (*client.Client, *store.MemoryStore) {
	t.Helper()

	mem := store.NewMemoryStore()
	api := httpapi.New(httpapi.Config{
		Store:    mem,
		Library:  exercise.NewLibrary(),
		ASR:      resilience.NewChain[asr.Provider](breakerCfg).Add("mock", asrMock),
		Defaults: httpapi.Defaults{Language: "en", Tier: therapy.TierEasy, Quota: 10},
	})
	srv := httptest.NewServer(api.Router())
	t.Cleanup(srv.Close)

	cl, err := client.New(srv.URL, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return cl, mem
}

// TestNewRejectsEmptyBaseURL verifies the constructor refuses an empty server
// address.
func TestNewRejectsEmptyBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := client.New(""); err == nil {
		t.Fatal("expected error for empty baseURL")
	}
}

// TestStartAndComplete runs a session start/complete round trip and checks
// the controller-facing result mapping.
func TestStartAndComplete(t *testing.T) {
	t.Parallel()

	cl, _ := newTestClient(t, &asrmock.Provider{})
	ctx := context.Background()

	started, err := cl.Start(ctx, "en", therapy.TierMedium, "patient-1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if started.SessionID == "" {
		t.Fatal("expected a session ID")
	}
	if started.Tier != therapy.TierMedium {
		t.Fatalf("tier = %q, want %q", started.Tier, therapy.TierMedium)
	}
	if started.Summary.CurrentTier == "" {
		t.Fatal("expected a progression snapshot")
	}

	done, err := cl.Complete(ctx, started.SessionID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	// The durable progression tier is authoritative; a fresh patient sits at
	// easy regardless of the tier this one session served.
	if done.FinalTier != therapy.TierEasy {
		t.Fatalf("final tier = %q, want %q", done.FinalTier, therapy.TierEasy)
	}
	if done.Message == "" {
		t.Fatal("expected a completion message")
	}
}

// TestStartSendsConfiguredQuota verifies WithQuota reaches the server and
// shows up in the stored session.
func TestStartSendsConfiguredQuota(t *testing.T) {
	t.Parallel()

	cl, mem := newTestClient(t, &asrmock.Provider{}, client.WithQuota(3))
	ctx := context.Background()

	started, err := cl.Start(ctx, "en", therapy.TierEasy, "patient-2")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	sess, err := mem.GetSession(ctx, started.SessionID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if sess.Quota != 3 {
		t.Fatalf("quota = %d, want 3", sess.Quota)
	}
}

// TestBatchMapsExercises verifies the exercise list maps onto the
// controller's exercise type.
func TestBatchMapsExercises(t *testing.T) {
	t.Parallel()

	cl, _ := newTestClient(t, &asrmock.Provider{})

	exercises, err := cl.Batch(context.Background(), "en", therapy.TierEasy, 3)
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if len(exercises) != 3 {
		t.Fatalf("got %d exercises, want 3", len(exercises))
	}
	for _, e := range exercises {
		if e.ID == "" || e.Prompt == "" {
			t.Fatalf("incomplete exercise: %+v", e)
		}
		if e.Tier != therapy.TierEasy {
			t.Fatalf("tier = %q, want %q", e.Tier, therapy.TierEasy)
		}
	}
}

// TestBatchUnknownLanguage verifies an unsupported language surfaces as an
// error carrying the server's message.
func TestBatchUnknownLanguage(t *testing.T) {
	t.Parallel()

	cl, _ := newTestClient(t, &asrmock.Provider{})

	_, err := cl.Batch(context.Background(), "xx", therapy.TierEasy, 3)
	if err == nil {
		t.Fatal("expected error for unknown language")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Fatalf("error = %v, want HTTP 404 mention", err)
	}
}

// TestScoreAttempt uploads a clip and checks the scored verdict mapping. The
// mock transcribes exactly the exercise prompt, so the score is perfect.
func TestScoreAttempt(t *testing.T) {
	t.Parallel()

	asrMock := &asrmock.Provider{}
	cl, _ := newTestClient(t, asrMock)
	ctx := context.Background()

	started, err := cl.Start(ctx, "en", therapy.TierEasy, "patient-3")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	exercises, err := cl.Batch(ctx, "en", therapy.TierEasy, 1)
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	asrMock.Transcript = types.Transcript{Text: exercises[0].Prompt, Language: "en"}

	clip := types.AudioClip{Data: []byte("RIFFfake"), MIMEType: "audio/wav"}
	result, err := cl.ScoreAttempt(ctx, started.SessionID, exercises[0].ID, clip)
	if err != nil {
		t.Fatalf("ScoreAttempt: %v", err)
	}
	if result.Score != 100 {
		t.Fatalf("score = %v, want 100", result.Score)
	}
	if result.Transcription != exercises[0].Prompt {
		t.Fatalf("transcription = %q, want %q", result.Transcription, exercises[0].Prompt)
	}
	if result.Feedback == "" {
		t.Fatal("expected feedback")
	}
	if len(asrMock.TranscribeCalls) != 1 {
		t.Fatalf("ASR called %d times, want 1", len(asrMock.TranscribeCalls))
	}
}

// TestScoreAttemptDoesNotRetryOnFailure verifies a failed transcription is
// surfaced once, without the client re-submitting the attempt.
func TestScoreAttemptDoesNotRetryOnFailure(t *testing.T) {
	t.Parallel()

	asrMock := &asrmock.Provider{TranscribeErr: errors.New("backend down")}
	cl, _ := newTestClient(t, asrMock)
	ctx := context.Background()

	started, err := cl.Start(ctx, "en", therapy.TierEasy, "patient-4")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	exercises, err := cl.Batch(ctx, "en", therapy.TierEasy, 1)
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}

	clip := types.AudioClip{Data: []byte("RIFFfake"), MIMEType: "audio/wav"}
	_, err = cl.ScoreAttempt(ctx, started.SessionID, exercises[0].ID, clip)
	if err == nil {
		t.Fatal("expected error when transcription fails")
	}
	if len(asrMock.TranscribeCalls) != 1 {
		t.Fatalf("ASR called %d times, want exactly 1", len(asrMock.TranscribeCalls))
	}
}

// TestCompleteIsIdempotent verifies completing twice returns the recorded
// outcome instead of failing.
func TestCompleteIsIdempotent(t *testing.T) {
	t.Parallel()

	cl, _ := newTestClient(t, &asrmock.Provider{})
	ctx := context.Background()

	started, err := cl.Start(ctx, "en", therapy.TierEasy, "patient-5")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	first, err := cl.Complete(ctx, started.SessionID)
	if err != nil {
		t.Fatalf("first Complete: %v", err)
	}
	second, err := cl.Complete(ctx, started.SessionID)
	if err != nil {
		t.Fatalf("second Complete: %v", err)
	}
	if second.FinalTier != first.FinalTier {
		t.Fatalf("final tier changed on repeat: %q vs %q", second.FinalTier, first.FinalTier)
	}
}
