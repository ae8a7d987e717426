package coqui_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kalpana-health/vaakya/pkg/provider/tts"
	"github.com/kalpana-health/vaakya/pkg/provider/tts/coqui"
	"github.com/kalpana-health/vaakya/pkg/types"
)

// TestSynthesizeQueryParams verifies the GET /api/tts query string and that
// the WAV body comes back as an AudioClip.
func TestSynthesizeQueryParams(t *testing.T) {
	t.Parallel()

	wav := []byte("RIFF....WAVEfmt ")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tts" {
			t.Errorf("path = %q, want /api/tts", r.URL.Path)
		}
		q := r.URL.Query()
		if got := q.Get("text"); got != "Say: water" {
			t.Errorf("text = %q, want %q", got, "Say: water")
		}
		if got := q.Get("language_id"); got != "en" {
			t.Errorf("language_id = %q, want en", got)
		}
		if got := q.Get("speaker_id"); got != "p225" {
			t.Errorf("speaker_id = %q, want p225", got)
		}
		w.Write(wav)
	}))
	defer srv.Close()

	p := coqui.New(srv.URL)
	clip, err := p.Synthesize(context.Background(), tts.Request{
		Text:     "Say: water",
		Language: "en",
		Voice:    types.VoiceProfile{ID: "p225"},
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(clip.Data) != string(wav) {
		t.Error("clip data does not match server response")
	}
	if clip.MIMEType != "audio/wav" {
		t.Errorf("MIMEType = %q, want audio/wav", clip.MIMEType)
	}
}

// TestSynthesizeEmptyText verifies that empty text is rejected without a
// network call.
func TestSynthesizeEmptyText(t *testing.T) {
	t.Parallel()

	p := coqui.New("http://127.0.0.1:1")
	if _, err := p.Synthesize(context.Background(), tts.Request{}); err == nil {
		t.Fatal("Synthesize succeeded with empty text")
	}
}

// TestSynthesizeServerError verifies that a non-200 status surfaces as an error.
func TestSynthesizeServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "synthesis failed", http.StatusBadGateway)
	}))
	defer srv.Close()

	p := coqui.New(srv.URL)
	if _, err := p.Synthesize(context.Background(), tts.Request{Text: "hello"}); err == nil {
		t.Fatal("Synthesize succeeded, want error on HTTP 502")
	}
}

// TestVoicesParsesDetails verifies the speaker list from GET /details.
func TestVoicesParsesDetails(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/details" {
			t.Errorf("path = %q, want /details", r.URL.Path)
		}
		w.Write([]byte(`{"speakers": ["p225", "p226"]}`))
	}))
	defer srv.Close()

	p := coqui.New(srv.URL, coqui.WithLanguage("en"))
	voices, err := p.Voices(context.Background(), "en")
	if err != nil {
		t.Fatalf("Voices: %v", err)
	}
	if len(voices) != 2 {
		t.Fatalf("len(voices) = %d, want 2", len(voices))
	}
	if voices[0].ID != "p225" || voices[0].Language != "en" {
		t.Errorf("voices[0] = %+v, want ID p225 language en", voices[0])
	}
}

// TestVoicesLanguageMismatch verifies that filtering by a language the server
// does not speak returns an empty list without a network call.
func TestVoicesLanguageMismatch(t *testing.T) {
	t.Parallel()

	p := coqui.New("http://127.0.0.1:1", coqui.WithLanguage("en"))
	voices, err := p.Voices(context.Background(), "kn")
	if err != nil {
		t.Fatalf("Voices: %v", err)
	}
	if len(voices) != 0 {
		t.Errorf("len(voices) = %d, want 0", len(voices))
	}
}
