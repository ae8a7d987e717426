package whisper_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kalpana-health/vaakya/pkg/provider/asr"
	"github.com/kalpana-health/vaakya/pkg/provider/asr/whisper"
	"github.com/kalpana-health/vaakya/pkg/types"
)

var clip = types.AudioClip{
	Data:     []byte("RIFF....WAVEfmt "),
	MIMEType: "audio/wav",
}

// TestTranscribeSendsMultipart verifies that Transcribe POSTs the clip as
// multipart/form-data with the language field and parses the JSON response.
func TestTranscribeSendsMultipart(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inference" {
			t.Errorf("path = %q, want /inference", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("language"); got != "kn" {
			t.Errorf("language field = %q, want kn", got)
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		f.Close()
		w.Write([]byte(`{"text": "neeru"}`))
	}))
	defer srv.Close()

	p, err := whisper.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := p.Transcribe(context.Background(), asr.Request{Clip: clip, Language: "kn"})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got.Text != "neeru" {
		t.Errorf("Text = %q, want neeru", got.Text)
	}
	if got.Language != "kn" {
		t.Errorf("Language = %q, want kn", got.Language)
	}
}

// TestTranscribeDefaultLanguage verifies that the provider-level language is
// used when the request omits one.
func TestTranscribeDefaultLanguage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(1 << 20)
		if got := r.FormValue("language"); got != "hi" {
			t.Errorf("language field = %q, want hi", got)
		}
		w.Write([]byte(`{"text": "paani"}`))
	}))
	defer srv.Close()

	p, err := whisper.New(srv.URL, whisper.WithLanguage("hi"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Transcribe(context.Background(), asr.Request{Clip: clip}); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
}

// TestTranscribeServerError verifies that a non-200 status surfaces as an error.
func TestTranscribeServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p, err := whisper.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Transcribe(context.Background(), asr.Request{Clip: clip}); err == nil {
		t.Fatal("Transcribe succeeded, want error on HTTP 500")
	}
}

// TestTranscribeErrorBody verifies that an error reported in the JSON body is
// surfaced even with HTTP 200.
func TestTranscribeErrorBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "audio too short"}`))
	}))
	defer srv.Close()

	p, err := whisper.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = p.Transcribe(context.Background(), asr.Request{Clip: clip})
	if err == nil || !strings.Contains(err.Error(), "audio too short") {
		t.Fatalf("Transcribe error = %v, want server error message", err)
	}
}

// TestTranscribeEmptyClip verifies that an empty clip is rejected without a
// network call.
func TestTranscribeEmptyClip(t *testing.T) {
	t.Parallel()

	p, err := whisper.New("http://127.0.0.1:1")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Transcribe(context.Background(), asr.Request{}); err == nil {
		t.Fatal("Transcribe succeeded with empty clip")
	}
}

// TestNewRequiresURL verifies that an empty server URL is rejected.
func TestNewRequiresURL(t *testing.T) {
	t.Parallel()

	if _, err := whisper.New(""); err == nil {
		t.Fatal("New succeeded with empty URL")
	}
}
