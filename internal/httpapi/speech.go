package httpapi

import (
	"net/http"
	"time"

	"github.com/kalpana-health/vaakya/internal/resilience"
	"github.com/kalpana-health/vaakya/pkg/provider/tts"
	"github.com/kalpana-health/vaakya/pkg/types"
)

// speakRequest is the body of POST /api/tts.
type speakRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Voice    string `json:"voice"`
	Slow     bool   `json:"slow"`
}

// Speak synthesises a prompt or feedback line and streams the audio back.
// The response body is the raw clip; Content-Type reflects its encoding.
func (a *API) Speak(w http.ResponseWriter, r *http.Request) {
	var req speakRequest
	if err := decodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		Error(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.Language == "" {
		req.Language = a.defaults.Language
	}
	if a.tts == nil || a.tts.Len() == 0 {
		Error(w, http.StatusServiceUnavailable, "speech synthesis is not available")
		return
	}

	clip, err := resilience.DoResult(a.tts, func(name string, p tts.Provider) (types.AudioClip, error) {
		start := time.Now()
		c, err := p.Synthesize(r.Context(), tts.Request{
			Text:     req.Text,
			Language: req.Language,
			Voice:    types.VoiceProfile{ID: req.Voice},
			Slow:     req.Slow,
		})
		a.metrics.RecordProviderDuration(r.Context(), "tts", name, time.Since(start).Seconds())
		if err != nil {
			a.metrics.RecordProviderError(r.Context(), name, "tts")
		}
		return c, err
	})
	if err != nil {
		Error(w, http.StatusBadGateway, "speech synthesis failed")
		return
	}

	mime := clip.MIMEType
	if mime == "" {
		mime = "audio/wav"
	}
	w.Header().Set("Content-Type", mime)
	w.WriteHeader(http.StatusOK)
	w.Write(clip.Data)
}
