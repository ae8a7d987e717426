// Package coqui provides a TTS provider backed by a standard Coqui TTS server
// (ghcr.io/coqui-ai/tts-cpu). Synthesis is performed via GET /api/tts with URL
// query parameters and returns a WAV body; the voice catalogue is retrieved
// from GET /details.
//
// Typical usage:
//
//	p := coqui.New("http://localhost:5002",
//	    coqui.WithLanguage("en"),
//	    coqui.WithTimeout(15*time.Second),
//	)
//	clip, err := p.Synthesize(ctx, tts.Request{Text: "Say: water", Language: "en"})
package coqui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kalpana-health/vaakya/pkg/provider/tts"
	"github.com/kalpana-health/vaakya/pkg/types"
)

// Compile-time interface assertion.
var _ tts.Provider = (*Provider)(nil)

const (
	defaultLanguage = "en"
	defaultTimeout  = 30 * time.Second

	apiTTSEndpoint  = "/api/tts"
	detailsEndpoint = "/details"
)

// Option is a functional option for configuring a Coqui Provider.
type Option func(*Provider)

// WithLanguage sets the language code used when a request does not specify
// one. Defaults to "en".
func WithLanguage(lang string) Option {
	return func(p *Provider) {
		p.language = lang
	}
}

// WithTimeout sets the per-request HTTP timeout for calls to the TTS server.
// Defaults to 30 s.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client. Mainly useful in tests.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// Provider implements tts.Provider against a standard Coqui TTS server.
type Provider struct {
	serverURL  string
	language   string
	httpClient *http.Client
}

// New creates a Provider targeting the Coqui TTS server at serverURL
// (e.g., "http://localhost:5002").
func New(serverURL string, opts ...Option) *Provider {
	p := &Provider{
		serverURL:  serverURL,
		language:   defaultLanguage,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Synthesize calls GET /api/tts and returns the WAV response as an AudioClip.
// The Slow flag is ignored; the standard server has no rate control.
func (p *Provider) Synthesize(ctx context.Context, req tts.Request) (types.AudioClip, error) {
	if req.Text == "" {
		return types.AudioClip{}, errors.New("coqui: text must not be empty")
	}

	lang := req.Language
	if lang == "" {
		lang = p.language
	}

	q := url.Values{}
	q.Set("text", req.Text)
	if req.Voice.ID != "" {
		q.Set("speaker_id", req.Voice.ID)
	}
	q.Set("language_id", lang)

	endpoint := p.serverURL + apiTTSEndpoint + "?" + q.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return types.AudioClip{}, fmt.Errorf("coqui: create request: %w", err)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return types.AudioClip{}, fmt.Errorf("coqui: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.AudioClip{}, fmt.Errorf("coqui: server returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.AudioClip{}, fmt.Errorf("coqui: read response body: %w", err)
	}
	if len(data) == 0 {
		return types.AudioClip{}, errors.New("coqui: server returned empty audio")
	}

	return types.AudioClip{
		Data:     data,
		MIMEType: "audio/wav",
	}, nil
}

// detailsResponse is the relevant subset of GET /details.
type detailsResponse struct {
	Speakers []string `json:"speakers"`
}

// Voices retrieves the speaker list from GET /details. The standard server
// does not report per-voice languages, so the filter only applies to the
// provider's configured language.
func (p *Provider) Voices(ctx context.Context, language string) ([]types.VoiceProfile, error) {
	if language != "" && language != p.language {
		return nil, nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.serverURL+detailsEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("coqui: create request: %w", err)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("coqui: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coqui: server returned HTTP %d", resp.StatusCode)
	}

	var details detailsResponse
	if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
		return nil, fmt.Errorf("coqui: decode details: %w", err)
	}

	voices := make([]types.VoiceProfile, 0, len(details.Speakers))
	for _, s := range details.Speakers {
		voices = append(voices, types.VoiceProfile{
			ID:       s,
			Name:     s,
			Language: p.language,
		})
	}
	return voices, nil
}
