// Package model provides a severity estimator backed by a hosted inference
// service. The service accepts the calibration round as JSON at POST /estimate
// and returns a WAB-AQ estimate with a confidence score.
//
// Usage:
//
//	p, err := model.New("http://severity.internal:9000",
//	    model.WithAPIKey(key),
//	    model.WithTimeout(10*time.Second),
//	)
//	est, err := p.Estimate(ctx, req)
package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kalpana-health/vaakya/pkg/provider/severity"
)

// Compile-time interface assertion.
var _ severity.Provider = (*Provider)(nil)

const (
	defaultTimeout   = 15 * time.Second
	estimateEndpoint = "/estimate"
)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithAPIKey sets the bearer token sent with every request.
func WithAPIKey(key string) Option {
	return func(p *Provider) {
		p.apiKey = key
	}
}

// WithModel selects a specific model version on the service.
func WithModel(model string) Option {
	return func(p *Provider) {
		p.model = model
	}
}

// WithTimeout sets the per-request HTTP timeout. Defaults to 15 s.
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

// Provider implements severity.Provider against a hosted inference service.
type Provider struct {
	serverURL  string
	apiKey     string
	model      string
	httpClient *http.Client
}

// New creates a Provider targeting the inference service at serverURL.
// serverURL must be non-empty.
func New(serverURL string, opts ...Option) (*Provider, error) {
	if serverURL == "" {
		return nil, errors.New("model: serverURL must not be empty")
	}
	p := &Provider{
		serverURL:  serverURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// estimateRequest is the JSON body sent to POST /estimate.
type estimateRequest struct {
	severity.Request
	Model string `json:"model,omitempty"`
}

// Estimate POSTs the calibration round to the service and returns its verdict.
func (p *Provider) Estimate(ctx context.Context, req severity.Request) (severity.Estimate, error) {
	if len(req.Words) == 0 {
		return severity.Estimate{}, errors.New("model: no scored words")
	}

	payload, err := json.Marshal(estimateRequest{Request: req, Model: p.model})
	if err != nil {
		return severity.Estimate{}, fmt.Errorf("model: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serverURL+estimateEndpoint, bytes.NewReader(payload))
	if err != nil {
		return severity.Estimate{}, fmt.Errorf("model: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return severity.Estimate{}, fmt.Errorf("model: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return severity.Estimate{}, fmt.Errorf("model: server returned HTTP %d", resp.StatusCode)
	}

	var est severity.Estimate
	if err := json.NewDecoder(resp.Body).Decode(&est); err != nil {
		return severity.Estimate{}, fmt.Errorf("model: decode response: %w", err)
	}
	if est.WAB < 0 || est.WAB > 100 {
		return severity.Estimate{}, fmt.Errorf("model: estimate %.2f out of range [0, 100]", est.WAB)
	}
	return est, nil
}
