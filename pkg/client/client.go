// Package client is the Go client for the Vaakya therapy server. It
// implements the controller's collaborator interfaces, so a practice session
// can be driven end-to-end with [therapy.Controller] on top of one Client.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kalpana-health/vaakya/internal/therapy"
	"github.com/kalpana-health/vaakya/pkg/types"
)

// Compile-time assertions that Client satisfies the controller's
// collaborator interfaces.
var (
	_ therapy.SessionLifecycle = (*Client)(nil)
	_ therapy.ExerciseSource   = (*Client)(nil)
	_ therapy.AttemptScorer    = (*Client)(nil)
)

const defaultTimeout = 60 * time.Second

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Mainly useful in tests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithTimeout sets the per-request HTTP timeout. Defaults to 60 s: attempts
// carry audio uploads that pass through ASR before the response comes back.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.httpClient.Timeout = d
	}
}

// WithQuota sets the exercise quota requested at session start. Zero leaves
// the server default in place.
func WithQuota(n int) Option {
	return func(cl *Client) {
		cl.quota = n
	}
}

// Client talks to a Vaakya server. It is safe for concurrent use.
type Client struct {
	baseURL    string
	quota      int
	httpClient *http.Client
}

// New creates a Client for the server at baseURL (e.g., "http://localhost:8080").
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("client: baseURL must not be empty")
	}
	cl := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(cl)
	}
	return cl, nil
}

// ---- wire types -------------------------------------------------------------

type wireSession struct {
	ID   string       `json:"session_id"`
	Tier therapy.Tier `json:"tier"`
}

type wireProgress struct {
	EasyCompleted   int          `json:"easy_completed"`
	MediumCompleted int          `json:"medium_completed"`
	HardCompleted   int          `json:"hard_completed"`
	CurrentTier     therapy.Tier `json:"current_tier"`
}

func (p wireProgress) summary() therapy.ProgressSummary {
	return therapy.ProgressSummary{
		EasyCompleted:   p.EasyCompleted,
		MediumCompleted: p.MediumCompleted,
		HardCompleted:   p.HardCompleted,
		CurrentTier:     p.CurrentTier,
	}
}

type wireExercise struct {
	ID          string       `json:"id"`
	Text        string       `json:"text"`
	Language    string       `json:"language"`
	Tier        therapy.Tier `json:"tier"`
	Category    string       `json:"category"`
	TargetWords []string     `json:"target_words"`
	ImageURL    string       `json:"image_url"`
}

// ---- SessionLifecycle -------------------------------------------------------

// Start opens a session on the server and returns its ID, serving tier, and
// the patient's progression snapshot.
func (c *Client) Start(ctx context.Context, language string, tier therapy.Tier, patientID string) (therapy.StartResult, error) {
	body := map[string]any{
		"patient_id": patientID,
		"language":   language,
	}
	if tier != "" {
		body["tier"] = tier
	}
	if c.quota > 0 {
		body["quota"] = c.quota
	}

	var resp struct {
		Session  wireSession  `json:"session"`
		Progress wireProgress `json:"progress"`
	}
	if err := c.postJSON(ctx, "/api/session/start", body, &resp); err != nil {
		return therapy.StartResult{}, fmt.Errorf("client: start session: %w", err)
	}
	return therapy.StartResult{
		SessionID: resp.Session.ID,
		Tier:      resp.Session.Tier,
		Summary:   resp.Progress.summary(),
	}, nil
}

// Complete finalises the session. The server's tier verdict is authoritative.
// Completing an already-completed session returns the recorded outcome.
func (c *Client) Complete(ctx context.Context, sessionID string) (therapy.CompleteResult, error) {
	var resp struct {
		Progress  wireProgress `json:"progress"`
		FinalTier therapy.Tier `json:"final_tier"`
		NextTier  therapy.Tier `json:"next_tier"`
		Message   string       `json:"message"`
	}
	path := "/api/session/" + url.PathEscape(sessionID) + "/complete"
	if err := c.postJSON(ctx, path, struct{}{}, &resp); err != nil {
		return therapy.CompleteResult{}, fmt.Errorf("client: complete session: %w", err)
	}
	return therapy.CompleteResult{
		FinalTier: resp.FinalTier,
		NextTier:  resp.NextTier,
		Message:   resp.Message,
		Summary:   resp.Progress.summary(),
	}, nil
}

// ---- ExerciseSource ---------------------------------------------------------

// Batch fetches count exercises for the language and tier.
func (c *Client) Batch(ctx context.Context, language string, tier therapy.Tier, count int) ([]therapy.Exercise, error) {
	q := url.Values{}
	q.Set("language", language)
	q.Set("tier", string(tier))
	if count > 0 {
		q.Set("count", strconv.Itoa(count))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/exercises?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("client: fetch exercises: %w", err)
	}
	var resp struct {
		Exercises []wireExercise `json:"exercises"`
	}
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("client: fetch exercises: %w", err)
	}

	out := make([]therapy.Exercise, 0, len(resp.Exercises))
	for _, e := range resp.Exercises {
		out = append(out, therapy.Exercise{
			ID:          e.ID,
			Prompt:      e.Text,
			ImageURL:    e.ImageURL,
			Language:    e.Language,
			Tier:        e.Tier,
			Category:    e.Category,
			TargetWords: e.TargetWords,
		})
	}
	return out, nil
}

// ---- AttemptScorer ----------------------------------------------------------

// ScoreAttempt uploads the clip for one exercise attempt and returns the
// verdict. The call is never retried internally: the server records each
// scored attempt, so a retry must be an explicit new submission.
func (c *Client) ScoreAttempt(ctx context.Context, sessionID, exerciseID string, clip types.AudioClip) (therapy.AttemptResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("exercise_id", exerciseID); err != nil {
		return therapy.AttemptResult{}, fmt.Errorf("client: score attempt: %w", err)
	}
	fw, err := mw.CreateFormFile("audio", "attempt.wav")
	if err != nil {
		return therapy.AttemptResult{}, fmt.Errorf("client: score attempt: %w", err)
	}
	if _, err := fw.Write(clip.Data); err != nil {
		return therapy.AttemptResult{}, fmt.Errorf("client: score attempt: %w", err)
	}
	if err := mw.Close(); err != nil {
		return therapy.AttemptResult{}, fmt.Errorf("client: score attempt: %w", err)
	}

	path := "/api/session/" + url.PathEscape(sessionID) + "/attempts"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return therapy.AttemptResult{}, fmt.Errorf("client: score attempt: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp struct {
		Transcription string  `json:"transcription"`
		Accuracy      float64 `json:"accuracy"`
		Feedback      string  `json:"feedback"`
	}
	if err := c.do(req, &resp); err != nil {
		return therapy.AttemptResult{}, fmt.Errorf("client: score attempt: %w", err)
	}
	return therapy.AttemptResult{
		Transcription: resp.Transcription,
		Score:         therapy.Score(resp.Accuracy),
		Feedback:      resp.Feedback,
	}, nil
}

// ---- HTTP plumbing ----------------------------------------------------------

// postJSON sends body as JSON and decodes the response into out.
func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// do executes the request, maps error responses to errors, and decodes the
// JSON body into out.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned HTTP %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned HTTP %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
