package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kalpana-health/vaakya/internal/assess"
	"github.com/kalpana-health/vaakya/internal/resilience"
	"github.com/kalpana-health/vaakya/internal/scoring"
	"github.com/kalpana-health/vaakya/internal/store"
	"github.com/kalpana-health/vaakya/pkg/provider/asr"
	"github.com/kalpana-health/vaakya/pkg/provider/severity"
	"github.com/kalpana-health/vaakya/pkg/types"
)

// AssessmentWord serves the next calibration word on the assessment ladder.
// The ladder climbs with the attempt number: basic words first, then
// intermediate, then advanced.
func (a *API) AssessmentWord(w http.ResponseWriter, r *http.Request) {
	language := r.URL.Query().Get("language")
	if language == "" {
		language = a.defaults.Language
	}

	attempt := 1
	if raw := r.URL.Query().Get("attempt"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			Error(w, http.StatusBadRequest, "attempt must be a positive integer")
			return
		}
		attempt = n
	}

	word, err := assess.NextWord(language, attempt)
	if err != nil {
		Error(w, http.StatusNotFound, err.Error())
		return
	}
	JSON(w, http.StatusOK, word)
}

// assessmentScoreRequest is the JSON form of POST /api/assessment/score.
// Multipart uploads carry the same fields plus an "audio" file.
type assessmentScoreRequest struct {
	TargetWord    string `json:"target_word"`
	Language      string `json:"language"`
	Transcription string `json:"transcription"`
}

// AssessmentScore scores a single calibration word attempt. Audio uploads
// are transcribed through the ASR chain; clients that transcribe locally
// send the transcription directly.
func (a *API) AssessmentScore(w http.ResponseWriter, r *http.Request) {
	req, clip, err := parseAssessmentScore(r)
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.TargetWord == "" {
		Error(w, http.StatusBadRequest, "target_word is required")
		return
	}
	if req.Language == "" {
		req.Language = a.defaults.Language
	}

	if req.Transcription == "" && len(clip.Data) > 0 {
		if a.asr == nil || a.asr.Len() == 0 {
			Error(w, http.StatusServiceUnavailable, "transcription is not available")
			return
		}
		req.Transcription, err = a.transcribe(r.Context(), asr.Request{
			Clip:     clip,
			Language: req.Language,
			Hints:    []string{req.TargetWord},
		})
		if err != nil {
			Error(w, http.StatusBadGateway, "transcription failed, retry the word")
			return
		}
	}

	analysis := scoring.BestAccuracy(req.TargetWord, req.Transcription, req.Language)
	JSON(w, http.StatusOK, map[string]any{
		"word":              req.TargetWord,
		"transcription":     req.Transcription,
		"accuracy":          analysis.Accuracy,
		"rating":            analysis.Rating,
		"method":            analysis.Method,
		"pronunciation_tip": scoring.PronunciationTip(req.TargetWord, req.Language),
	})
}

// parseAssessmentScore reads the score request from either a JSON body or a
// multipart upload carrying an "audio" file.
func parseAssessmentScore(r *http.Request) (assessmentScoreRequest, types.AudioClip, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var req assessmentScoreRequest
		if err := decodeJSON(r, &req); err != nil {
			return assessmentScoreRequest{}, types.AudioClip{}, errors.New("invalid request body")
		}
		return req, types.AudioClip{}, nil
	}

	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		return assessmentScoreRequest{}, types.AudioClip{}, errors.New("invalid multipart body")
	}
	req := assessmentScoreRequest{
		TargetWord:    r.FormValue("target_word"),
		Language:      r.FormValue("language"),
		Transcription: r.FormValue("transcription"),
	}
	var clip types.AudioClip
	if f, hdr, err := r.FormFile("audio"); err == nil {
		defer f.Close()
		data, readErr := io.ReadAll(io.LimitReader(f, maxAudioBytes))
		if readErr != nil {
			return assessmentScoreRequest{}, types.AudioClip{}, errors.New("cannot read audio upload")
		}
		clip = types.AudioClip{Data: data, MIMEType: hdr.Header.Get("Content-Type")}
	}
	return req, clip, nil
}

// assessmentCompleteRequest is the body of POST /api/assessment/complete.
type assessmentCompleteRequest struct {
	PatientID string                  `json:"patient_id"`
	Language  string                  `json:"language"`
	Words     []severity.WordAccuracy `json:"words"`
}

// assessmentCompleteResponse extends the local evaluation with the
// estimator's verdict.
type assessmentCompleteResponse struct {
	AssessmentID    string          `json:"assessment_id"`
	EstimatedWAB    float64         `json:"estimated_wab"`
	Confidence      float64         `json:"confidence,omitempty"`
	Severity        assess.Severity `json:"severity"`
	PracticeTier    string          `json:"practice_tier"`
	SessionQuota    int             `json:"session_quota"`
	SessionMinutes  int             `json:"session_minutes"`
	Recommendations []string        `json:"recommendations"`
}

// AssessmentComplete evaluates a finished calibration round, persists the
// outcome, and returns the practice plan.
//
// The WAB estimate comes from the severity chain (hosted model first,
// heuristic fallback); when the whole chain is down the built-in weighted
// average stands in so the assessment always concludes.
func (a *API) AssessmentComplete(w http.ResponseWriter, r *http.Request) {
	var req assessmentCompleteRequest
	if err := decodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PatientID == "" {
		Error(w, http.StatusBadRequest, "patient_id is required")
		return
	}
	if len(req.Words) == 0 {
		Error(w, http.StatusBadRequest, "words must not be empty")
		return
	}
	if req.Language == "" {
		req.Language = a.defaults.Language
	}

	results := make([]assess.WordResult, 0, len(req.Words))
	for _, wd := range req.Words {
		results = append(results, assess.WordResult{Word: wd.Word, Accuracy: wd.Accuracy})
	}
	local := assess.Evaluate(results, req.Language)

	wab := local.EstimatedWAB
	var confidence float64
	if a.severity != nil && a.severity.Len() > 0 {
		est, err := resilience.DoResult(a.severity, func(name string, p severity.Provider) (severity.Estimate, error) {
			start := time.Now()
			e, err := p.Estimate(r.Context(), severity.Request{Language: req.Language, Words: req.Words})
			a.metrics.RecordProviderDuration(r.Context(), "severity", name, time.Since(start).Seconds())
			if err != nil {
				a.metrics.RecordProviderError(r.Context(), name, "severity")
			}
			return e, err
		})
		if err != nil {
			slog.Warn("severity chain exhausted, using local evaluation", "err", err)
		} else {
			wab = est.WAB
			confidence = est.Confidence
		}
	}

	sev := assess.SeverityFor(wab)
	resp := assessmentCompleteResponse{
		AssessmentID:    uuid.NewString(),
		EstimatedWAB:    wab,
		Confidence:      confidence,
		Severity:        sev,
		PracticeTier:    string(assess.PracticeTier(sev)),
		SessionQuota:    assess.SessionQuota(sev),
		SessionMinutes:  assess.SessionMinutes(sev),
		Recommendations: local.Recommendations,
	}

	wordJSON, err := json.Marshal(req.Words)
	if err != nil {
		Error(w, http.StatusInternalServerError, "cannot encode word results")
		return
	}
	rec := &store.AssessmentRecord{
		ID:           resp.AssessmentID,
		PatientID:    req.PatientID,
		Language:     req.Language,
		EstimatedWAB: wab,
		Severity:     string(sev),
		WordResults:  wordJSON,
	}
	if err := a.store.SaveAssessment(r.Context(), rec); err != nil {
		storeError(w, err)
		return
	}

	slog.Info("assessment completed",
		"patient_id", req.PatientID,
		"language", req.Language,
		"wab", wab,
		"severity", sev,
	)

	JSON(w, http.StatusOK, resp)
}

// AssessmentLatest returns the most recent stored assessment for a patient.
func (a *API) AssessmentLatest(w http.ResponseWriter, r *http.Request) {
	patientID := r.URL.Query().Get("patient_id")
	if patientID == "" {
		Error(w, http.StatusBadRequest, "patient_id is required")
		return
	}
	language := r.URL.Query().Get("language")
	if language == "" {
		language = a.defaults.Language
	}

	rec, err := a.store.LatestAssessment(r.Context(), patientID, language)
	if err != nil {
		storeError(w, err)
		return
	}
	JSON(w, http.StatusOK, rec)
}
