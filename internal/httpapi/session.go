package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kalpana-health/vaakya/internal/scoring"
	"github.com/kalpana-health/vaakya/internal/store"
	"github.com/kalpana-health/vaakya/internal/therapy"
	"github.com/kalpana-health/vaakya/pkg/provider/asr"
	"github.com/kalpana-health/vaakya/pkg/types"
)

// startSessionRequest is the body of POST /api/session/start.
type startSessionRequest struct {
	PatientID string       `json:"patient_id"`
	Language  string       `json:"language"`
	Tier      therapy.Tier `json:"tier"`
	Quota     int          `json:"quota"`
}

// startSessionResponse returns the created session and the progression it
// resumed from. Tier resolution order: explicit request tier, then the
// patient's stored progression, then the server default.
type startSessionResponse struct {
	Session  store.Session  `json:"session"`
	Progress store.Progress `json:"progress"`
}

// StartSession creates a new active session for a patient.
func (a *API) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PatientID == "" {
		Error(w, http.StatusBadRequest, "patient_id is required")
		return
	}
	if req.Tier != "" && !req.Tier.IsValid() {
		Error(w, http.StatusBadRequest, "tier must be easy, medium, or hard")
		return
	}

	language := req.Language
	if language == "" {
		language = a.defaults.Language
	}

	progress, err := a.store.GetProgress(r.Context(), req.PatientID, language)
	if err != nil {
		storeError(w, err)
		return
	}

	tier := progress.CurrentTier
	if req.Tier != "" {
		tier = req.Tier
	}
	if !tier.IsValid() {
		tier = a.defaults.Tier
	}

	quota := req.Quota
	if quota <= 0 {
		quota = a.defaults.Quota
	}

	sess := &store.Session{
		ID:        uuid.NewString(),
		PatientID: req.PatientID,
		Language:  language,
		Tier:      tier,
		Status:    "active",
		Quota:     quota,
		StartedAt: time.Now().UTC(),
	}
	if err := a.store.CreateSession(r.Context(), sess); err != nil {
		storeError(w, err)
		return
	}
	a.metrics.SessionStarted(r.Context())

	slog.Info("session started",
		"session_id", sess.ID,
		"patient_id", sess.PatientID,
		"language", sess.Language,
		"tier", sess.Tier,
	)

	JSON(w, http.StatusCreated, startSessionResponse{Session: *sess, Progress: *progress})
}

// GetSession returns the session record with its attempt history.
func (a *API) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	sess, err := a.store.GetSession(r.Context(), id)
	if err != nil {
		storeError(w, err)
		return
	}
	attempts, err := a.store.SessionAttempts(r.Context(), id)
	if err != nil {
		storeError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{
		"session":  sess,
		"attempts": attempts,
	})
}

// attemptRequest is the decoded form of a submitted attempt, from either a
// JSON body or a multipart upload.
type attemptRequest struct {
	ExerciseID    string `json:"exercise_id"`
	Transcription string `json:"transcription"`

	clip types.AudioClip
}

// attemptResponse is the verdict on one attempt.
type attemptResponse struct {
	Transcription   string                   `json:"transcription"`
	Accuracy        float64                  `json:"accuracy"`
	Rating          scoring.Rating           `json:"rating"`
	Method          string                   `json:"method"`
	Feedback        string                   `json:"feedback"`
	WordCorrections []scoring.WordCorrection `json:"word_corrections"`
	Progress        attemptProgress          `json:"progress"`
	TierSuggestion  therapy.Tier             `json:"tier_suggestion,omitempty"`
	QuotaReached    bool                     `json:"quota_reached"`
}

type attemptProgress struct {
	Completed int     `json:"completed"`
	Quota     int     `json:"quota"`
	MeanScore float64 `json:"mean_score"`
}

// parseAttempt reads the attempt from the request, accepting JSON for
// clients that transcribe locally and multipart for audio uploads.
func parseAttempt(r *http.Request) (attemptRequest, error) {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "multipart/form-data") {
		var req attemptRequest
		if err := decodeJSON(r, &req); err != nil {
			return attemptRequest{}, errors.New("invalid request body")
		}
		return req, nil
	}

	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		return attemptRequest{}, errors.New("invalid multipart body")
	}
	req := attemptRequest{
		ExerciseID:    r.FormValue("exercise_id"),
		Transcription: r.FormValue("transcription"),
	}
	f, hdr, err := r.FormFile("audio")
	if err == nil {
		defer f.Close()
		data, readErr := io.ReadAll(io.LimitReader(f, maxAudioBytes))
		if readErr != nil {
			return attemptRequest{}, errors.New("cannot read audio upload")
		}
		req.clip = types.AudioClip{
			Data:     data,
			MIMEType: hdr.Header.Get("Content-Type"),
		}
	}
	return req, nil
}

// SubmitAttempt scores one exercise attempt and folds it into the session.
//
// When scoring cannot happen (no transcription provided and the ASR chain is
// down) the attempt is not recorded at all: the patient retries the same
// exercise and the session history never contains fabricated scores.
func (a *API) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	sess, err := a.store.GetSession(r.Context(), sessionID)
	if err != nil {
		storeError(w, err)
		return
	}
	if sess.Status != "active" {
		Error(w, http.StatusConflict, "session is already completed")
		return
	}
	// Quota exhaustion ends the session even if the client has not called
	// complete yet; extra attempts would skew the recorded mean.
	if sess.Quota > 0 && sess.Completed >= sess.Quota {
		Error(w, http.StatusConflict, "session quota reached, complete the session")
		return
	}

	req, err := parseAttempt(r)
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ExerciseID == "" {
		Error(w, http.StatusBadRequest, "exercise_id is required")
		return
	}
	ex, ok := a.library.Get(req.ExerciseID)
	if !ok {
		Error(w, http.StatusNotFound, "unknown exercise")
		return
	}

	transcription := req.Transcription
	if transcription == "" {
		if len(req.clip.Data) == 0 {
			Error(w, http.StatusBadRequest, "audio or transcription is required")
			return
		}
		if a.asr == nil || a.asr.Len() == 0 {
			Error(w, http.StatusServiceUnavailable, "transcription is not available")
			return
		}
		transcription, err = a.transcribe(r.Context(), asr.Request{
			Clip:     req.clip,
			Language: sess.Language,
			Hints:    ex.TargetWords,
		})
		if err != nil {
			slog.Warn("attempt not scored, transcription failed",
				"session_id", sessionID, "exercise_id", ex.ID, "err", err)
			a.metrics.RecordAttempt(r.Context(), sess.Language, string(sess.Tier), 0, "asr_error")
			Error(w, http.StatusBadGateway, "transcription failed, retry the same exercise")
			return
		}
	}

	analysis := scoring.BestAccuracy(ex.Text, transcription, sess.Language)
	accuracy := therapy.Score(analysis.Accuracy).Clamp()
	feedback := scoring.FeedbackMessage(float64(accuracy), sess.Language)
	corrections := scoring.WordCorrections(ex.Text, transcription, sess.Language)

	wordScores := make([]float64, 0, len(analysis.Words))
	for _, ws := range analysis.Words {
		wordScores = append(wordScores, ws.Similarity)
	}

	attempt := &store.Attempt{
		ID:            uuid.NewString(),
		SessionID:     sess.ID,
		PatientID:     sess.PatientID,
		ExerciseID:    ex.ID,
		TargetText:    ex.Text,
		Transcription: transcription,
		Accuracy:      float64(accuracy),
		Feedback:      feedback,
		WordScores:    wordScores,
	}
	if err := a.store.RecordAttempt(r.Context(), attempt); err != nil {
		storeError(w, err)
		return
	}
	a.metrics.RecordAttempt(r.Context(), sess.Language, string(sess.Tier), float64(accuracy), "ok")

	// Re-read for the updated running mean and completed count.
	sess, err = a.store.GetSession(r.Context(), sess.ID)
	if err != nil {
		storeError(w, err)
		return
	}

	resp := attemptResponse{
		Transcription:   transcription,
		Accuracy:        float64(accuracy),
		Rating:          analysis.Rating,
		Method:          analysis.Method,
		Feedback:        feedback,
		WordCorrections: corrections,
		Progress: attemptProgress{
			Completed: sess.Completed,
			Quota:     sess.Quota,
			MeanScore: sess.MeanScore,
		},
		QuotaReached: sess.Quota > 0 && sess.Completed >= sess.Quota,
	}

	// Suggest a tier change when the running mean classifies into a
	// different tier. Quota exhaustion wins: a finished session goes through
	// completion instead of a mid-session switch.
	if !resp.QuotaReached {
		if suggested := therapy.ClassifyTier(therapy.Score(sess.MeanScore)); suggested != sess.Tier {
			resp.TierSuggestion = suggested
		}
	}

	a.hub.Publish(sess.ID, Event{
		Type: EventAttempt,
		Payload: map[string]any{
			"exercise_id":     ex.ID,
			"accuracy":        resp.Accuracy,
			"rating":          resp.Rating,
			"completed":       sess.Completed,
			"quota":           sess.Quota,
			"tier_suggestion": resp.TierSuggestion,
			"quota_reached":   resp.QuotaReached,
		},
	})

	JSON(w, http.StatusOK, resp)
}

// CompleteSession finalises the session and reports the authoritative tier
// verdict. Completing twice returns the recorded outcome unchanged.
func (a *API) CompleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	// Snapshot the status first so a repeat completion does not move the
	// active-sessions gauge twice.
	sess, err := a.store.GetSession(r.Context(), sessionID)
	if err != nil {
		storeError(w, err)
		return
	}
	wasActive := sess.Status == "active"

	outcome, err := a.store.CompleteSession(r.Context(), sessionID)
	if err != nil {
		storeError(w, err)
		return
	}
	if wasActive {
		a.metrics.SessionEnded(r.Context())
	}

	// NextTier is only set on a fresh advancement, so repeat completions do
	// not double-count the transition.
	if outcome.NextTier != "" {
		a.metrics.RecordTierTransition(r.Context(), string(outcome.Session.Tier), string(outcome.NextTier))
	}

	a.hub.Publish(sessionID, Event{
		Type: EventCompleted,
		Payload: map[string]any{
			"final_tier": outcome.FinalTier,
			"next_tier":  outcome.NextTier,
			"message":    outcome.Message,
		},
	})

	slog.Info("session completed",
		"session_id", sessionID,
		"final_tier", outcome.FinalTier,
		"next_tier", outcome.NextTier,
	)

	JSON(w, http.StatusOK, outcome)
}
