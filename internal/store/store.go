// Package store persists therapy sessions, exercise attempts, per-patient
// difficulty progression, and assessment results. The primary implementation
// is PostgreSQL; an in-memory implementation backs tests and the degraded
// mode used when the database is unreachable at startup.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/kalpana-health/vaakya/internal/therapy"
)

// advanceAfter is how many completed exercises at a tier unlock the next
// tier. Checked when a full session completes.
const advanceAfter = 10

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// Session is one therapy session's durable record.
type Session struct {
	ID        string       `json:"session_id"`
	PatientID string       `json:"patient_id"`
	Language  string       `json:"language"`
	Tier      therapy.Tier `json:"tier"`
	Status    string       `json:"status"` // "active" or "completed"
	Quota     int          `json:"quota"`
	Completed int          `json:"completed"`
	MeanScore float64      `json:"mean_score"`
	StartedAt time.Time    `json:"started_at"`
	EndedAt   *time.Time   `json:"ended_at,omitempty"`
}

// Attempt is one scored exercise attempt. Attempts are append-only: a failed
// scoring call writes nothing, so the stored history never contains
// fabricated scores.
type Attempt struct {
	ID            string    `json:"attempt_id"`
	SessionID     string    `json:"session_id"`
	PatientID     string    `json:"patient_id"`
	ExerciseID    string    `json:"exercise_id"`
	TargetText    string    `json:"target_text"`
	Transcription string    `json:"transcription"`
	Accuracy      float64   `json:"accuracy"`
	WABScore      float64   `json:"wab_score"`
	Feedback      string    `json:"feedback"`
	WordScores    []float64 `json:"word_scores,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Progress is a patient's per-language progression through the tiers. The
// CurrentTier column is the durable resumption point reported at session
// start.
type Progress struct {
	PatientID       string       `json:"patient_id"`
	Language        string       `json:"language"`
	EasyCompleted   int          `json:"easy_completed"`
	MediumCompleted int          `json:"medium_completed"`
	HardCompleted   int          `json:"hard_completed"`
	CurrentTier     therapy.Tier `json:"current_tier"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// CompletedAt returns the completed count for one tier.
func (p Progress) CompletedAt(tier therapy.Tier) int {
	switch tier {
	case therapy.TierEasy:
		return p.EasyCompleted
	case therapy.TierMedium:
		return p.MediumCompleted
	case therapy.TierHard:
		return p.HardCompleted
	default:
		return 0
	}
}

// AssessmentRecord is a persisted initial-assessment outcome.
type AssessmentRecord struct {
	ID           string    `json:"assessment_id"`
	PatientID    string    `json:"patient_id"`
	Language     string    `json:"language"`
	EstimatedWAB float64   `json:"estimated_wab"`
	Severity     string    `json:"severity"`
	WordResults  []byte    `json:"word_results"` // JSON array of per-word outcomes
	CreatedAt    time.Time `json:"created_at"`
}

// CompletionOutcome is the result of completing a session: the updated
// session and progress rows, the authoritative tier, and the progression
// verdict.
type CompletionOutcome struct {
	Session   Session      `json:"session"`
	Progress  Progress     `json:"progress"`
	FinalTier therapy.Tier `json:"final_tier"`
	NextTier  therapy.Tier `json:"next_tier,omitempty"`
	Message   string       `json:"message"`
}

// Store provides persistence for the therapy domain.
// Implementations must be safe for concurrent use.
type Store interface {
	// CreateSession inserts a new active session.
	CreateSession(ctx context.Context, s *Session) error

	// GetSession retrieves a session by ID. Returns ErrNotFound if missing.
	GetSession(ctx context.Context, id string) (*Session, error)

	// RecordAttempt appends an attempt and folds its accuracy into the
	// session's running mean and completed count.
	RecordAttempt(ctx context.Context, a *Attempt) error

	// SessionAttempts lists a session's attempts in submission order.
	SessionAttempts(ctx context.Context, sessionID string) ([]Attempt, error)

	// CompleteSession marks the session completed, adds its completed count
	// to the patient's tier tally, and applies the tier advancement rule.
	// Completing an already-completed session returns the recorded outcome
	// without double-counting.
	CompleteSession(ctx context.Context, sessionID string) (*CompletionOutcome, error)

	// GetProgress retrieves a patient's progression for a language, creating
	// the default (easy, zero counts) row if none exists.
	GetProgress(ctx context.Context, patientID, language string) (*Progress, error)

	// SaveAssessment persists an assessment outcome.
	SaveAssessment(ctx context.Context, rec *AssessmentRecord) error

	// LatestAssessment returns the most recent assessment for a patient and
	// language. Returns ErrNotFound if the patient was never assessed.
	LatestAssessment(ctx context.Context, patientID, language string) (*AssessmentRecord, error)
}

// applyCompletion holds the progression rule shared by both implementations.
// A session counts toward advancement only when it was a full session (its
// quota was met); the tier advances once the tier tally reaches advanceAfter.
func applyCompletion(s *Session, p *Progress, now time.Time) CompletionOutcome {
	s.Status = "completed"
	s.EndedAt = &now

	switch s.Tier {
	case therapy.TierEasy:
		p.EasyCompleted += s.Completed
	case therapy.TierMedium:
		p.MediumCompleted += s.Completed
	case therapy.TierHard:
		p.HardCompleted += s.Completed
	}

	out := CompletionOutcome{FinalTier: p.CurrentTier}

	fullSession := s.Quota > 0 && s.Completed >= s.Quota
	if fullSession && p.CompletedAt(s.Tier) >= advanceAfter {
		if next, ok := s.Tier.Next(); ok && s.Tier == p.CurrentTier {
			p.CurrentTier = next
			out.NextTier = next
			out.FinalTier = next
			out.Message = "Congratulations! Moving to " + string(next) + " difficulty."
		} else if !ok {
			out.Message = "You're at the highest level - keep practicing!"
		}
	}
	if out.Message == "" {
		remaining := advanceAfter - p.CompletedAt(s.Tier)
		if remaining > 0 {
			out.Message = "Great job! Complete more " + string(s.Tier) + " exercises to unlock the next level."
		} else {
			out.Message = "Great job! Keep practicing."
		}
	}

	p.UpdatedAt = now
	out.Session = *s
	out.Progress = *p
	return out
}
