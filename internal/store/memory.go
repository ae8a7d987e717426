package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kalpana-health/vaakya/internal/therapy"
)

// MemoryStore is an in-memory [Store]. It backs unit tests and the degraded
// mode entered when PostgreSQL is unreachable at startup: sessions recorded
// here are lost on restart, which the health endpoints surface as a degraded
// (not failed) condition.
type MemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	attempts    map[string][]Attempt // keyed by session ID
	progress    map[string]*Progress // keyed by patient/language
	assessments []AssessmentRecord
}

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		attempts: make(map[string][]Attempt),
		progress: make(map[string]*Progress),
	}
}

func progressKey(patientID, language string) string {
	return patientID + "/" + language
}

// CreateSession implements [Store].
func (m *MemoryStore) CreateSession(_ context.Context, s *Session) error {
	if s.ID == "" || s.PatientID == "" {
		return errors.New("store: session id and patient id are required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; ok {
		return fmt.Errorf("store: session %q already exists", s.ID)
	}
	if s.Tier == "" {
		s.Tier = therapy.TierEasy
	}
	if s.Status == "" {
		s.Status = "active"
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now().UTC()
	}
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

// GetSession implements [Store].
func (m *MemoryStore) GetSession(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("store: get session %q: %w", id, ErrNotFound)
	}
	cp := *s
	return &cp, nil
}

// RecordAttempt implements [Store].
func (m *MemoryStore) RecordAttempt(_ context.Context, a *Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[a.SessionID]
	if !ok {
		return fmt.Errorf("store: record attempt: session %q: %w", a.SessionID, ErrNotFound)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	m.attempts[a.SessionID] = append(m.attempts[a.SessionID], *a)

	s.MeanScore = (s.MeanScore*float64(s.Completed) + a.Accuracy) / float64(s.Completed+1)
	s.Completed++
	return nil
}

// SessionAttempts implements [Store].
func (m *MemoryStore) SessionAttempts(_ context.Context, sessionID string) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Attempt, len(m.attempts[sessionID]))
	copy(out, m.attempts[sessionID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// CompleteSession implements [Store].
func (m *MemoryStore) CompleteSession(_ context.Context, sessionID string) (*CompletionOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("store: get session %q: %w", sessionID, ErrNotFound)
	}
	p := m.progressLocked(s.PatientID, s.Language)

	if s.Status == "completed" {
		return &CompletionOutcome{
			Session:   *s,
			Progress:  *p,
			FinalTier: p.CurrentTier,
			Message:   "Session already completed.",
		}, nil
	}

	out := applyCompletion(s, p, time.Now().UTC())
	return &out, nil
}

// GetProgress implements [Store].
func (m *MemoryStore) GetProgress(_ context.Context, patientID, language string) (*Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.progressLocked(patientID, language)
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) progressLocked(patientID, language string) *Progress {
	key := progressKey(patientID, language)
	p, ok := m.progress[key]
	if !ok {
		p = &Progress{
			PatientID:   patientID,
			Language:    language,
			CurrentTier: therapy.TierEasy,
			UpdatedAt:   time.Now().UTC(),
		}
		m.progress[key] = p
	}
	return p
}

// SaveAssessment implements [Store].
func (m *MemoryStore) SaveAssessment(_ context.Context, rec *AssessmentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	m.assessments = append(m.assessments, *rec)
	return nil
}

// LatestAssessment implements [Store].
func (m *MemoryStore) LatestAssessment(_ context.Context, patientID, language string) (*AssessmentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.assessments) - 1; i >= 0; i-- {
		rec := m.assessments[i]
		if rec.PatientID == patientID && rec.Language == language {
			cp := rec
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("store: latest assessment for %q: %w", patientID, ErrNotFound)
}
