package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kalpana-health/vaakya/internal/therapy"
)

// Schema is the SQL DDL for the therapy tables. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS therapy_sessions (
    session_id  TEXT PRIMARY KEY,
    patient_id  TEXT NOT NULL,
    language    TEXT NOT NULL,
    tier        TEXT NOT NULL DEFAULT 'easy',
    status      TEXT NOT NULL DEFAULT 'active',
    quota       INTEGER NOT NULL DEFAULT 10,
    completed   INTEGER NOT NULL DEFAULT 0,
    mean_score  DOUBLE PRECISION NOT NULL DEFAULT 0,
    started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    ended_at    TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_therapy_sessions_patient ON therapy_sessions(patient_id);

CREATE TABLE IF NOT EXISTS exercise_attempts (
    attempt_id    TEXT PRIMARY KEY,
    session_id    TEXT NOT NULL REFERENCES therapy_sessions(session_id) ON DELETE CASCADE,
    patient_id    TEXT NOT NULL,
    exercise_id   TEXT NOT NULL,
    target_text   TEXT NOT NULL,
    transcription TEXT NOT NULL DEFAULT '',
    accuracy      DOUBLE PRECISION NOT NULL,
    wab_score     DOUBLE PRECISION NOT NULL DEFAULT 0,
    feedback      TEXT NOT NULL DEFAULT '',
    word_scores   JSONB NOT NULL DEFAULT '[]',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_exercise_attempts_session ON exercise_attempts(session_id);

CREATE TABLE IF NOT EXISTS difficulty_progress (
    patient_id       TEXT NOT NULL,
    language         TEXT NOT NULL,
    easy_completed   INTEGER NOT NULL DEFAULT 0,
    medium_completed INTEGER NOT NULL DEFAULT 0,
    hard_completed   INTEGER NOT NULL DEFAULT 0,
    current_tier     TEXT NOT NULL DEFAULT 'easy',
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (patient_id, language)
);

CREATE TABLE IF NOT EXISTS assessment_results (
    assessment_id TEXT PRIMARY KEY,
    patient_id    TEXT NOT NULL,
    language      TEXT NOT NULL,
    estimated_wab DOUBLE PRECISION NOT NULL,
    severity      TEXT NOT NULL,
    word_results  JSONB NOT NULL DEFAULT '[]',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_assessment_results_patient ON assessment_results(patient_id);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new [PostgresStore] that uses the given database
// connection or pool. The caller is responsible for calling
// [PostgresStore.Migrate] to ensure the schema exists before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL against the database, creating the
// therapy tables and indexes if they do not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, Schema)
	if err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// CreateSession inserts a new active session.
func (s *PostgresStore) CreateSession(ctx context.Context, sess *Session) error {
	if sess.ID == "" || sess.PatientID == "" {
		return errors.New("store: session id and patient id are required")
	}
	if sess.Tier == "" {
		sess.Tier = therapy.TierEasy
	}
	if sess.Status == "" {
		sess.Status = "active"
	}

	const query = `
		INSERT INTO therapy_sessions (session_id, patient_id, language, tier, status, quota)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING started_at`

	err := s.db.QueryRow(ctx, query,
		sess.ID, sess.PatientID, sess.Language, sess.Tier, sess.Status, sess.Quota,
	).Scan(&sess.StartedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("store: session %q already exists", sess.ID)
		}
		return fmt.Errorf("store: create session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID.
func (s *PostgresStore) GetSession(ctx context.Context, id string) (*Session, error) {
	const query = `
		SELECT session_id, patient_id, language, tier, status, quota,
		       completed, mean_score, started_at, ended_at
		FROM therapy_sessions
		WHERE session_id = $1`

	var sess Session
	err := s.db.QueryRow(ctx, query, id).Scan(
		&sess.ID, &sess.PatientID, &sess.Language, &sess.Tier, &sess.Status,
		&sess.Quota, &sess.Completed, &sess.MeanScore, &sess.StartedAt, &sess.EndedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("store: get session %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("store: get session %q: %w", id, err)
	}
	return &sess, nil
}

// RecordAttempt appends an attempt and folds its accuracy into the session's
// running mean and completed count in one statement.
func (s *PostgresStore) RecordAttempt(ctx context.Context, a *Attempt) error {
	wordJSON, err := json.Marshal(emptyScores(a.WordScores))
	if err != nil {
		return fmt.Errorf("store: marshal word_scores: %w", err)
	}

	const insert = `
		INSERT INTO exercise_attempts (
			attempt_id, session_id, patient_id, exercise_id, target_text,
			transcription, accuracy, wab_score, feedback, word_scores
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at`

	err = s.db.QueryRow(ctx, insert,
		a.ID, a.SessionID, a.PatientID, a.ExerciseID, a.TargetText,
		a.Transcription, a.Accuracy, a.WABScore, a.Feedback, wordJSON,
	).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: record attempt: %w", err)
	}

	const update = `
		UPDATE therapy_sessions SET
			mean_score = (mean_score * completed + $2) / (completed + 1),
			completed = completed + 1
		WHERE session_id = $1`

	if _, err := s.db.Exec(ctx, update, a.SessionID, a.Accuracy); err != nil {
		return fmt.Errorf("store: update session aggregate: %w", err)
	}
	return nil
}

// SessionAttempts lists a session's attempts in submission order.
func (s *PostgresStore) SessionAttempts(ctx context.Context, sessionID string) ([]Attempt, error) {
	const query = `
		SELECT attempt_id, session_id, patient_id, exercise_id, target_text,
		       transcription, accuracy, wab_score, feedback, word_scores, created_at
		FROM exercise_attempts
		WHERE session_id = $1
		ORDER BY created_at`

	rows, err := s.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("store: list attempts: %w", err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var a Attempt
		var wordJSON []byte
		if err := rows.Scan(
			&a.ID, &a.SessionID, &a.PatientID, &a.ExerciseID, &a.TargetText,
			&a.Transcription, &a.Accuracy, &a.WABScore, &a.Feedback, &wordJSON, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("store: list attempts scan: %w", err)
		}
		if err := json.Unmarshal(wordJSON, &a.WordScores); err != nil {
			return nil, fmt.Errorf("store: unmarshal word_scores: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list attempts: %w", err)
	}
	return out, nil
}

// CompleteSession marks the session completed and applies the tier
// advancement rule to the patient's progress row.
func (s *PostgresStore) CompleteSession(ctx context.Context, sessionID string) (*CompletionOutcome, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	prog, err := s.GetProgress(ctx, sess.PatientID, sess.Language)
	if err != nil {
		return nil, err
	}

	if sess.Status == "completed" {
		// Idempotent: report the recorded state without double-counting.
		return &CompletionOutcome{
			Session:   *sess,
			Progress:  *prog,
			FinalTier: prog.CurrentTier,
			Message:   "Session already completed.",
		}, nil
	}

	out := applyCompletion(sess, prog, time.Now().UTC())

	const updateSession = `
		UPDATE therapy_sessions SET status = 'completed', ended_at = $2
		WHERE session_id = $1`
	if _, err := s.db.Exec(ctx, updateSession, sess.ID, sess.EndedAt); err != nil {
		return nil, fmt.Errorf("store: complete session: %w", err)
	}

	const updateProgress = `
		UPDATE difficulty_progress SET
			easy_completed = $3, medium_completed = $4, hard_completed = $5,
			current_tier = $6, updated_at = now()
		WHERE patient_id = $1 AND language = $2`
	if _, err := s.db.Exec(ctx, updateProgress,
		prog.PatientID, prog.Language,
		prog.EasyCompleted, prog.MediumCompleted, prog.HardCompleted, prog.CurrentTier,
	); err != nil {
		return nil, fmt.Errorf("store: update progress: %w", err)
	}
	return &out, nil
}

// GetProgress retrieves the progression row, inserting the default on first
// use.
func (s *PostgresStore) GetProgress(ctx context.Context, patientID, language string) (*Progress, error) {
	const query = `
		INSERT INTO difficulty_progress (patient_id, language)
		VALUES ($1, $2)
		ON CONFLICT (patient_id, language) DO UPDATE SET patient_id = EXCLUDED.patient_id
		RETURNING patient_id, language, easy_completed, medium_completed,
		          hard_completed, current_tier, updated_at`

	var p Progress
	err := s.db.QueryRow(ctx, query, patientID, language).Scan(
		&p.PatientID, &p.Language, &p.EasyCompleted, &p.MediumCompleted,
		&p.HardCompleted, &p.CurrentTier, &p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("store: get progress: %w", err)
	}
	return &p, nil
}

// SaveAssessment persists an assessment outcome.
func (s *PostgresStore) SaveAssessment(ctx context.Context, rec *AssessmentRecord) error {
	results := rec.WordResults
	if len(results) == 0 {
		results = []byte("[]")
	}

	const query = `
		INSERT INTO assessment_results (
			assessment_id, patient_id, language, estimated_wab, severity, word_results
		) VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at`

	err := s.db.QueryRow(ctx, query,
		rec.ID, rec.PatientID, rec.Language, rec.EstimatedWAB, rec.Severity, results,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: save assessment: %w", err)
	}
	return nil
}

// LatestAssessment returns the most recent assessment for a patient and
// language.
func (s *PostgresStore) LatestAssessment(ctx context.Context, patientID, language string) (*AssessmentRecord, error) {
	const query = `
		SELECT assessment_id, patient_id, language, estimated_wab, severity,
		       word_results, created_at
		FROM assessment_results
		WHERE patient_id = $1 AND language = $2
		ORDER BY created_at DESC
		LIMIT 1`

	var rec AssessmentRecord
	err := s.db.QueryRow(ctx, query, patientID, language).Scan(
		&rec.ID, &rec.PatientID, &rec.Language, &rec.EstimatedWAB,
		&rec.Severity, &rec.WordResults, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("store: latest assessment for %q: %w", patientID, ErrNotFound)
		}
		return nil, fmt.Errorf("store: latest assessment: %w", err)
	}
	return &rec, nil
}

// emptyScores returns s if non-nil, otherwise an empty non-nil slice. This
// ensures JSON marshalling produces "[]" instead of "null".
func emptyScores(s []float64) []float64 {
	if s == nil {
		return []float64{}
	}
	return s
}

// isDuplicateKeyError checks whether a PostgreSQL error is a
// unique-violation (SQLSTATE 23505).
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
