package therapy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kalpana-health/vaakya/pkg/types"
)

// State represents the current phase of a [Controller].
type State int

const (
	// StateActive is the normal practising state; attempts are accepted.
	StateActive State = iota

	// StateTransitioning means the running mean has crossed into a different
	// tier and the controller is waiting for the patient to accept or decline
	// the change. This is the only state with a human-in-the-loop branch: the
	// tier persisted server-side is the resumption point for future sessions,
	// so it must never advance without explicit confirmation.
	StateTransitioning

	// StateComplete means the session's exercise quota is exhausted and the
	// session has been finalised (server-side when reachable, locally
	// otherwise). No further attempts are accepted.
	StateComplete
)

// String returns the human-readable name of the state.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateTransitioning:
		return "transitioning"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Errors returned by [Controller] operations.
var (
	// ErrNotActive is returned by SubmitAttempt when the controller is not in
	// [StateActive].
	ErrNotActive = errors.New("therapy: session is not accepting attempts")

	// ErrNotTransitioning is returned by ConfirmTierChange outside
	// [StateTransitioning].
	ErrNotTransitioning = errors.New("therapy: no tier change pending")

	// ErrNotStarted is returned when an operation requires Start to have been
	// called first.
	ErrNotStarted = errors.New("therapy: session not started")

	// ErrBatchExhausted is returned by CurrentExercise when no exercise is
	// available for the next attempt.
	ErrBatchExhausted = errors.New("therapy: exercise batch exhausted")
)

// Exercise is an immutable prompt delivered to the patient. Owned by the
// content collaborator; the controller only references it.
type Exercise struct {
	// ID is the collaborator-assigned exercise identifier.
	ID string

	// Prompt is the text the patient should speak. For picture exercises this
	// is the target description.
	Prompt string

	// ImageURL references the picture for picture-naming exercises. Empty for
	// sentence exercises.
	ImageURL string

	// Language is the exercise's language tag.
	Language string

	// Tier is the difficulty tier the exercise belongs to.
	Tier Tier

	// Category groups exercises thematically (greeting, family, food, ...).
	Category string

	// TargetWords lists the key words scoring focuses on. May be nil.
	TargetWords []string
}

// StartResult is the session-lifecycle collaborator's response to Start.
type StartResult struct {
	SessionID string
	Tier      Tier
	Summary   ProgressSummary
}

// ProgressSummary is the durable per-patient progression snapshot reported by
// the session-lifecycle collaborator.
type ProgressSummary struct {
	EasyCompleted   int
	MediumCompleted int
	HardCompleted   int
	CurrentTier     Tier
}

// CompleteResult is the session-lifecycle collaborator's response to Complete.
// FinalTier is authoritative: the server's durable value wins over anything
// the controller computed locally.
type CompleteResult struct {
	FinalTier Tier
	NextTier  Tier // zero value when no advancement occurred
	Message   string
	Summary   ProgressSummary
}

// AttemptResult is the assessment collaborator's verdict on one attempt.
type AttemptResult struct {
	Transcription string
	Score         Score
	WABScore      float64
	Severity      string
	Feedback      string
}

// SessionLifecycle is the external collaborator that persists session
// start/completion. Implementations are expected to be idempotent on retry.
type SessionLifecycle interface {
	Start(ctx context.Context, language string, tier Tier, patientID string) (StartResult, error)
	Complete(ctx context.Context, sessionID string) (CompleteResult, error)
}

// ExerciseSource is the external content collaborator.
type ExerciseSource interface {
	Batch(ctx context.Context, language string, tier Tier, count int) ([]Exercise, error)
}

// AttemptScorer is the external assessment collaborator (ASR + scoring).
// ScoreAttempt conceptually records a unique attempt server-side and must not
// be silently retried by implementations on transient failure; a retry is a
// new, explicit call by the patient.
type AttemptScorer interface {
	ScoreAttempt(ctx context.Context, sessionID, exerciseID string, clip types.AudioClip) (AttemptResult, error)
}

// ControllerConfig holds the collaborators and session parameters for a
// [Controller].
type ControllerConfig struct {
	Lifecycle SessionLifecycle
	Exercises ExerciseSource
	Scorer    AttemptScorer

	Language  string
	PatientID string

	// InitialTier is the tier requested at session start. The collaborator's
	// reported tier overrides it. Defaults to [TierEasy].
	InitialTier Tier

	// Quota is the number of completed attempts that ends the session.
	// Defaults to 10.
	Quota int

	// BatchSize is how many exercises to request per content fetch.
	// Defaults to Quota.
	BatchSize int
}

// Controller is the session progression state machine. It owns one session's
// [SessionProgress] from Start until the session completes or is abandoned.
//
// Controller is not safe for concurrent use: it models a single patient's
// serialised event loop (the UI disables re-submission while a request is
// outstanding), and every operation must come from the single owner that
// created it.
type Controller struct {
	cfg ControllerConfig

	state     State
	started   bool
	localOnly bool

	sessionID string
	progress  SessionProgress

	batch     []Exercise
	batchNext int

	// tierAttempts counts attempts since the last confirmed tier change.
	tierAttempts int

	// pendingTier is the newly classified tier awaiting confirmation while in
	// StateTransitioning.
	pendingTier Tier

	// final holds the completion outcome once StateComplete is reached.
	final *CompleteResult
}

// NewController creates a Controller with the given collaborators. Zero-value
// config fields are replaced with defaults. Lifecycle, Exercises, and Scorer
// are required.
func NewController(cfg ControllerConfig) (*Controller, error) {
	if cfg.Lifecycle == nil || cfg.Exercises == nil || cfg.Scorer == nil {
		return nil, errors.New("therapy: lifecycle, exercises, and scorer collaborators are required")
	}
	if cfg.InitialTier == "" {
		cfg.InitialTier = TierEasy
	}
	if !cfg.InitialTier.IsValid() {
		return nil, fmt.Errorf("therapy: invalid initial tier %q", cfg.InitialTier)
	}
	if cfg.Quota <= 0 {
		cfg.Quota = 10
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = cfg.Quota
	}
	return &Controller{
		cfg:   cfg,
		state: StateActive,
	}, nil
}

// Start begins the session. It calls the session-lifecycle collaborator and
// adopts the tier it reports (the durable resumption point). If the
// collaborator is unreachable the controller degrades to a local, ephemeral
// session rather than blocking practice. Scores recorded in this mode are
// lost when the process exits, an accepted trade-off favouring availability.
//
// After the lifecycle call, Start fetches the first exercise batch. A batch
// fetch error is returned as-is; the session remains startable via a second
// Start call only in local mode (server sessions are already recorded).
func (c *Controller) Start(ctx context.Context) error {
	if c.started {
		return fmt.Errorf("therapy: session %s already started", c.sessionID)
	}

	res, err := c.cfg.Lifecycle.Start(ctx, c.cfg.Language, c.cfg.InitialTier, c.cfg.PatientID)
	if err != nil {
		// Availability over durability: practise locally, warn the caller.
		c.localOnly = true
		c.sessionID = "local-" + c.cfg.PatientID
		c.progress = SessionProgress{Tier: c.cfg.InitialTier}
		slog.Warn("session start unreachable, continuing in local-only mode (progress will not be saved)",
			"patient_id", c.cfg.PatientID, "err", err)
	} else {
		c.sessionID = res.SessionID
		tier := res.Tier
		if !tier.IsValid() {
			tier = c.cfg.InitialTier
		}
		c.progress = SessionProgress{Tier: tier}
	}

	batch, err := c.cfg.Exercises.Batch(ctx, c.cfg.Language, c.progress.Tier, c.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("therapy: fetch exercise batch: %w", err)
	}
	c.batch = batch
	c.batchNext = 0
	c.started = true
	return nil
}

// CurrentExercise returns the exercise the next attempt will be scored
// against. The same exercise is returned again after a failed scoring call, so
// the patient retries the identical prompt.
func (c *Controller) CurrentExercise(ctx context.Context) (Exercise, error) {
	if !c.started {
		return Exercise{}, ErrNotStarted
	}
	if c.state == StateComplete {
		return Exercise{}, ErrNotActive
	}
	if c.batchNext >= len(c.batch) {
		// Refill from the content collaborator at the current tier.
		batch, err := c.cfg.Exercises.Batch(ctx, c.cfg.Language, c.progress.Tier, c.cfg.BatchSize)
		if err != nil {
			return Exercise{}, fmt.Errorf("therapy: refill exercise batch: %w", err)
		}
		if len(batch) == 0 {
			return Exercise{}, ErrBatchExhausted
		}
		c.batch = batch
		c.batchNext = 0
	}
	return c.batch[c.batchNext], nil
}

// AttemptOutcome reports the effect of one submitted attempt.
type AttemptOutcome struct {
	Result   AttemptResult
	Progress SessionProgress
	State    State

	// PendingTier is set when the attempt pushed the session into
	// [StateTransitioning]; the caller must answer via ConfirmTierChange.
	PendingTier Tier

	// Completion is set when the attempt exhausted the quota and the session
	// finalised.
	Completion *CompleteResult
}

// SubmitAttempt scores the current exercise against the recorded clip and
// folds the result into the session. On a scoring error the attempt is not
// counted: the count and mean are unchanged and the same exercise remains
// current, so the patient may retry. A success score is never fabricated from
// an error path.
//
// Out-of-range scores from the collaborator are clamped and logged, not
// rejected.
func (c *Controller) SubmitAttempt(ctx context.Context, clip types.AudioClip) (AttemptOutcome, error) {
	if !c.started {
		return AttemptOutcome{}, ErrNotStarted
	}
	if c.state != StateActive {
		return AttemptOutcome{}, fmt.Errorf("%w (state=%s)", ErrNotActive, c.state)
	}

	ex, err := c.CurrentExercise(ctx)
	if err != nil {
		return AttemptOutcome{}, err
	}

	res, err := c.cfg.Scorer.ScoreAttempt(ctx, c.sessionID, ex.ID, clip)
	if err != nil {
		return AttemptOutcome{}, fmt.Errorf("therapy: score attempt: %w", err)
	}

	if !res.Score.InRange() {
		slog.Warn("attempt score outside [0,100], clamping",
			"session_id", c.sessionID, "exercise_id", ex.ID, "score", float64(res.Score))
	}
	res.Score = res.Score.Clamp()

	c.progress = c.progress.Record(res.Score)
	c.tierAttempts++
	c.batchNext++

	out := AttemptOutcome{Result: res, Progress: c.progress}

	// Quota exhaustion wins over a simultaneous tier crossing: the completion
	// path already reconciles the tier with the server's authoritative value.
	if c.progress.Attempts >= c.cfg.Quota {
		completion := c.complete(ctx)
		out.State = c.state
		out.Progress = c.progress
		out.Completion = completion
		return out, nil
	}

	if classified := c.progress.Classify(); classified != c.progress.Tier {
		c.state = StateTransitioning
		c.pendingTier = classified
		out.PendingTier = classified
	}
	out.State = c.state
	return out, nil
}

// ConfirmTierChange resolves a pending tier transition. Accepting moves the
// session to the newly classified tier, resets the per-tier attempt counter,
// and fetches a fresh batch at the new tier. Declining keeps the prior tier
// and the remaining batch untouched.
//
// If the batch fetch for an accepted change fails, the controller stays in
// [StateTransitioning] with the change still pending so the caller may retry
// or decline.
func (c *Controller) ConfirmTierChange(ctx context.Context, accept bool) error {
	if c.state != StateTransitioning {
		return ErrNotTransitioning
	}

	if !accept {
		slog.Info("tier change declined, remaining at current tier",
			"session_id", c.sessionID, "tier", c.progress.Tier, "declined", c.pendingTier)
		c.pendingTier = ""
		c.state = StateActive
		return nil
	}

	batch, err := c.cfg.Exercises.Batch(ctx, c.cfg.Language, c.pendingTier, c.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("therapy: fetch batch for tier %s: %w", c.pendingTier, err)
	}

	slog.Info("tier change accepted",
		"session_id", c.sessionID, "from", c.progress.Tier, "to", c.pendingTier)
	c.progress.Tier = c.pendingTier
	c.pendingTier = ""
	c.tierAttempts = 0
	c.batch = batch
	c.batchNext = 0
	c.state = StateActive
	return nil
}

// complete finalises the session. The server-reported final tier is adopted
// over the locally computed one; if the lifecycle collaborator is unreachable
// the session finalises locally (ephemeral, the degraded-mode trade-off).
func (c *Controller) complete(ctx context.Context) *CompleteResult {
	c.state = StateComplete

	res, err := c.cfg.Lifecycle.Complete(ctx, c.sessionID)
	if err != nil {
		c.localOnly = true
		slog.Warn("session completion unreachable, finalising locally (progress will not be saved)",
			"session_id", c.sessionID, "err", err)
		local := CompleteResult{FinalTier: c.progress.Classify()}
		c.final = &local
		return c.final
	}

	if res.FinalTier.IsValid() && res.FinalTier != c.progress.Tier {
		slog.Info("adopting server-reported tier over local classification",
			"session_id", c.sessionID, "local", c.progress.Tier, "server", res.FinalTier)
	}
	if res.FinalTier.IsValid() {
		c.progress.Tier = res.FinalTier
	}
	c.final = &res
	return c.final
}

// State returns the controller's current state.
func (c *Controller) State() State { return c.state }

// Progress returns a copy of the session's running aggregate.
func (c *Controller) Progress() SessionProgress { return c.progress }

// SessionID returns the collaborator-assigned session identifier, or the
// local placeholder in degraded mode. Empty before Start.
func (c *Controller) SessionID() string { return c.sessionID }

// LocalOnly reports whether the session degraded to local, ephemeral mode
// (lifecycle collaborator unreachable at start or completion).
func (c *Controller) LocalOnly() bool { return c.localOnly }

// TierAttempts returns the number of attempts since the last confirmed tier
// change.
func (c *Controller) TierAttempts() int { return c.tierAttempts }

// Final returns the completion outcome, or nil while the session is running.
func (c *Controller) Final() *CompleteResult { return c.final }
