package therapy

// Score is a bounded quality measure for a single exercise attempt, on a
// 0–100 scale. Scores arrive from external assessment collaborators and are
// clamped, never rejected, before aggregation to tolerate upstream noise.
type Score float64

// Clamp returns the score bounded to [0, 100].
func (s Score) Clamp() Score {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// InRange reports whether the score already lies within [0, 100].
func (s Score) InRange() bool {
	return s >= 0 && s <= 100
}

// SessionProgress is the running aggregate for one therapy session: how many
// attempts completed, the running mean score, and the tier the session is
// currently practising at. It has value semantics and is owned exclusively by
// the [Controller] for the lifetime of a session.
type SessionProgress struct {
	// Attempts is the number of completed (successfully scored) attempts.
	Attempts int

	// Mean is the running arithmetic mean of all clamped scores recorded so
	// far. Zero when Attempts is zero.
	Mean float64

	// Tier is the session's current difficulty tier.
	Tier Tier
}

// Record returns a copy of p with score s folded into the running mean and the
// attempt count incremented. The score is clamped to [0,100] first. The final
// mean is independent of the order scores are recorded in: for a fixed
// multiset of scores it always equals their arithmetic mean.
func (p SessionProgress) Record(s Score) SessionProgress {
	clamped := float64(s.Clamp())
	p.Mean = (p.Mean*float64(p.Attempts) + clamped) / float64(p.Attempts+1)
	p.Attempts++
	return p
}

// Classify returns the tier implied by the current running mean.
func (p SessionProgress) Classify() Tier {
	return ClassifyTier(Score(p.Mean))
}
