// Package therapy implements the adaptive difficulty core of Vaakya: score
// aggregation, tier classification, and the session progression controller
// that decides which exercises a patient receives next.
//
// The central type is [Controller], a small state machine driven by discrete
// caller events (submit attempt, confirm tier change). All session state is
// held in an explicitly owned [SessionProgress] value threaded through the
// controller's operations; there is no package-level session singleton.
package therapy

// Tier is one of the ordered difficulty levels for exercise content.
// The order is strict: TierEasy < TierMedium < TierHard.
type Tier string

const (
	TierEasy   Tier = "easy"
	TierMedium Tier = "medium"
	TierHard   Tier = "hard"
)

// tierRank maps each tier to its position in the total order.
var tierRank = map[Tier]int{
	TierEasy:   0,
	TierMedium: 1,
	TierHard:   2,
}

// IsValid reports whether t is a recognised tier.
func (t Tier) IsValid() bool {
	_, ok := tierRank[t]
	return ok
}

// Rank returns the tier's position in the total order (easy=0, medium=1,
// hard=2). Unknown tiers rank below easy.
func (t Tier) Rank() int {
	if r, ok := tierRank[t]; ok {
		return r
	}
	return -1
}

// Less reports whether t orders strictly before other.
func (t Tier) Less(other Tier) bool {
	return t.Rank() < other.Rank()
}

// Next returns the tier one step up. The second result is false when t is
// already [TierHard] (or not a valid tier) and there is nothing to advance to.
func (t Tier) Next() (Tier, bool) {
	switch t {
	case TierEasy:
		return TierMedium, true
	case TierMedium:
		return TierHard, true
	default:
		return t, false
	}
}

// Tiers returns all tiers in ascending order.
func Tiers() []Tier {
	return []Tier{TierEasy, TierMedium, TierHard}
}

// Classifier score thresholds. Bands are inclusive on their lower bound:
// [0,51) easy, [51,76) medium, [76,100] hard.
const (
	mediumThreshold = 51
	hardThreshold   = 76
)

// ClassifyTier maps an aggregate score to a difficulty tier. It is a pure,
// deterministic mapping and is monotonic in tier order: for any a ≤ b,
// ClassifyTier(a) never ranks above ClassifyTier(b).
func ClassifyTier(score Score) Tier {
	switch {
	case float64(score) >= hardThreshold:
		return TierHard
	case float64(score) >= mediumThreshold:
		return TierMedium
	default:
		return TierEasy
	}
}
