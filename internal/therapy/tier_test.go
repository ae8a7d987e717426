package therapy_test

import (
	"testing"

	"github.com/kalpana-health/vaakya/internal/therapy"
)

// TestClassifyTier_Boundaries verifies the exact threshold edges: 75.999 is
// still medium, 76 is hard, 50.999 is still easy, 51 is medium.
func TestClassifyTier_Boundaries(t *testing.T) {
	t.Parallel()
	cases := []struct {
		score float64
		want  therapy.Tier
	}{
		{0, therapy.TierEasy},
		{50.999, therapy.TierEasy},
		{51, therapy.TierMedium},
		{75.999, therapy.TierMedium},
		{76, therapy.TierHard},
		{100, therapy.TierHard},
	}
	for _, c := range cases {
		if got := therapy.ClassifyTier(therapy.Score(c.score)); got != c.want {
			t.Errorf("ClassifyTier(%v) = %s, want %s", c.score, got, c.want)
		}
	}
}

// TestClassifyTier_Monotonic verifies that a higher mean never classifies to a
// lower tier, sweeping the whole range in small steps.
func TestClassifyTier_Monotonic(t *testing.T) {
	t.Parallel()
	prev := therapy.ClassifyTier(0)
	for s := 0.0; s <= 100; s += 0.25 {
		cur := therapy.ClassifyTier(therapy.Score(s))
		if cur.Rank() < prev.Rank() {
			t.Fatalf("classifier not monotonic: score %v classified %s after %s", s, cur, prev)
		}
		prev = cur
	}
}

// TestTier_Next verifies the strict easy < medium < hard progression and that
// hard has no successor.
func TestTier_Next(t *testing.T) {
	t.Parallel()
	if next, ok := therapy.TierEasy.Next(); !ok || next != therapy.TierMedium {
		t.Errorf("TierEasy.Next() = %s, %v; want medium, true", next, ok)
	}
	if next, ok := therapy.TierMedium.Next(); !ok || next != therapy.TierHard {
		t.Errorf("TierMedium.Next() = %s, %v; want hard, true", next, ok)
	}
	if _, ok := therapy.TierHard.Next(); ok {
		t.Error("TierHard.Next() reported a successor, want none")
	}
}

// TestTier_IsValid rejects arbitrary strings.
func TestTier_IsValid(t *testing.T) {
	t.Parallel()
	if therapy.Tier("expert").IsValid() {
		t.Error(`Tier("expert").IsValid() = true, want false`)
	}
	for _, tier := range therapy.Tiers() {
		if !tier.IsValid() {
			t.Errorf("%s.IsValid() = false, want true", tier)
		}
	}
}

// TestScore_Clamp verifies clamping to [0, 100] and that in-range values pass
// through untouched.
func TestScore_Clamp(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in, want float64
	}{
		{-5, 0},
		{0, 0},
		{42.5, 42.5},
		{100, 100},
		{130, 100},
	}
	for _, c := range cases {
		if got := therapy.Score(c.in).Clamp(); float64(got) != c.want {
			t.Errorf("Score(%v).Clamp() = %v, want %v", c.in, float64(got), c.want)
		}
	}
}
