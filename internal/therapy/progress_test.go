package therapy_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/kalpana-health/vaakya/internal/therapy"
)

// TestSessionProgress_RunningMean verifies the incremental mean against the
// batch mean for a small fixed sequence.
func TestSessionProgress_RunningMean(t *testing.T) {
	t.Parallel()
	scores := []therapy.Score{80, 60, 95, 40, 72}

	p := therapy.SessionProgress{Tier: therapy.TierEasy}
	sum := 0.0
	for _, s := range scores {
		p = p.Record(s)
		sum += float64(s)
	}
	if p.Attempts != len(scores) {
		t.Fatalf("Attempts = %d, want %d", p.Attempts, len(scores))
	}
	want := sum / float64(len(scores))
	if math.Abs(p.Mean-want) > 1e-9 {
		t.Errorf("Mean = %v, want %v", p.Mean, want)
	}
}

// TestSessionProgress_OrderIndependence verifies that the mean after n
// recordings does not depend on the order the scores arrived in.
func TestSessionProgress_OrderIndependence(t *testing.T) {
	t.Parallel()
	scores := []therapy.Score{12, 97.5, 50, 88, 3, 61, 74.25, 100, 0, 45}

	record := func(in []therapy.Score) float64 {
		var p therapy.SessionProgress
		for _, s := range in {
			p = p.Record(s)
		}
		return p.Mean
	}

	want := record(scores)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := append([]therapy.Score(nil), scores...)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		if got := record(shuffled); math.Abs(got-want) > 1e-9 {
			t.Fatalf("mean depends on order: got %v, want %v (permutation %d)", got, want, i)
		}
	}
}

// TestSessionProgress_RecordClamps verifies out-of-range inputs are clamped
// before aggregation so the mean stays inside [0, 100].
func TestSessionProgress_RecordClamps(t *testing.T) {
	t.Parallel()
	var p therapy.SessionProgress
	p = p.Record(150)
	p = p.Record(-30)
	if p.Mean != 50 {
		t.Errorf("Mean after clamped 150 and -30 = %v, want 50", p.Mean)
	}
}

// TestSessionProgress_TenAttemptsAllNinety walks the canonical end-to-end
// scenario: ten attempts all scoring 90 must yield mean 90 and classify hard.
func TestSessionProgress_TenAttemptsAllNinety(t *testing.T) {
	t.Parallel()
	p := therapy.SessionProgress{Tier: therapy.TierEasy}
	for i := 0; i < 10; i++ {
		p = p.Record(90)
	}
	if p.Attempts != 10 || p.Mean != 90 {
		t.Fatalf("after 10 x 90: attempts=%d mean=%v, want 10 and 90", p.Attempts, p.Mean)
	}
	if got := p.Classify(); got != therapy.TierHard {
		t.Errorf("Classify() = %s, want hard", got)
	}
}
