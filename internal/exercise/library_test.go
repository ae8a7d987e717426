package exercise_test

import (
	"context"
	"strings"
	"testing"

	"github.com/kalpana-health/vaakya/internal/exercise"
	"github.com/kalpana-health/vaakya/internal/therapy"
)

// TestNewLibrary_BuiltinBank verifies every supported language carries all
// three tiers out of the box.
func TestNewLibrary_BuiltinBank(t *testing.T) {
	t.Parallel()
	l := exercise.NewLibrary()
	for _, lang := range []string{"en", "hi", "kn"} {
		for _, tier := range therapy.Tiers() {
			got, err := l.Select(lang, tier, 1)
			if err != nil {
				t.Errorf("Select(%s, %s): %v", lang, tier, err)
				continue
			}
			if len(got) != 1 {
				t.Errorf("Select(%s, %s) returned %d exercises", lang, tier, len(got))
			}
		}
	}
}

// TestSelect_NoRepetition verifies a batch never contains the same exercise
// twice.
func TestSelect_NoRepetition(t *testing.T) {
	t.Parallel()
	l := exercise.NewLibrary()
	got, err := l.Select("en", therapy.TierEasy, 10)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	seen := map[string]bool{}
	for _, e := range got {
		if seen[e.ID] {
			t.Errorf("exercise %s appears twice in one batch", e.ID)
		}
		seen[e.ID] = true
	}
}

// TestSelect_CountCappedByBucket verifies over-asking returns the whole
// bucket instead of erroring.
func TestSelect_CountCappedByBucket(t *testing.T) {
	t.Parallel()
	l := exercise.NewLibrary()
	got, err := l.Select("en", therapy.TierHard, 50)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(got) != 5 {
		t.Errorf("len = %d, want 5 (entire hard bucket)", len(got))
	}
}

// TestSelect_UnknownLanguage verifies missing buckets error.
func TestSelect_UnknownLanguage(t *testing.T) {
	t.Parallel()
	l := exercise.NewLibrary()
	if _, err := l.Select("fr", therapy.TierEasy, 3); err == nil {
		t.Error("Select(fr) err = nil, want error")
	}
}

// TestLoadFromReader_MergeAndOverride verifies an external library file can
// add new exercises and replace built-ins by ID.
func TestLoadFromReader_MergeAndOverride(t *testing.T) {
	t.Parallel()
	l := exercise.NewLibrary()
	doc := `
exercises:
  - id: custom-1
    text: Good morning doctor
    language: en
    tier: medium
    category: medical
    target_words: [Good, morning, doctor]
  - id: en-easy-0
    text: Hi there
    language: en
    tier: easy
    category: greeting
    target_words: [Hi, there]
`
	if err := l.LoadFromReader(strings.NewReader(doc)); err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if e, ok := l.Get("custom-1"); !ok || e.Text != "Good morning doctor" {
		t.Errorf("Get(custom-1) = %+v, %v", e, ok)
	}
	if e, _ := l.Get("en-easy-0"); e.Text != "Hi there" {
		t.Errorf("override not applied: Get(en-easy-0).Text = %q", e.Text)
	}
}

// TestLoadFromReader_ValidatesEntries verifies incomplete entries are
// rejected with every failure reported.
func TestLoadFromReader_ValidatesEntries(t *testing.T) {
	t.Parallel()
	l := exercise.NewLibrary()
	doc := `
exercises:
  - id: bad-1
    text: ""
    language: en
    tier: extreme
`
	err := l.LoadFromReader(strings.NewReader(doc))
	if err == nil {
		t.Fatal("LoadFromReader accepted invalid entry")
	}
	if !strings.Contains(err.Error(), "missing text") || !strings.Contains(err.Error(), "invalid tier") {
		t.Errorf("err = %v, want both failures reported", err)
	}
}

// TestLoadFromReader_UnknownField verifies strict decoding rejects typoed
// keys.
func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()
	l := exercise.NewLibrary()
	doc := `
exercises:
  - id: x
    text: hello
    language: en
    tier: easy
    difficulti: easy
`
	if err := l.LoadFromReader(strings.NewReader(doc)); err == nil {
		t.Error("LoadFromReader accepted unknown field")
	}
}

// TestBatch_TherapyView verifies the ExerciseSource adapter carries prompt
// and tier through.
func TestBatch_TherapyView(t *testing.T) {
	t.Parallel()
	l := exercise.NewLibrary()
	got, err := l.Batch(context.Background(), "kn", therapy.TierMedium, 3)
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	for _, e := range got {
		if e.Prompt == "" || e.Tier != therapy.TierMedium || e.Language != "kn" {
			t.Errorf("batch entry %+v incomplete", e)
		}
	}
}
