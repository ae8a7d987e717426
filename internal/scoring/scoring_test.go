package scoring_test

import (
	"strings"
	"testing"

	"github.com/kalpana-health/vaakya/internal/scoring"
)

// TestSimilarity_ExactMatch verifies an identical phrase scores 100 even with
// case and punctuation differences.
func TestSimilarity_ExactMatch(t *testing.T) {
	t.Parallel()
	if got := scoring.Similarity("Hello, world!", "hello world"); got != 100 {
		t.Errorf("Similarity = %v, want 100", got)
	}
}

// TestSimilarity_Empty verifies empty inputs score zero rather than panicking
// or fabricating a match.
func TestSimilarity_Empty(t *testing.T) {
	t.Parallel()
	if got := scoring.Similarity("water", ""); got != 0 {
		t.Errorf("Similarity(target, empty) = %v, want 0", got)
	}
	if got := scoring.Similarity("", "water"); got != 0 {
		t.Errorf("Similarity(empty, spoken) = %v, want 0", got)
	}
}

// TestSimilarity_SingleEdit verifies the Levenshtein arithmetic for one
// substitution in a five-letter word: (5-1)/5 = 80%.
func TestSimilarity_SingleEdit(t *testing.T) {
	t.Parallel()
	if got := scoring.Similarity("water", "wader"); got != 80 {
		t.Errorf("Similarity(water, wader) = %v, want 80", got)
	}
}

// TestRatingFor_Bands verifies the 90/70/50 display bands at their edges.
func TestRatingFor_Bands(t *testing.T) {
	t.Parallel()
	cases := []struct {
		acc  float64
		want scoring.Rating
	}{
		{95, scoring.RatingExcellent},
		{90, scoring.RatingExcellent},
		{89.9, scoring.RatingGood},
		{70, scoring.RatingGood},
		{69.9, scoring.RatingFair},
		{50, scoring.RatingFair},
		{49.9, scoring.RatingNeedsWork},
	}
	for _, c := range cases {
		if got := scoring.RatingFor(c.acc); got != c.want {
			t.Errorf("RatingFor(%v) = %s, want %s", c.acc, got, c.want)
		}
	}
}

// TestAnalyze_PerWordFeedback verifies a partially correct phrase produces
// word-level verdicts for every target word.
func TestAnalyze_PerWordFeedback(t *testing.T) {
	t.Parallel()
	a := scoring.Analyze("I want water", "I want wader")
	if len(a.Words) != 3 {
		t.Fatalf("len(Words) = %d, want 3", len(a.Words))
	}
	if a.Words[0].Rating != scoring.RatingExcellent {
		t.Errorf("word %q rating = %s, want excellent", a.Words[0].Word, a.Words[0].Rating)
	}
	if a.Accuracy < 80 {
		t.Errorf("Accuracy = %v, want >= 80 for one-letter slip", a.Accuracy)
	}
	if a.Feedback == "" {
		t.Error("Feedback is empty")
	}
}

// TestRomanize_Hindi verifies the Devanagari walk handles vowel signs and the
// virama (नमस्ते has a conjunct स्‌त).
func TestRomanize_Hindi(t *testing.T) {
	t.Parallel()
	got := scoring.Romanize("hi", "नमस्ते")
	if !strings.Contains(got, "nama") {
		t.Errorf("Romanize(hi, नमस्ते) = %q, want a namaste-like form", got)
	}
	if strings.ContainsAny(got, "नमस्ते") {
		t.Errorf("Romanize left native characters in %q", got)
	}
}

// TestRomanize_Kannada verifies the Kannada tables on ನೀರು (water).
func TestRomanize_Kannada(t *testing.T) {
	t.Parallel()
	got := scoring.Romanize("kn", "ನೀರು")
	if got != "neeru" {
		t.Errorf("Romanize(kn, ನೀರು) = %q, want neeru", got)
	}
}

// TestRomanize_UnknownLanguagePassthrough verifies non-Indic text is returned
// unchanged.
func TestRomanize_UnknownLanguagePassthrough(t *testing.T) {
	t.Parallel()
	if got := scoring.Romanize("en", "hello"); got != "hello" {
		t.Errorf("Romanize(en, hello) = %q, want hello", got)
	}
}

// TestInNativeScript verifies script detection for both Indic ranges and the
// romanized negative.
func TestInNativeScript(t *testing.T) {
	t.Parallel()
	if !scoring.InNativeScript("hi", "नमस्ते") {
		t.Error("InNativeScript(hi, नमस्ते) = false")
	}
	if !scoring.InNativeScript("kn", "ನೀರು") {
		t.Error("InNativeScript(kn, ನೀರು) = false")
	}
	if scoring.InNativeScript("hi", "namaste") {
		t.Error("InNativeScript(hi, namaste) = true, want false")
	}
}

// TestBestAccuracy_RomanizedTranscription verifies Hindi speech transcribed
// in Roman letters still scores high against the native target.
func TestBestAccuracy_RomanizedTranscription(t *testing.T) {
	t.Parallel()
	a := scoring.BestAccuracy("नमस्ते", "namaste", "hi")
	if a.Accuracy < 70 {
		t.Errorf("Accuracy = %v, want >= 70 for correct romanized speech", a.Accuracy)
	}
	if a.Method == "direct" {
		t.Errorf("Method = direct, want romanized or fuzzy")
	}
}

// TestBestAccuracy_NativeExactMatch verifies an exact native-script
// transcription takes the direct path and scores 100.
func TestBestAccuracy_NativeExactMatch(t *testing.T) {
	t.Parallel()
	a := scoring.BestAccuracy("नमस्ते", "नमस्ते", "hi")
	if a.Accuracy != 100 {
		t.Errorf("Accuracy = %v, want 100", a.Accuracy)
	}
	if a.Method != "direct" {
		t.Errorf("Method = %s, want direct", a.Method)
	}
}

// TestFeedbackMessage_Languages verifies each language has distinct band
// messages and unknown languages fall back to English.
func TestFeedbackMessage_Languages(t *testing.T) {
	t.Parallel()
	if got := scoring.FeedbackMessage(95, "en"); got != "Excellent pronunciation!" {
		t.Errorf("en top band = %q", got)
	}
	if got := scoring.FeedbackMessage(95, "hi"); got == scoring.FeedbackMessage(95, "en") {
		t.Error("hi top band equals en top band, want localized message")
	}
	if got := scoring.FeedbackMessage(95, "xx"); got != scoring.FeedbackMessage(95, "en") {
		t.Errorf("unknown language = %q, want English fallback", got)
	}
	if scoring.FeedbackMessage(40, "en") == scoring.FeedbackMessage(95, "en") {
		t.Error("bottom band equals top band")
	}
}

// TestWordCorrections_NoSpeech verifies every target word gets guidance when
// nothing was transcribed.
func TestWordCorrections_NoSpeech(t *testing.T) {
	t.Parallel()
	got := scoring.WordCorrections("I want water", "  ", "en")
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Issue != "Not detected" {
		t.Errorf("Issue = %q, want Not detected", got[0].Issue)
	}
}

// TestWordCorrections_RomanizedAccepted verifies a romanized rendering of a
// Hindi word does not produce a correction.
func TestWordCorrections_RomanizedAccepted(t *testing.T) {
	t.Parallel()
	got := scoring.WordCorrections("नमस्ते", "NAMASTE", "hi")
	if len(got) != 0 {
		t.Errorf("corrections = %+v, want none for romanized match", got)
	}
}

// TestWordCorrections_MissingWord verifies a dropped trailing word is flagged.
func TestWordCorrections_MissingWord(t *testing.T) {
	t.Parallel()
	got := scoring.WordCorrections("I want water", "I want", "en")
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Word != "water" || got[0].Issue != "Missing word" {
		t.Errorf("correction = %+v, want missing-word for water", got[0])
	}
}

// TestFuzzyAccuracy_Reordered verifies position-independent matching scores
// reordered words.
func TestFuzzyAccuracy_Reordered(t *testing.T) {
	t.Parallel()
	if got := scoring.FuzzyAccuracy("naa-nu neeru", "neeru naa-nu"); got < 90 {
		t.Errorf("FuzzyAccuracy reordered = %v, want >= 90", got)
	}
}
