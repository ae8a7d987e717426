// Package scoring turns an ASR transcription and a target prompt into an
// accuracy percentage, a rating, and per-word feedback.
//
// The primary metric is Levenshtein similarity over the full cleaned phrase.
// For Indic languages the comparison is multi-path: the transcription may
// arrive in native script or romanized form, so the package compares the
// native target, a romanized rendering of it, and a fuzzy word-overlap score,
// and keeps whichever path scores highest. See [BestAccuracy].
package scoring

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

// Rating buckets an accuracy percentage for display.
type Rating string

const (
	RatingExcellent Rating = "excellent"
	RatingGood      Rating = "good"
	RatingFair      Rating = "fair"
	RatingNeedsWork Rating = "needs_work"
)

// RatingFor maps an accuracy percentage to its display bucket.
func RatingFor(accuracy float64) Rating {
	switch {
	case accuracy >= 90:
		return RatingExcellent
	case accuracy >= 70:
		return RatingGood
	case accuracy >= 50:
		return RatingFair
	default:
		return RatingNeedsWork
	}
}

var (
	punctRe = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// Clean lowercases, strips punctuation, and collapses whitespace. Zero-width
// joiners common in Indic ASR output are removed before anything else.
func Clean(text string) string {
	for _, zw := range []string{"​", "‌", "‍"} {
		text = strings.ReplaceAll(text, zw, "")
	}
	text = strings.ToLower(text)
	text = punctRe.ReplaceAllString(text, "")
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Similarity returns the Levenshtein similarity between target and spoken as
// a percentage in [0, 100]. Inputs are cleaned first; distance is computed
// over runes so Indic scripts are measured per character, not per byte.
func Similarity(target, spoken string) float64 {
	target = Clean(target)
	spoken = Clean(spoken)
	if target == "" || spoken == "" {
		return 0
	}
	if target == spoken {
		return 100
	}
	dist := matchr.Levenshtein(target, spoken)
	maxLen := len([]rune(target))
	if l := len([]rune(spoken)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 100
	}
	sim := float64(maxLen-dist) / float64(maxLen) * 100
	if sim < 0 {
		return 0
	}
	return sim
}

// WordScore is one target word's similarity verdict within an [Analysis].
type WordScore struct {
	Word       string  `json:"word"`
	Spoken     string  `json:"spoken"`
	Similarity float64 `json:"similarity"` // [0, 1]
	Rating     Rating  `json:"rating"`
}

// Analysis is the full pronunciation verdict for one attempt.
type Analysis struct {
	Target   string      `json:"target"`
	Spoken   string      `json:"spoken"`
	Accuracy float64     `json:"accuracy"` // [0, 100]
	Rating   Rating      `json:"rating"`
	Words    []WordScore `json:"words"`
	Feedback string      `json:"feedback"`

	// Method records which comparison path produced Accuracy:
	// "direct", "romanized", or "fuzzy".
	Method string `json:"method"`
}

// Analyze compares spoken against target. The phrase-level similarity is the
// primary accuracy; per-word scores are positional and only inform feedback.
func Analyze(target, spoken string) Analysis {
	targetClean := Clean(target)
	spokenClean := Clean(spoken)

	a := Analysis{
		Target: target,
		Spoken: spoken,
		Method: "direct",
	}
	a.Accuracy = Similarity(targetClean, spokenClean)
	a.Rating = RatingFor(a.Accuracy)

	targetWords := strings.Fields(targetClean)
	spokenWords := strings.Fields(spokenClean)

	var parts []string
	for i, w := range targetWords {
		var sp string
		if i < len(spokenWords) {
			sp = spokenWords[i]
		}
		sim := Similarity(w, sp) / 100
		ws := WordScore{Word: w, Spoken: sp, Similarity: sim, Rating: RatingFor(sim * 100)}
		a.Words = append(a.Words, ws)

		switch ws.Rating {
		case RatingExcellent:
			parts = append(parts, fmt.Sprintf("%q ok", w))
		case RatingGood:
			parts = append(parts, fmt.Sprintf("%q close", w))
		case RatingFair:
			parts = append(parts, fmt.Sprintf("%q fair", w))
		default:
			parts = append(parts, fmt.Sprintf("%q needs work", w))
		}
	}
	if len(parts) > 0 {
		a.Feedback = strings.Join(parts, " | ")
	} else {
		a.Feedback = fmt.Sprintf("overall similarity: %.1f%%", a.Accuracy)
	}
	return a
}

// BestAccuracy analyzes spoken against target choosing the strongest
// comparison path for the language.
//
// For English the direct path is the only one. For Hindi and Kannada, when
// the transcription came back in native script the comparison is direct (an
// exact native-script match is always 100). When the ASR romanized the
// speech instead, the target is romanized too and the better of the
// direct, romanized, and fuzzy word-overlap scores wins.
func BestAccuracy(target, spoken, language string) Analysis {
	if language != "hi" && language != "kn" {
		return Analyze(target, spoken)
	}

	if InNativeScript(language, spoken) {
		return Analyze(target, spoken)
	}

	direct := Analyze(target, spoken)

	romanTarget := Romanize(language, target)
	romanized := Analyze(romanTarget, spoken)
	romanized.Target = target
	romanized.Method = "romanized"

	fuzzy := FuzzyAccuracy(romanTarget, spoken)

	best := direct
	if romanized.Accuracy > best.Accuracy {
		best = romanized
	}
	if fuzzy > best.Accuracy && fuzzy > 50 {
		best = romanized
		best.Accuracy = fuzzy
		best.Rating = RatingFor(fuzzy)
		best.Method = "fuzzy"
	}
	return best
}
