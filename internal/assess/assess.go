// Package assess implements the initial screening that places a new patient
// on the difficulty ladder. The patient repeats a short ladder of words of
// increasing difficulty; the weighted accuracy estimates a WAB-AQ score
// (Western Aphasia Battery Aphasia Quotient, 0-100) which maps to a
// severity band, a starting practice tier, and session sizing.
package assess

import (
	"github.com/kalpana-health/vaakya/internal/therapy"
)

// Severity is the clinical band derived from the estimated WAB-AQ score.
type Severity string

const (
	SeverityVerySevere Severity = "very_severe" // WAB-AQ <= 25
	SeveritySevere     Severity = "severe"      // WAB-AQ <= 50
	SeverityModerate   Severity = "moderate"    // WAB-AQ <= 75
	SeverityMild       Severity = "mild"        // WAB-AQ > 75
)

// SeverityFor maps an estimated WAB-AQ score to its band.
func SeverityFor(wab float64) Severity {
	switch {
	case wab <= 25:
		return SeverityVerySevere
	case wab <= 50:
		return SeveritySevere
	case wab <= 75:
		return SeverityModerate
	default:
		return SeverityMild
	}
}

// PracticeTier returns the starting practice tier for a severity band.
func PracticeTier(s Severity) therapy.Tier {
	switch s {
	case SeverityModerate:
		return therapy.TierMedium
	case SeverityMild:
		return therapy.TierHard
	default:
		return therapy.TierEasy
	}
}

// SessionQuota returns how many exercises one session should contain for a
// severity band.
func SessionQuota(s Severity) int {
	switch s {
	case SeverityVerySevere:
		return 3
	case SeveritySevere:
		return 5
	case SeverityModerate:
		return 8
	case SeverityMild:
		return 10
	default:
		return 5
	}
}

// SessionMinutes returns the recommended session length for a severity band.
func SessionMinutes(s Severity) int {
	switch s {
	case SeverityVerySevere:
		return 10
	case SeveritySevere:
		return 15
	case SeverityModerate:
		return 20
	case SeverityMild:
		return 25
	default:
		return 15
	}
}

// WordResult is one assessment word's outcome: the word attempted and the
// accuracy the scoring engine measured for it.
type WordResult struct {
	Word     string  `json:"word"`
	Accuracy float64 `json:"accuracy"`
}

// Result is the outcome of a completed assessment.
type Result struct {
	EstimatedWAB    float64      `json:"estimated_wab"`
	Severity        Severity     `json:"severity"`
	PracticeTier    therapy.Tier `json:"practice_tier"`
	SessionQuota    int          `json:"session_quota"`
	SessionMinutes  int          `json:"session_minutes"`
	Recommendations []string     `json:"recommendations"`
}

// Evaluate derives the assessment outcome from the per-word results. Each
// word's accuracy is weighted by its ladder level (basic 1.0, intermediate
// 1.5, advanced 2.0) so that success on harder words moves the estimate more.
// Words not in the language's bank carry basic weight.
//
// An empty result set yields the most conservative outcome so the patient is
// never started above their ability.
func Evaluate(results []WordResult, language string) Result {
	if len(results) == 0 {
		return Result{
			Severity:        SeverityVerySevere,
			PracticeTier:    therapy.TierEasy,
			SessionQuota:    SessionQuota(SeverityVerySevere),
			SessionMinutes:  SessionMinutes(SeverityVerySevere),
			Recommendations: []string{"Complete initial assessment first"},
		}
	}

	var totalScore, totalWeight float64
	for _, r := range results {
		weight := 1.0
		if w, ok := lookupWord(language, r.Word); ok {
			weight = w.Level.Weight()
		}
		totalScore += r.Accuracy * weight
		totalWeight += weight
	}

	wab := totalScore / totalWeight
	if wab < 0 {
		wab = 0
	}
	if wab > 100 {
		wab = 100
	}

	sev := SeverityFor(wab)
	return Result{
		EstimatedWAB:    wab,
		Severity:        sev,
		PracticeTier:    PracticeTier(sev),
		SessionQuota:    SessionQuota(sev),
		SessionMinutes:  SessionMinutes(sev),
		Recommendations: recommendations(sev, results),
	}
}

// recommendations builds the top four guidance lines: the severity band's
// standing advice plus one line keyed to the raw accuracy pattern.
func recommendations(sev Severity, results []WordResult) []string {
	var recs []string
	switch sev {
	case SeverityVerySevere:
		recs = []string{
			"Start with basic single words and sounds",
			"Focus on familiar greetings and common words",
			"Practice daily with short 10-15 minute sessions",
			"Use visual aids and gestures to support speech",
		}
	case SeveritySevere:
		recs = []string{
			"Practice basic words and short phrases",
			"Work on clear pronunciation of familiar words",
			"Gradually increase vocabulary with common items",
			"Practice naming everyday objects",
		}
	case SeverityModerate:
		recs = []string{
			"Focus on sentence formation and fluency",
			"Practice describing pictures and situations",
			"Work on word-finding exercises",
			"Engage in simple conversations",
		}
	default:
		recs = []string{
			"Practice complex sentences and narratives",
			"Work on abstract concepts and explanations",
			"Focus on fluency and natural speech patterns",
			"Engage in detailed conversations and storytelling",
		}
	}

	var sum float64
	for _, r := range results {
		sum += r.Accuracy
	}
	avg := sum / float64(len(results))
	switch {
	case avg < 30:
		recs = append(recs, "Focus on slower, more deliberate speech")
	case avg < 60:
		recs = append(recs, "Practice word repetition and rhythm")
	default:
		recs = append(recs, "Work on speech naturalness and flow")
	}

	if len(recs) > 4 {
		recs = recs[:4]
	}
	return recs
}
