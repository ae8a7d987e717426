package scoring

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// similarWordThreshold is the Jaro-Winkler score above which two romanized
// words are considered renderings of the same spoken word. Romanization
// schemes disagree on vowel length ("namaste"/"namastee"), so this is
// deliberately loose.
const similarWordThreshold = 0.6

// SimilarWords reports whether two words are close enough to count as the
// same spoken word under differing romanizations.
func SimilarWords(a, b string) bool {
	if a == b {
		return true
	}
	if a == "" || b == "" {
		return false
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	return matchr.JaroWinkler(a, b, false) >= similarWordThreshold
}

// FuzzyAccuracy scores spoken against target by best per-word match rather
// than position, as a percentage. It tolerates reordered or merged words that
// defeat the positional comparison in [Analyze], and exists solely for the
// romanized Indic path.
func FuzzyAccuracy(target, spoken string) float64 {
	targetWords := strings.Fields(Clean(target))
	spokenWords := strings.Fields(Clean(spoken))
	if len(targetWords) == 0 || len(spokenWords) == 0 {
		return 0
	}

	var total float64
	for _, tw := range targetWords {
		best := 0.0
		for _, sw := range spokenWords {
			if !SimilarWords(tw, sw) {
				continue
			}
			if s := matchr.JaroWinkler(tw, sw, false); s > best {
				best = s
			}
		}
		total += best
	}
	return total / float64(len(targetWords)) * 100
}
