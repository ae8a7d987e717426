package scoring

import (
	"fmt"
	"strings"
)

// feedbackMessages holds the encouragement lines per language, indexed by the
// 90/70/50 accuracy bands (best first).
var feedbackMessages = map[string][4]string{
	"hi": {
		"बहुत अच्छा! उच्चारण बिल्कुल सही है।",
		"अच्छा! थोड़ा और अभ्यास करें।",
		"ठीक है। और अभ्यास की जरूरत है।",
		"अभ्यास जारी रखें। आप बेहतर कर सकते हैं।",
	},
	"kn": {
		"ತುಂಬಾ ಚೆನ್ನಾಗಿದೆ! ಉಚ್ಚಾರಣೆ ಸರಿಯಾಗಿದೆ।",
		"ಚೆನ್ನಾಗಿದೆ! ಇನ್ನೂ ಸ್ವಲ್ಪ ಅಭ್ಯಾಸ ಮಾಡಿ।",
		"ಸರಿ. ಇನ್ನೂ ಅಭ್ಯಾಸದ ಅವಶ್ಯಕತೆ ಇದೆ।",
		"ಅಭ್ಯಾಸ ಮುಂದುವರಿಸಿ. ನೀವು ಉತ್ತಮವಾಗಿ ಮಾಡಬಹುದು।",
	},
	"en": {
		"Excellent pronunciation!",
		"Good job! Minor improvements needed.",
		"Fair attempt. More practice needed.",
		"Keep practicing. You can do better.",
	},
}

// FeedbackMessage returns the patient-facing encouragement line for an
// accuracy percentage, in the session's language. Unknown languages get the
// English lines.
func FeedbackMessage(accuracy float64, language string) string {
	msgs, ok := feedbackMessages[language]
	if !ok {
		msgs = feedbackMessages["en"]
	}
	switch {
	case accuracy >= 90:
		return msgs[0]
	case accuracy >= 70:
		return msgs[1]
	case accuracy >= 50:
		return msgs[2]
	default:
		return msgs[3]
	}
}

// pronunciationTips maps common therapy words to syllable-break guidance.
var pronunciationTips = map[string]map[string]string{
	"hi": {
		"नमस्ते":  "Break it down: ना-मस्-ते (na-mas-te)",
		"धन्यवाद": "Break it down: धन्-य-वाद (dhan-ya-waad)",
		"हाँ":     "Short sound: हाँ (haan) with nasal ending",
		"नहीं":    "Break it down: न-हीं (na-heen)",
		"पानी":    "Break it down: पा-नी (paa-nee)",
		"खाना":    "Break it down: खा-ना (khaa-na)",
	},
	"kn": {
		"ನಮಸ್ಕಾರ": "Break it down: ನ-ಮಸ್-ಕಾ-ರ (na-mas-kaa-ra)",
		"ಧನ್ಯವಾದ": "Break it down: ಧನ್-ಯ-ವಾ-ದ (dhan-ya-vaa-da)",
		"ಹೌದು":    "Short sound: ಹೌ-ದು (hau-du)",
		"ಇಲ್ಲ":    "Break it down: ಇಲ್-ಲ (il-la)",
		"ನೀರು":    "Break it down: ನೀ-ರು (nee-ru)",
		"ಮನೆ":     "Break it down: ಮ-ನೆ (ma-ne)",
		"ನಾನು":    "Break it down: ನಾ-ನು (naa-nu)",
	},
}

// PronunciationTip returns per-word guidance, falling back to a generic
// syllable-by-syllable suggestion.
func PronunciationTip(word, language string) string {
	if tips, ok := pronunciationTips[language]; ok {
		if tip, ok := tips[word]; ok {
			return tip
		}
	}
	return fmt.Sprintf("Practice saying %s slowly, syllable by syllable", word)
}

// WordCorrection is the per-word guidance attached to an attempt response.
type WordCorrection struct {
	Word       string `json:"word"`
	Position   int    `json:"position"`
	Issue      string `json:"issue"`
	Correction string `json:"correction"`
	Tip        string `json:"pronunciation_tip"`
}

// WordCorrections aligns the transcription against the target word by word
// and produces a correction for every word that was missing or mispronounced.
// For Indic languages a romanized rendering of the target word is accepted in
// place of the native form: "NAMASTE" for "नमस्ते" is not an error.
func WordCorrections(target, transcription, language string) []WordCorrection {
	targetWords := strings.Fields(target)

	if strings.TrimSpace(transcription) == "" {
		out := make([]WordCorrection, 0, len(targetWords))
		for i, w := range targetWords {
			out = append(out, WordCorrection{
				Word:       w,
				Position:   i,
				Issue:      "Not detected",
				Correction: fmt.Sprintf("Say %q clearly", w),
				Tip:        PronunciationTip(w, language),
			})
		}
		return out
	}

	spokenWords := strings.Fields(transcription)
	var out []WordCorrection
	for i, tw := range targetWords {
		var sw string
		if i < len(spokenWords) {
			sw = spokenWords[i]
		}

		if sw == "" {
			out = append(out, WordCorrection{
				Word:       tw,
				Position:   i,
				Issue:      "Missing word",
				Correction: fmt.Sprintf("Add %q", tw),
				Tip:        PronunciationTip(tw, language),
			})
			continue
		}
		if strings.EqualFold(tw, sw) {
			continue
		}

		if language == "hi" || language == "kn" {
			roman := strings.ToLower(Romanize(language, tw))
			if SimilarWords(roman, strings.ToLower(sw)) {
				continue
			}
			out = append(out, WordCorrection{
				Word:       tw,
				Position:   i,
				Issue:      fmt.Sprintf("Pronounced as %q", sw),
				Correction: fmt.Sprintf("Say %q (%s)", tw, roman),
				Tip:        PronunciationTip(tw, language),
			})
			continue
		}

		if !SimilarWords(strings.ToLower(tw), strings.ToLower(sw)) {
			out = append(out, WordCorrection{
				Word:       tw,
				Position:   i,
				Issue:      fmt.Sprintf("Pronounced as %q", sw),
				Correction: fmt.Sprintf("Say %q", tw),
				Tip:        PronunciationTip(tw, language),
			})
		}
	}
	return out
}
