package assess

import (
	"fmt"
	"math/rand"
)

// Level is the assessment ladder step a word belongs to.
type Level string

const (
	LevelBasic        Level = "basic"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Weight returns the level's contribution multiplier in the WAB estimate.
func (l Level) Weight() float64 {
	switch l {
	case LevelIntermediate:
		return 1.5
	case LevelAdvanced:
		return 2.0
	default:
		return 1.0
	}
}

// Word is one entry of the assessment bank.
type Word struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Level    Level  `json:"level"`
	Category string `json:"category"`
}

// wordBanks holds the per-language assessment ladders. Four words per level,
// curated for everyday relevance.
var wordBanks = map[string][]Word{
	"hi": {
		{Text: "नमस्ते", Language: "hi", Level: LevelBasic, Category: "greeting"},
		{Text: "हाँ", Language: "hi", Level: LevelBasic, Category: "common"},
		{Text: "पानी", Language: "hi", Level: LevelBasic, Category: "common"},
		{Text: "खाना", Language: "hi", Level: LevelBasic, Category: "common"},
		{Text: "धन्यवाद", Language: "hi", Level: LevelIntermediate, Category: "greeting"},
		{Text: "अच्छा", Language: "hi", Level: LevelIntermediate, Category: "common"},
		{Text: "समय", Language: "hi", Level: LevelIntermediate, Category: "common"},
		{Text: "काम", Language: "hi", Level: LevelIntermediate, Category: "common"},
		{Text: "स्वास्थ्य", Language: "hi", Level: LevelAdvanced, Category: "complex"},
		{Text: "शिक्षा", Language: "hi", Level: LevelAdvanced, Category: "complex"},
		{Text: "परिवार", Language: "hi", Level: LevelAdvanced, Category: "complex"},
		{Text: "व्यायाम", Language: "hi", Level: LevelAdvanced, Category: "complex"},
	},
	"kn": {
		{Text: "ನಮಸ್ಕಾರ", Language: "kn", Level: LevelBasic, Category: "greeting"},
		{Text: "ಹೌದು", Language: "kn", Level: LevelBasic, Category: "common"},
		{Text: "ನೀರು", Language: "kn", Level: LevelBasic, Category: "common"},
		{Text: "ಅನ್ನ", Language: "kn", Level: LevelBasic, Category: "common"},
		{Text: "ಧನ್ಯವಾದ", Language: "kn", Level: LevelIntermediate, Category: "greeting"},
		{Text: "ಒಳ್ಳೆಯದು", Language: "kn", Level: LevelIntermediate, Category: "common"},
		{Text: "ಸಮಯ", Language: "kn", Level: LevelIntermediate, Category: "common"},
		{Text: "ಕೆಲಸ", Language: "kn", Level: LevelIntermediate, Category: "common"},
		{Text: "ಆರೋಗ್ಯ", Language: "kn", Level: LevelAdvanced, Category: "complex"},
		{Text: "ಶಿಕ್ಷಣ", Language: "kn", Level: LevelAdvanced, Category: "complex"},
		{Text: "ಕುಟುಂಬ", Language: "kn", Level: LevelAdvanced, Category: "complex"},
		{Text: "ವ್ಯಾಯಾಮ", Language: "kn", Level: LevelAdvanced, Category: "complex"},
	},
	"en": {
		{Text: "hello", Language: "en", Level: LevelBasic, Category: "greeting"},
		{Text: "yes", Language: "en", Level: LevelBasic, Category: "common"},
		{Text: "water", Language: "en", Level: LevelBasic, Category: "common"},
		{Text: "food", Language: "en", Level: LevelBasic, Category: "common"},
		{Text: "thank you", Language: "en", Level: LevelIntermediate, Category: "greeting"},
		{Text: "good", Language: "en", Level: LevelIntermediate, Category: "common"},
		{Text: "time", Language: "en", Level: LevelIntermediate, Category: "common"},
		{Text: "work", Language: "en", Level: LevelIntermediate, Category: "common"},
		{Text: "health", Language: "en", Level: LevelAdvanced, Category: "complex"},
		{Text: "education", Language: "en", Level: LevelAdvanced, Category: "complex"},
		{Text: "family", Language: "en", Level: LevelAdvanced, Category: "complex"},
		{Text: "exercise", Language: "en", Level: LevelAdvanced, Category: "complex"},
	},
}

// Languages lists the languages with an assessment bank.
func Languages() []string {
	return []string{"en", "hi", "kn"}
}

// lookupWord finds a bank entry by exact text.
func lookupWord(language, text string) (Word, bool) {
	for _, w := range wordBanks[language] {
		if w.Text == text {
			return w, true
		}
	}
	return Word{}, false
}

// levelForAttempt maps the 1-based attempt number to the ladder level:
// attempt 1 is basic, 2 intermediate, 3 and beyond advanced.
func levelForAttempt(attempt int) Level {
	switch {
	case attempt <= 1:
		return LevelBasic
	case attempt == 2:
		return LevelIntermediate
	default:
		return LevelAdvanced
	}
}

// NextWord picks the assessment word for the given attempt, random within
// the attempt's ladder level.
func NextWord(language string, attempt int) (Word, error) {
	bank, ok := wordBanks[language]
	if !ok {
		return Word{}, fmt.Errorf("assess: no word bank for language %q", language)
	}

	level := levelForAttempt(attempt)
	var candidates []Word
	for _, w := range bank {
		if w.Level == level {
			candidates = append(candidates, w)
		}
	}
	if len(candidates) == 0 {
		return bank[0], nil
	}
	return candidates[rand.Intn(len(candidates))], nil
}

// Bank returns the full ladder for a language, or nil if unsupported.
func Bank(language string) []Word {
	return wordBanks[language]
}
