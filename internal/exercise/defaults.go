package exercise

import (
	"fmt"

	"github.com/kalpana-health/vaakya/internal/therapy"
)

// builtin returns the bank compiled into the binary. IDs are deterministic
// (<lang>-<tier>-<n>) so attempts recorded against them stay resolvable
// across restarts.
func builtin() []Exercise {
	type entry struct {
		text     string
		category string
		words    []string
	}
	banks := map[string]map[therapy.Tier][]entry{
		"en": {
			therapy.TierEasy: {
				{"Hello", "greeting", []string{"Hello"}},
				{"Thank you", "polite", []string{"Thank", "you"}},
				{"Yes", "response", []string{"Yes"}},
				{"No", "response", []string{"No"}},
				{"Water", "basic", []string{"Water"}},
				{"Food", "basic", []string{"Food"}},
				{"Home", "basic", []string{"Home"}},
				{"Good", "feeling", []string{"Good"}},
				{"Bad", "feeling", []string{"Bad"}},
				{"Help", "request", []string{"Help"}},
			},
			therapy.TierMedium: {
				{"I am hungry", "feeling", []string{"I", "am", "hungry"}},
				{"I need water", "request", []string{"I", "need", "water"}},
				{"How are you", "greeting", []string{"How", "are", "you"}},
				{"I want to go home", "desire", []string{"I", "want", "go", "home"}},
				{"The cat is black", "description", []string{"The", "cat", "is", "black"}},
				{"I love you", "emotion", []string{"I", "love", "you"}},
				{"Please help me", "request", []string{"Please", "help", "me"}},
				{"What is your name", "question", []string{"What", "is", "your", "name"}},
				{"I am reading a book", "activity", []string{"I", "am", "reading", "book"}},
				{"The weather is nice", "description", []string{"The", "weather", "is", "nice"}},
			},
			therapy.TierHard: {
				{"I would like to speak with the doctor", "medical", []string{"I", "would", "like", "speak", "doctor"}},
				{"My family is coming to visit tomorrow", "family", []string{"My", "family", "coming", "visit", "tomorrow"}},
				{"I need to buy groceries for dinner", "shopping", []string{"I", "need", "buy", "groceries", "dinner"}},
				{"The medication makes me feel better", "medical", []string{"The", "medication", "makes", "feel", "better"}},
				{"I enjoy listening to music in the evening", "hobby", []string{"I", "enjoy", "listening", "music", "evening"}},
			},
		},
		"hi": {
			therapy.TierEasy: {
				{"नमस्ते", "greeting", []string{"नमस्ते"}},
				{"धन्यवाद", "polite", []string{"धन्यवाद"}},
				{"हाँ", "response", []string{"हाँ"}},
				{"नहीं", "response", []string{"नहीं"}},
				{"पानी", "basic", []string{"पानी"}},
				{"खाना", "basic", []string{"खाना"}},
				{"घर", "basic", []string{"घर"}},
				{"अच्छा", "feeling", []string{"अच्छा"}},
				{"बुरा", "feeling", []string{"बुरा"}},
				{"मदद", "request", []string{"मदद"}},
			},
			therapy.TierMedium: {
				{"मुझे भूख लगी है", "feeling", []string{"मुझे", "भूख", "लगी"}},
				{"मुझे पानी चाहिए", "request", []string{"मुझे", "पानी", "चाहिए"}},
				{"आप कैसे हैं", "greeting", []string{"आप", "कैसे", "हैं"}},
				{"मैं घर जाना चाहता हूं", "desire", []string{"मैं", "घर", "जाना", "चाहता"}},
				{"बिल्ली काली है", "description", []string{"बिल्ली", "काली"}},
				{"मैं आपसे प्यार करता हूं", "emotion", []string{"मैं", "आपसे", "प्यार"}},
				{"कृपया मेरी मदद करें", "request", []string{"कृपया", "मेरी", "मदद"}},
				{"आपका नाम क्या है", "question", []string{"आपका", "नाम", "क्या"}},
				{"मैं किताब पढ़ रहा हूं", "activity", []string{"मैं", "किताब", "पढ़"}},
				{"मौसम अच्छा है", "description", []string{"मौसम", "अच्छा"}},
			},
			therapy.TierHard: {
				{"मैं डॉक्टर से बात करना चाहता हूं", "medical", []string{"मैं", "डॉक्टर", "बात", "चाहता"}},
				{"मेरा परिवार कल मिलने आ रहा है", "family", []string{"मेरा", "परिवार", "कल", "मिलने"}},
				{"मुझे रात के खाने के लिए सामान खरीदना है", "shopping", []string{"मुझे", "खाने", "सामान", "खरीदना"}},
				{"दवा से मुझे बेहतर महसूस होता है", "medical", []string{"दवा", "मुझे", "बेहतर", "महसूस"}},
				{"मैं शाम को संगीत सुनना पसंद करता हूं", "hobby", []string{"मैं", "शाम", "संगीत", "सुनना", "पसंद"}},
			},
		},
		"kn": {
			therapy.TierEasy: {
				{"ನಮಸ್ಕಾರ", "greeting", []string{"ನಮಸ್ಕಾರ"}},
				{"ಧನ್ಯವಾದಗಳು", "polite", []string{"ಧನ್ಯವಾದಗಳು"}},
				{"ಹೌದು", "response", []string{"ಹೌದು"}},
				{"ಇಲ್ಲ", "response", []string{"ಇಲ್ಲ"}},
				{"ನೀರು", "basic", []string{"ನೀರು"}},
				{"ಊಟ", "basic", []string{"ಊಟ"}},
				{"ಮನೆ", "basic", []string{"ಮನೆ"}},
				{"ಒಳ್ಳೆಯದು", "feeling", []string{"ಒಳ್ಳೆಯದು"}},
				{"ಕೆಟ್ಟದು", "feeling", []string{"ಕೆಟ್ಟದು"}},
				{"ಸಹಾಯ", "request", []string{"ಸಹಾಯ"}},
			},
			therapy.TierMedium: {
				{"ನನಗೆ ಹಸಿವಾಗಿದೆ", "feeling", []string{"ನನಗೆ", "ಹಸಿವಾಗಿದೆ"}},
				{"ನನಗೆ ನೀರು ಬೇಕು", "request", []string{"ನನಗೆ", "ನೀರು", "ಬೇಕು"}},
				{"ನೀವು ಹೇಗಿದ್ದೀರಿ", "greeting", []string{"ನೀವು", "ಹೇಗಿದ್ದೀರಿ"}},
				{"ನಾನು ಮನೆಗೆ ಹೋಗಬೇಕು", "desire", []string{"ನಾನು", "ಮನೆಗೆ", "ಹೋಗಬೇಕು"}},
				{"ಬೆಕ್ಕು ಕಪ್ಪು", "description", []string{"ಬೆಕ್ಕು", "ಕಪ್ಪು"}},
				{"ನಾನು ನಿಮ್ಮನ್ನು ಪ್ರೀತಿಸುತ್ತೇನೆ", "emotion", []string{"ನಾನು", "ನಿಮ್ಮನ್ನು", "ಪ್ರೀತಿಸುತ್ತೇನೆ"}},
				{"ದಯವಿಟ್ಟು ನನಗೆ ಸಹಾಯ ಮಾಡಿ", "request", []string{"ದಯವಿಟ್ಟು", "ನನಗೆ", "ಸಹಾಯ"}},
				{"ನಿಮ್ಮ ಹೆಸರು ಏನು", "question", []string{"ನಿಮ್ಮ", "ಹೆಸರು", "ಏನು"}},
				{"ನಾನು ಪುಸ್ತಕ ಓದುತ್ತಿದ್ದೇನೆ", "activity", []string{"ನಾನು", "ಪುಸ್ತಕ", "ಓದುತ್ತಿದ್ದೇನೆ"}},
				{"ಹವಾಮಾನ ಚೆನ್ನಾಗಿದೆ", "description", []string{"ಹವಾಮಾನ", "ಚೆನ್ನಾಗಿದೆ"}},
			},
			therapy.TierHard: {
				{"ನಾನು ವೈದ್ಯರೊಂದಿಗೆ ಮಾತನಾಡಬೇಕು", "medical", []string{"ನಾನು", "ವೈದ್ಯರೊಂದಿಗೆ", "ಮಾತನಾಡಬೇಕು"}},
				{"ನನ್ನ ಕುಟುಂಬ ನಾಳೆ ಭೇಟಿ ನೀಡಲಿದೆ", "family", []string{"ನನ್ನ", "ಕುಟುಂಬ", "ನಾಳೆ", "ಭೇಟಿ"}},
				{"ನನಗೆ ರಾತ್ರಿ ಊಟಕ್ಕೆ ಸಾಮಾನು ತೆಗೆದುಕೊಳ್ಳಬೇಕು", "shopping", []string{"ನನಗೆ", "ಊಟಕ್ಕೆ", "ಸಾಮಾನು", "ತೆಗೆದುಕೊಳ್ಳಬೇಕು"}},
				{"ಔಷಧಿಯಿಂದ ನನಗೆ ಉತ್ತಮವಾಗುತ್ತದೆ", "medical", []string{"ಔಷಧಿಯಿಂದ", "ನನಗೆ", "ಉತ್ತಮವಾಗುತ್ತದೆ"}},
				{"ನಾನು ಸಂಜೆ ಸಂಗೀತ ಕೇಳಲು ಇಷ್ಟಪಡುತ್ತೇನೆ", "hobby", []string{"ನಾನು", "ಸಂಜೆ", "ಸಂಗೀತ", "ಕೇಳಲು", "ಇಷ್ಟಪಡುತ್ತೇನೆ"}},
			},
		},
	}

	var out []Exercise
	for _, lang := range []string{"en", "hi", "kn"} {
		for _, tier := range therapy.Tiers() {
			for i, e := range banks[lang][tier] {
				out = append(out, Exercise{
					ID:          fmt.Sprintf("%s-%s-%d", lang, tier, i),
					Text:        e.text,
					Language:    lang,
					Tier:        tier,
					Category:    e.category,
					TargetWords: e.words,
				})
			}
		}
	}
	return out
}
