package scoring

import "strings"

// script holds the transliteration tables for one Indic script. Consonant
// entries carry the inherent 'a'; a following vowel sign replaces it and the
// virama strips it.
type script struct {
	vowels     map[rune]string
	consonants map[rune]string
	vowelSigns map[rune]string
	special    map[rune]string
	virama     rune
}

var devanagari = script{
	vowels: map[rune]string{
		'अ': "a", 'आ': "aa", 'इ': "i", 'ई': "ee", 'उ': "u", 'ऊ': "oo",
		'ऋ': "ri", 'ए': "e", 'ऐ': "ai", 'ओ': "o", 'औ': "au",
	},
	consonants: map[rune]string{
		'क': "ka", 'ख': "kha", 'ग': "ga", 'घ': "gha", 'ङ': "nga",
		'च': "cha", 'छ': "chha", 'ज': "ja", 'झ': "jha", 'ञ': "nya",
		'ट': "ta", 'ठ': "tha", 'ड': "da", 'ढ': "dha", 'ण': "na",
		'त': "tha", 'थ': "thha", 'द': "dha", 'ध': "dhha", 'न': "na",
		'प': "pa", 'फ': "pha", 'ब': "ba", 'भ': "bha", 'म': "ma",
		'य': "ya", 'र': "ra", 'ल': "la", 'व': "va",
		'श': "sha", 'ष': "shha", 'स': "sa", 'ह': "ha",
		'क़': "qa", 'ख़': "kha", 'ग़': "gha", 'ज़': "za",
		'ड़': "da", 'ढ़': "dha", 'फ़': "fa", 'ळ': "la",
	},
	vowelSigns: map[rune]string{
		'ा': "aa", 'ि': "i", 'ी': "ee", 'ु': "u", 'ू': "oo", 'ृ': "ri",
		'े': "e", 'ै': "ai", 'ो': "o", 'ौ': "au",
	},
	special: map[rune]string{
		'ं': "n", 'ँ': "n", 'ः': "h", '़': "",
	},
	virama: '्',
}

var kannada = script{
	vowels: map[rune]string{
		'ಅ': "a", 'ಆ': "aa", 'ಇ': "i", 'ಈ': "ee", 'ಉ': "u", 'ಊ': "oo",
		'ಋ': "ru", 'ಎ': "e", 'ಏ': "ae", 'ಐ': "ai", 'ಒ': "o", 'ಓ': "oa", 'ಔ': "au",
	},
	consonants: map[rune]string{
		'ಕ': "ka", 'ಖ': "kha", 'ಗ': "ga", 'ಘ': "gha", 'ಙ': "nga",
		'ಚ': "cha", 'ಛ': "chha", 'ಜ': "ja", 'ಝ': "jha", 'ಞ': "nya",
		'ಟ': "ta", 'ಠ': "tha", 'ಡ': "da", 'ಢ': "dha", 'ಣ': "na",
		'ತ': "tha", 'ಥ': "thha", 'ದ': "dha", 'ಧ': "dhha", 'ನ': "na",
		'ಪ': "pa", 'ಫ': "pha", 'ಬ': "ba", 'ಭ': "bha", 'ಮ': "ma",
		'ಯ': "ya", 'ರ': "ra", 'ಲ': "la", 'ವ': "va",
		'ಶ': "sha", 'ಷ': "shha", 'ಸ': "sa", 'ಹ': "ha",
		'ಳ': "la", 'ೞ': "zha", 'ಱ': "rra",
	},
	vowelSigns: map[rune]string{
		'ಾ': "aa", 'ಿ': "i", 'ೀ': "ee", 'ು': "u", 'ೂ': "oo", 'ೃ': "ru",
		'ೆ': "e", 'ೇ': "ae", 'ೈ': "ai", 'ೊ': "o", 'ೋ': "oa", 'ೌ': "au",
	},
	special: map[rune]string{
		'ಂ': "m", 'ಃ': "h", '಼': "",
	},
	virama: '್',
}

func scriptFor(language string) (script, bool) {
	switch language {
	case "hi":
		return devanagari, true
	case "kn":
		return kannada, true
	default:
		return script{}, false
	}
}

// InNativeScript reports whether text contains at least one character of the
// language's native script. ASR output failing this check is assumed to be
// romanized.
func InNativeScript(language, text string) bool {
	var lo, hi rune
	switch language {
	case "hi":
		lo, hi = 0x0900, 0x097F
	case "kn":
		lo, hi = 0x0C80, 0x0CFF
	default:
		return true
	}
	for _, r := range text {
		if r >= lo && r <= hi {
			return true
		}
	}
	return false
}

// Romanize transliterates native-script text into its spoken Roman form for
// phonetic comparison. Unknown languages and characters pass through
// unchanged.
func Romanize(language, text string) string {
	sc, ok := scriptFor(language)
	if !ok {
		return text
	}

	runes := []rune(strings.TrimSpace(text))
	var b strings.Builder
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if v, ok := sc.vowels[r]; ok {
			b.WriteString(v)
			continue
		}
		if c, ok := sc.consonants[r]; ok {
			// Peek at vowel signs and modifiers attached to this consonant.
			if i+1 < len(runes) {
				next := runes[i+1]
				if next == sc.virama {
					b.WriteString(strings.TrimSuffix(c, "a"))
					i++
					continue
				}
				if sign, ok := sc.vowelSigns[next]; ok {
					b.WriteString(strings.TrimSuffix(c, "a") + sign)
					i++
					continue
				}
				if sp, ok := sc.special[next]; ok {
					b.WriteString(c + sp)
					i++
					continue
				}
			}
			b.WriteString(c)
			continue
		}
		if sp, ok := sc.special[r]; ok {
			b.WriteString(sp)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
