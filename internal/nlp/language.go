package nlp

import "strings"

// Minimum text length for a usable language signal. Shorter inputs fall
// back to the declared language with zero confidence.
const minDetectableLength = 20

// stopwordProfiles holds high-frequency function words per supported
// language. Detection scores text by stopword-hit fraction per profile.
var stopwordProfiles = map[string][]string{
	"en": {
		"the", "a", "an", "is", "are", "was", "were", "be", "been", "being",
		"and", "or", "but", "if", "then", "that", "this", "these", "those",
		"of", "in", "on", "at", "to", "for", "with", "from", "by", "about",
		"it", "its", "he", "she", "they", "we", "you", "i", "not", "no",
		"have", "has", "had", "do", "does", "did", "will", "would", "can",
	},
	"ru": {
		"и", "в", "не", "на", "что", "это", "с", "он", "она", "они",
		"как", "а", "то", "все", "его", "но", "за", "по", "из", "у",
		"же", "от", "так", "о", "для", "мы", "вы", "бы", "был", "была",
		"только", "уже", "или", "если", "когда", "чтобы", "есть", "нет",
	},
	"fr": {
		"le", "la", "les", "un", "une", "des", "de", "du", "et", "ou",
		"est", "sont", "était", "dans", "sur", "pour", "avec", "par",
		"que", "qui", "ne", "pas", "ce", "cette", "ces", "il", "elle",
		"nous", "vous", "ils", "elles", "au", "aux", "se", "son", "sa",
	},
	"de": {
		"der", "die", "das", "ein", "eine", "und", "oder", "ist", "sind",
		"war", "waren", "in", "auf", "für", "mit", "von", "zu", "aus",
		"dass", "nicht", "kein", "er", "sie", "es", "wir", "ihr", "ich",
		"den", "dem", "des", "auch", "aber", "wenn", "nur", "noch", "schon",
	},
	"es": {
		"el", "la", "los", "las", "un", "una", "unos", "unas", "de", "del",
		"y", "o", "es", "son", "era", "eran", "en", "con", "por", "para",
		"que", "no", "se", "su", "sus", "al", "lo", "como", "más", "pero",
		"este", "esta", "estos", "estas", "ya", "muy", "sin", "sobre",
	},
}

var stopwordSets = buildStopwordSets()

func buildStopwordSets() map[string]map[string]bool {
	sets := make(map[string]map[string]bool, len(stopwordProfiles))
	for lang, words := range stopwordProfiles {
		set := make(map[string]bool, len(words))
		for _, w := range words {
			set[w] = true
		}
		sets[lang] = set
	}
	return sets
}

// DetectLanguage scores text against each stopword profile and returns the
// best language with a length-scaled confidence. Returns ("", 0) when the
// text is too short or nothing matches; callers fall back to the declared
// language.
func DetectLanguage(text string) (string, float64) {
	if len(strings.TrimSpace(text)) < minDetectableLength {
		return "", 0
	}

	tokens := tokenize(text)
	if len(tokens) == 0 {
		return "", 0
	}

	bestLang := ""
	bestHits := 0
	for _, lang := range sortedProfileLanguages() {
		set := stopwordSets[lang]
		hits := 0
		for _, tok := range tokens {
			if set[tok] {
				hits++
			}
		}
		if hits > bestHits {
			bestHits = hits
			bestLang = lang
		}
	}

	if bestLang == "" || bestHits == 0 {
		return "", 0
	}

	// Longer texts give a more reliable profile signal
	confidence := 0.5 + float64(len(text))/1000
	if confidence > 0.95 {
		confidence = 0.95
	}

	return bestLang, confidence
}

// sortedProfileLanguages fixes iteration order so ties are deterministic.
func sortedProfileLanguages() []string {
	return []string{"de", "en", "es", "fr", "ru"}
}

// stopwordsFor returns the stopword set for a language, nil if unsupported.
func stopwordsFor(lang string) map[string]bool {
	return stopwordSets[lang]
}

// tokenize splits normalized match text into lowercase word tokens.
func tokenize(text string) []string {
	return strings.Fields(normalizeMatchText(text))
}
