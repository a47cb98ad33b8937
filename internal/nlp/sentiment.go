package nlp

import "github.com/signalwatch/propagraph/internal/domain"

// defaultNeutralBand applies when no band is configured: scores inside
// (-0.1, 0.1) are neutral.
const defaultNeutralBand = 0.1

// sentimentLexicons holds polarity word lists per language.
var sentimentLexicons = map[string]struct {
	positive []string
	negative []string
}{
	"en": {
		positive: []string{
			"good", "great", "excellent", "positive", "success", "successful",
			"win", "victory", "peace", "hope", "safe", "strong", "support",
			"truth", "honest", "trusted", "progress", "improve", "benefit",
		},
		negative: []string{
			"bad", "terrible", "horrible", "negative", "failure", "fail",
			"lose", "defeat", "war", "fear", "danger", "dangerous", "weak",
			"threat", "lie", "lies", "corrupt", "crisis", "collapse", "attack",
			"enemy", "destroy", "hate", "disaster", "panic",
		},
	},
	"ru": {
		positive: []string{
			"хорошо", "отлично", "успех", "победа", "мир", "надежда",
			"безопасно", "сильный", "поддержка", "правда", "честный",
		},
		negative: []string{
			"плохо", "ужасно", "провал", "поражение", "война", "страх",
			"опасность", "угроза", "ложь", "кризис", "враг", "атака",
			"паника", "катастрофа", "предательство",
		},
	},
}

// ScoreSentiment computes a smoothed lexicon sentiment for text in lang.
// The score is bounded to [-1,1]; confidence grows with evidence volume and
// is capped below certainty. Unsupported languages fall back to the English
// lexicon, which keeps the step best-effort rather than failing. Scores
// inside (-neutralBand, neutralBand) are labeled neutral; zero or negative
// bands fall back to the default.
func ScoreSentiment(text, lang string, neutralBand float64) (score, confidence float64, label domain.SentimentLabel) {
	if neutralBand <= 0 {
		neutralBand = defaultNeutralBand
	}
	lexicon, ok := sentimentLexicons[lang]
	if !ok {
		lexicon = sentimentLexicons["en"]
	}

	posSet := make(map[string]bool, len(lexicon.positive))
	for _, w := range lexicon.positive {
		posSet[w] = true
	}
	negSet := make(map[string]bool, len(lexicon.negative))
	for _, w := range lexicon.negative {
		negSet[w] = true
	}

	var pos, neg int
	for _, tok := range tokenize(text) {
		switch {
		case posSet[tok]:
			pos++
		case negSet[tok]:
			neg++
		}
	}

	total := pos + neg
	// +5 smoothing keeps short texts away from the extremes
	score = float64(pos-neg) / float64(total+5)
	if score > 1 {
		score = 1
	}
	if score < -1 {
		score = -1
	}

	confidence = 0.5 + float64(total)*0.05
	if confidence > 0.9 {
		confidence = 0.9
	}
	if total == 0 {
		confidence = 0.5
	}

	switch {
	case score < -neutralBand:
		label = domain.SentimentNegative
	case score > neutralBand:
		label = domain.SentimentPositive
	default:
		label = domain.SentimentNeutral
	}

	return score, confidence, label
}
