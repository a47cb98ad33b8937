package nlp

import (
	"context"
	"strings"

	"github.com/signalwatch/propagraph/internal/domain"
	"github.com/signalwatch/propagraph/internal/logging"
)

// Propaganda flag thresholds: two independent marker hits make the flag,
// each adds confidence.
const (
	propagandaMinMarkers          = 2
	propagandaConfidencePerMarker = 0.2
	propagandaConfidenceCap       = 0.95
)

// Result is the enrichment output for one text.
type Result struct {
	DetectedLanguage   string
	LanguageConfidence float64

	SentimentScore      float64
	SentimentLabel      domain.SentimentLabel
	SentimentConfidence float64

	Entities map[string][]string
	Keywords []string

	IsPropaganda         bool
	PropagandaConfidence float64
	Techniques           []string
}

// Config holds the pipeline tunables.
type Config struct {
	// KeywordTopN caps the keywords extracted per item.
	KeywordTopN int
	// SentimentNeutralBand: scores inside (-band, band) are labeled neutral.
	SentimentNeutralBand float64
	// Version stamps Analysis rows; bumping it makes existing rows stale.
	Version string
}

// Pipeline runs the enrichment steps over a text. It is pure with respect
// to the store: results are returned, never persisted here. Each step is
// independently failable; a failed step leaves its fields zero and the
// pipeline continues.
type Pipeline struct {
	models      *ModelCache
	extractor   EntityExtractor
	topN        int
	neutralBand float64
	version     string
	logger      logging.Logger
}

// NewPipeline assembles the enrichment pipeline.
func NewPipeline(models *ModelCache, extractor EntityExtractor, cfg Config, logger logging.Logger) *Pipeline {
	if extractor == nil {
		extractor = HeuristicExtractor{}
	}
	return &Pipeline{
		models:      models,
		extractor:   extractor,
		topN:        cfg.KeywordTopN,
		neutralBand: cfg.SentimentNeutralBand,
		version:     cfg.Version,
		logger:      logger,
	}
}

// Version returns the pipeline version stamped onto Analysis rows.
func (p *Pipeline) Version() string {
	return p.version
}

// Analyze enriches one text. declaredLang is the collector-reported
// language, used when detection has no signal.
func (p *Pipeline) Analyze(ctx context.Context, text, declaredLang string) (*Result, []MarkerHit, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil, domain.NewValidationError("text", "empty or whitespace-only")
	}

	result := &Result{}

	// Step 1: language. Below-threshold detection falls back to the
	// declared language with zero confidence.
	detected, langConf := DetectLanguage(text)
	if detected == "" {
		detected = declaredLang
		langConf = 0
	}
	result.DetectedLanguage = detected
	result.LanguageConfidence = langConf

	// Step 2: sentiment, bounded to [-1,1]
	result.SentimentScore, result.SentimentConfidence, result.SentimentLabel =
		ScoreSentiment(text, detected, p.neutralBand)

	// Step 3: entities
	result.Entities = p.extractor.Extract(text)

	// Step 4: keywords, entity terms double-weighted
	result.Keywords = ExtractKeywords(text, detected, result.Entities, p.topN)

	// Step 5: manipulation markers. An unavailable language model leaves the
	// marker fields empty and logs a warning; never fatal.
	var hits []MarkerHit
	model, err := p.models.Get(ctx, detected)
	switch {
	case err == nil:
		hits = model.Markers.Detect(text)
	case domain.IsModelUnavailable(err):
		p.logger.Warn("Marker detection unavailable",
			logging.String("language", detected),
			logging.Error(err),
		)
	default:
		return nil, nil, err
	}

	if len(hits) >= propagandaMinMarkers {
		result.IsPropaganda = true
	}
	confidence := float64(len(hits)) * propagandaConfidencePerMarker
	if confidence > propagandaConfidenceCap {
		confidence = propagandaConfidenceCap
	}
	result.PropagandaConfidence = confidence
	result.Techniques = uniqueTechniques(hits)

	return result, hits, nil
}

func uniqueTechniques(hits []MarkerHit) []string {
	if len(hits) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(hits))
	var out []string
	for _, h := range hits {
		if !seen[h.Type] {
			seen[h.Type] = true
			out = append(out, h.Type)
		}
	}
	return out
}
