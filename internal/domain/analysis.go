package domain

import "time"

// SentimentLabel buckets a sentiment score.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// Analysis holds the enrichment result for one content item. Exactly one per
// content; replaced wholesale on re-analysis.
type Analysis struct {
	ID        string `json:"id" db:"id"`
	ContentID string `json:"content_id" db:"content_id"`

	// SentimentScore is in [-1,1].
	SentimentScore      float64        `json:"sentiment_score" db:"sentiment_score"`
	SentimentLabel      SentimentLabel `json:"sentiment_label" db:"sentiment_label"`
	SentimentConfidence float64        `json:"sentiment_confidence" db:"sentiment_confidence"`

	// Entities maps category (person, org, location, ...) to surface forms.
	Entities map[string][]string `json:"entities,omitempty" db:"-"`
	Keywords []string            `json:"keywords,omitempty" db:"-"`

	IsPropaganda         bool     `json:"is_propaganda" db:"is_propaganda"`
	PropagandaConfidence float64  `json:"propaganda_confidence" db:"propaganda_confidence"`
	Techniques           []string `json:"techniques,omitempty" db:"-"`

	DetectedLanguage   string  `json:"detected_language,omitempty" db:"detected_language"`
	LanguageConfidence float64 `json:"language_confidence" db:"language_confidence"`

	PipelineVersion string    `json:"pipeline_version" db:"pipeline_version"`
	AnalyzedAt      time.Time `json:"analyzed_at" db:"analyzed_at"`
}

// MarkerSeverity grades how serious a cognitive marker is.
type MarkerSeverity string

const (
	SeverityLow      MarkerSeverity = "low"
	SeverityMedium   MarkerSeverity = "medium"
	SeverityHigh     MarkerSeverity = "high"
	SeverityCritical MarkerSeverity = "critical"
)

// CognitiveMarker records one detected manipulation technique occurrence.
// Append-only; re-analysis replaces the full set for a content item in the
// same transaction as its Analysis.
type CognitiveMarker struct {
	ID         string         `json:"id" db:"id"`
	ContentID  string         `json:"content_id" db:"content_id"`
	MarkerType string         `json:"marker_type" db:"marker_type"`
	Category   string         `json:"category" db:"category"`
	Confidence float64        `json:"confidence" db:"confidence"`
	Severity   MarkerSeverity `json:"severity" db:"severity"`
	// Evidence is the matched text; the span is byte offsets [start,end) in
	// the normalized text.
	Evidence        string    `json:"evidence" db:"evidence"`
	SpanStart       int       `json:"span_start" db:"span_start"`
	SpanEnd         int       `json:"span_end" db:"span_end"`
	DetectedAt      time.Time `json:"detected_at" db:"detected_at"`
	DetectorVersion string    `json:"detector_version" db:"detector_version"`
}
