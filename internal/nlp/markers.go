// Package nlp implements the best-effort enrichment sub-pipeline: language
// detection, sentiment, entities, keywords, and manipulation-marker
// detection. markers.go implements an Aho-Corasick marker engine for O(n+m)
// keyword matching across the full corpus.
package nlp

import (
	"strings"
	"unicode"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"github.com/signalwatch/propagraph/internal/domain"
)

// markerConfidence is assigned to every keyword-triggered marker hit.
// Keyword evidence alone never reaches certainty.
const markerConfidence = 0.7

// MarkerHit is one detected manipulation marker occurrence with its
// evidence span in the normalized text.
type MarkerHit struct {
	Type       string
	Category   string
	Severity   domain.MarkerSeverity
	Confidence float64
	Evidence   string
	SpanStart  int
	SpanEnd    int
}

// MarkerEngine matches one language's marker keywords in a single pass.
// Immutable once built; lookups need no locking.
type MarkerEngine struct {
	matcher  *ahocorasick.Matcher
	keywords []string
	kwToRule map[string][]*MarkerRule
}

// NewMarkerEngine builds the automaton for one language from the corpus.
func NewMarkerEngine(corpus *Corpus, lang string) *MarkerEngine {
	rules := corpus.RulesForLanguage(lang)

	engine := &MarkerEngine{
		kwToRule: make(map[string][]*MarkerRule),
	}

	for i := range rules {
		rule := &rules[i]
		for _, kw := range rule.Keywords[lang] {
			normalized := normalizeKeyword(kw)
			if normalized == "" {
				continue
			}
			if _, seen := engine.kwToRule[normalized]; !seen {
				engine.keywords = append(engine.keywords, normalized)
			}
			engine.kwToRule[normalized] = append(engine.kwToRule[normalized], rule)
		}
	}

	if len(engine.keywords) > 0 {
		engine.matcher = ahocorasick.NewStringMatcher(engine.keywords)
	}

	return engine
}

// Detect finds all marker hits in text in a single automaton pass. Each
// (rule, keyword) pair yields at most one hit, anchored at the keyword's
// first occurrence.
func (e *MarkerEngine) Detect(text string) []MarkerHit {
	if e == nil || e.matcher == nil {
		return nil
	}

	normalized := normalizeMatchText(text)
	hits := e.matcher.Match([]byte(normalized))

	var out []MarkerHit
	seen := make(map[string]bool)

	for _, hitIndex := range hits {
		if hitIndex >= len(e.keywords) {
			continue
		}
		keyword := e.keywords[hitIndex]
		start := strings.Index(normalized, keyword)
		if start < 0 {
			continue
		}

		for _, rule := range e.kwToRule[keyword] {
			dedupeKey := rule.Type + "|" + keyword
			if seen[dedupeKey] {
				continue
			}
			seen[dedupeKey] = true

			out = append(out, MarkerHit{
				Type:       rule.Type,
				Category:   rule.Category,
				Severity:   rule.Severity,
				Confidence: markerConfidence,
				Evidence:   keyword,
				SpanStart:  start,
				SpanEnd:    start + len(keyword),
			})
		}
	}

	return out
}

// KeywordCount returns the number of distinct keywords in the automaton.
func (e *MarkerEngine) KeywordCount() int {
	if e == nil {
		return 0
	}
	return len(e.keywords)
}

func normalizeKeyword(kw string) string {
	return strings.ToLower(strings.TrimSpace(kw))
}

// normalizeMatchText lowercases and replaces non-alphanumerics with spaces,
// preserving byte offsets is not required here since spans are reported
// against this normalized form.
func normalizeMatchText(text string) string {
	text = strings.ToLower(text)

	var result strings.Builder
	result.Grow(len(text))

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
		} else {
			result.WriteByte(' ')
		}
	}

	return result.String()
}
