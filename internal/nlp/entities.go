package nlp

import (
	"strings"
	"unicode"
)

// EntityExtractor is the pluggable model boundary for entity extraction.
// Implementations return a category -> surface-forms map.
type EntityExtractor interface {
	Extract(text string) map[string][]string
}

// Entity categories produced by the heuristic extractor.
const (
	entityCategoryPerson       = "person"
	entityCategoryOrganization = "organization"
	entityCategoryOther        = "other"
)

// orgSuffixes mark capitalized sequences as organizations.
var orgSuffixes = []string{
	"inc", "corp", "ltd", "llc", "gmbh", "agency", "ministry", "party",
	"committee", "council", "institute", "foundation", "university", "news",
	"channel", "network", "group",
}

// HeuristicExtractor finds capitalized token sequences and buckets them by
// shape. It is the default stand-in where a statistical NER model would be
// plugged in.
type HeuristicExtractor struct{}

var _ EntityExtractor = (*HeuristicExtractor)(nil)

// Extract scans for maximal runs of capitalized tokens, skipping
// sentence-initial single words, and categorizes each run.
func (HeuristicExtractor) Extract(text string) map[string][]string {
	entities := make(map[string][]string)
	seen := make(map[string]bool)

	add := func(category, entity string) {
		key := category + "|" + entity
		if seen[key] {
			return
		}
		seen[key] = true
		entities[category] = append(entities[category], entity)
	}

	for _, sentence := range splitSentences(text) {
		words := strings.Fields(sentence)
		var run []string
		for i, w := range words {
			trimmed := strings.TrimFunc(w, func(r rune) bool {
				return !unicode.IsLetter(r) && !unicode.IsDigit(r)
			})
			if trimmed != "" && isCapitalized(trimmed) {
				// A lone sentence-opening capital is usually just a sentence
				// start, not a name
				if i == 0 && len(run) == 0 && !startsRunAhead(words, i) {
					continue
				}
				run = append(run, trimmed)
				continue
			}
			flushEntityRun(run, add)
			run = nil
		}
		flushEntityRun(run, add)
	}

	if len(entities) == 0 {
		return nil
	}
	return entities
}

func flushEntityRun(run []string, add func(category, entity string)) {
	if len(run) == 0 {
		return
	}
	entity := strings.Join(run, " ")

	last := strings.ToLower(run[len(run)-1])
	for _, suffix := range orgSuffixes {
		if last == suffix {
			add(entityCategoryOrganization, entity)
			return
		}
	}

	if len(run) >= 2 {
		add(entityCategoryPerson, entity)
		return
	}
	add(entityCategoryOther, entity)
}

// startsRunAhead reports whether the next word is also capitalized, which
// makes a sentence-initial capital part of a multi-word name.
func startsRunAhead(words []string, i int) bool {
	if i+1 >= len(words) {
		return false
	}
	next := strings.TrimFunc(words[i+1], func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return next != "" && isCapitalized(next)
}

func isCapitalized(w string) bool {
	runes := []rune(w)
	if len(runes) == 0 {
		return false
	}
	if !unicode.IsUpper(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if unicode.IsUpper(r) {
			return false // all-caps tokens are excluded
		}
	}
	return true
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
}
