package nlp

import (
	"sort"
	"strings"
)

// minKeywordLength filters out short noise tokens.
const minKeywordLength = 3

// entityWeight counts entity terms double in keyword ranking.
const entityWeight = 2

// ExtractKeywords returns the topN most frequent non-stopword tokens.
// Terms that appear inside extracted entities are double-weighted. Ties are
// broken alphabetically so output is deterministic.
func ExtractKeywords(text, lang string, entities map[string][]string, topN int) []string {
	if topN <= 0 {
		return nil
	}

	stopwords := stopwordsFor(lang)

	entityTerms := make(map[string]bool)
	for _, list := range entities {
		for _, entity := range list {
			for _, tok := range tokenize(entity) {
				entityTerms[tok] = true
			}
		}
	}

	counts := make(map[string]int)
	for _, tok := range tokenize(text) {
		if len([]rune(tok)) < minKeywordLength {
			continue
		}
		if stopwords != nil && stopwords[tok] {
			continue
		}
		weight := 1
		if entityTerms[tok] {
			weight = entityWeight
		}
		counts[tok] += weight
	}

	if len(counts) == 0 {
		return nil
	}

	type scored struct {
		term  string
		count int
	}
	ranked := make([]scored, 0, len(counts))
	for term, count := range counts {
		ranked = append(ranked, scored{term: term, count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return strings.Compare(ranked[i].term, ranked[j].term) < 0
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	out := make([]string, len(ranked))
	for i, s := range ranked {
		out[i] = s.term
	}
	return out
}
