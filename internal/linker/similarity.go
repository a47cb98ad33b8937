package linker

import (
	"strings"

	"github.com/signalwatch/propagraph/internal/ingest"
)

// shingleSize is the word-shingle width used for Jaccard similarity.
const shingleSize = 2

// Similarity scores two texts in [0,1] as the Jaccard overlap of their
// normalized word shingles. Byte-identical normalized texts score 1.0.
func Similarity(a, b string) float64 {
	na := ingest.NormalizeText(a)
	nb := ingest.NormalizeText(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	sa := shingles(na)
	sb := shingles(nb)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}

	intersection := 0
	for sh := range sa {
		if sb[sh] {
			intersection++
		}
	}
	union := len(sa) + len(sb) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}

func shingles(normalized string) map[string]bool {
	words := strings.Fields(normalized)
	out := make(map[string]bool)

	if len(words) < shingleSize {
		if len(words) > 0 {
			out[strings.Join(words, " ")] = true
		}
		return out
	}

	for i := 0; i+shingleSize <= len(words); i++ {
		out[strings.Join(words[i:i+shingleSize], " ")] = true
	}
	return out
}
