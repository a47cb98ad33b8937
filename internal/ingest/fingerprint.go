package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var foldCaser = cases.Fold()

// NormalizeText canonicalizes text for fingerprinting: Unicode NFKC,
// case-folded, whitespace collapsed to single spaces, trimmed.
func NormalizeText(text string) string {
	normalized := norm.NFKC.String(text)
	folded := foldCaser.String(normalized)

	var b strings.Builder
	b.Grow(len(folded))
	inSpace := false
	for _, r := range folded {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// Fingerprint returns the hex sha256 digest of the normalized text.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(NormalizeText(text)))
	return hex.EncodeToString(sum[:])
}
