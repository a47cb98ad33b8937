//nolint:testpackage // Testing internal similarity requires same package access
package linker

import "testing"

func TestSimilarity_Identical(t *testing.T) {
	if got := Similarity("the missile crossed the border", "The missile crossed the border"); got != 1.0 {
		t.Errorf("expected 1.0 for texts equal after normalization, got %f", got)
	}
}

func TestSimilarity_Disjoint(t *testing.T) {
	if got := Similarity("completely unrelated sentence here", "zebra quantum harvest festival"); got != 0 {
		t.Errorf("expected 0 for disjoint texts, got %f", got)
	}
}

func TestSimilarity_PartialOverlap(t *testing.T) {
	got := Similarity(
		"the missile crossed the border at dawn",
		"the missile crossed the border at midnight",
	)

	if got <= 0 || got >= 1 {
		t.Errorf("expected partial similarity in (0,1), got %f", got)
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	a := "troops moved toward the eastern front yesterday"
	b := "yesterday troops moved toward the front"

	if Similarity(a, b) != Similarity(b, a) {
		t.Error("similarity is not symmetric")
	}
}
