//nolint:testpackage // Testing internal normalization requires same package access
package ingest

import "testing"

func TestNormalizeText_CaseAndWhitespace(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "case folded",
			in:   "Breaking NEWS Today",
			want: "breaking news today",
		},
		{
			name: "whitespace collapsed",
			in:   "breaking\t\tnews\n\n  today ",
			want: "breaking news today",
		},
		{
			name: "cyrillic folded",
			in:   "СРОЧНЫЕ Новости",
			want: "срочные новости",
		},
		{
			name: "accented latin folded",
			in:   "GRÈVE à l'École",
			want: "grève à l'école",
		},
		{
			name: "empty",
			in:   "   ",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.in); got != tt.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFingerprint_StableAcrossFormatting(t *testing.T) {
	a := Fingerprint("Breaking News: something happened")
	b := Fingerprint("breaking   news:  SOMETHING happened")

	if a != b {
		t.Errorf("fingerprints differ for texts equal after normalization: %s vs %s", a, b)
	}

	c := Fingerprint("a different text entirely")
	if a == c {
		t.Error("distinct texts produced identical fingerprints")
	}
}

func TestFingerprint_HexLength(t *testing.T) {
	fp := Fingerprint("some text")
	if len(fp) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(fp))
	}
}
