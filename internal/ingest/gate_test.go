//nolint:testpackage // Testing internal gate requires same package access
package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/signalwatch/propagraph/internal/domain"
	"github.com/signalwatch/propagraph/internal/logging"
	"github.com/signalwatch/propagraph/internal/store"
)

func testCandidate(sourceID, text string) Candidate {
	return Candidate{
		SourceID:    sourceID,
		ContentType: domain.ContentTypePost,
		Text:        text,
		PublishedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestGate_Ingest_NewContent(t *testing.T) {
	gate := NewGate(store.NewMemory(), logging.Nop())

	result, err := gate.Ingest(context.Background(), testCandidate("src-1", "some fresh content"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Duplicate {
		t.Error("fresh content reported as duplicate")
	}
	if result.Content.ID == "" {
		t.Error("stored content has no id")
	}
	if result.Content.State != domain.StatePending {
		t.Errorf("expected state pending, got %s", result.Content.State)
	}
	if result.Content.Fingerprint == "" {
		t.Error("stored content has no fingerprint")
	}
}

func TestGate_Ingest_SameSourceDuplicateIsIdempotent(t *testing.T) {
	mem := store.NewMemory()
	gate := NewGate(mem, logging.Nop())
	ctx := context.Background()

	first, err := gate.Ingest(ctx, testCandidate("src-1", "repeated message"))
	if err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}

	// Same text, different surface formatting
	second, err := gate.Ingest(ctx, testCandidate("src-1", "Repeated   MESSAGE"))
	if err != nil {
		t.Fatalf("second ingest failed: %v", err)
	}

	if !second.Duplicate {
		t.Error("same-source fingerprint hit not reported as duplicate")
	}
	if second.Content.ID != first.Content.ID {
		t.Errorf("duplicate returned a different row: %s vs %s", second.Content.ID, first.Content.ID)
	}

	rows, err := mem.FindByFingerprint(ctx, first.Content.Fingerprint)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected exactly 1 stored row, got %d", len(rows))
	}
}

func TestGate_Ingest_CrossSourceHitStoredAsSimilar(t *testing.T) {
	mem := store.NewMemory()
	gate := NewGate(mem, logging.Nop())
	ctx := context.Background()

	first, err := gate.Ingest(ctx, testCandidate("src-1", "identical propaganda text"))
	if err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}

	second, err := gate.Ingest(ctx, testCandidate("src-2", "identical propaganda text"))
	if err != nil {
		t.Fatalf("second ingest failed: %v", err)
	}

	if second.Duplicate {
		t.Error("cross-source hit wrongly rejected as duplicate")
	}
	if second.Content.ID == first.Content.ID {
		t.Error("cross-source hit did not create a new row")
	}
	if len(second.SimilarTo) != 1 || second.SimilarTo[0] != first.Content.ID {
		t.Errorf("expected similar_to [%s], got %v", first.Content.ID, second.SimilarTo)
	}
}

func TestGate_Ingest_EmptyTextRejected(t *testing.T) {
	gate := NewGate(store.NewMemory(), logging.Nop())

	tests := []string{"", "   ", "\t\n"}
	for _, text := range tests {
		_, err := gate.Ingest(context.Background(), testCandidate("src-1", text))
		if err == nil {
			t.Errorf("empty text %q accepted", text)
			continue
		}
		if !domain.IsValidation(err) {
			t.Errorf("expected validation error for %q, got %v", text, err)
		}
	}
}

func TestGate_Ingest_MissingSourceRejected(t *testing.T) {
	gate := NewGate(store.NewMemory(), logging.Nop())

	_, err := gate.Ingest(context.Background(), testCandidate("", "some text"))
	if !domain.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}
