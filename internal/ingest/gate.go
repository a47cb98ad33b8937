// Package ingest accepts candidate content from collectors and deduplicates
// it by normalized-text fingerprint before persistence.
package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/signalwatch/propagraph/internal/domain"
	"github.com/signalwatch/propagraph/internal/logging"
	"github.com/signalwatch/propagraph/internal/store"
)

// Candidate is one content record supplied by a collector.
type Candidate struct {
	SourceID    string
	ExternalID  string
	ContentType domain.ContentType
	Title       string
	Text        string
	URL         string
	Author      string
	Language    string
	HasMedia    bool

	Views     int64
	Shares    int64
	Comments  int64
	Reactions int64

	PublishedAt time.Time
	CollectedAt time.Time

	// RefExternalID optionally names the external id of the item this one
	// forwards or quotes, as reported by the platform.
	RefExternalID string
	RefType       domain.EdgeType
}

// Result reports what the gate did with a candidate.
type Result struct {
	// Content is the stored row: freshly inserted, or the existing row when
	// Duplicate is true.
	Content *domain.Content
	// Duplicate means the same source already holds this fingerprint; no new
	// row was written.
	Duplicate bool
	// SimilarTo lists ids of earlier content from other sources sharing the
	// fingerprint. Each is a linker candidate with similarity 1.0.
	SimilarTo []string
}

// Gate deduplicates incoming content by fingerprint.
type Gate struct {
	contents store.ContentStore
	logger   logging.Logger
}

// NewGate creates a deduplication gate.
func NewGate(contents store.ContentStore, logger logging.Logger) *Gate {
	return &Gate{contents: contents, logger: logger}
}

// Ingest validates and stores a candidate.
//
// Same-source fingerprint hits are idempotent: the existing row is returned
// and nothing is written. Cross-source hits are stored as new rows and
// reported as similarity-1.0 linker candidates. Empty or whitespace-only
// text fails with a ValidationError, which never aborts an enclosing batch.
func (g *Gate) Ingest(ctx context.Context, cand Candidate) (*Result, error) {
	if strings.TrimSpace(cand.Text) == "" {
		return nil, domain.NewValidationError("text", "empty or whitespace-only")
	}
	if cand.SourceID == "" {
		return nil, domain.NewValidationError("source_id", "missing")
	}

	fingerprint := Fingerprint(cand.Text)

	existing, err := g.contents.FindByFingerprint(ctx, fingerprint)
	if err != nil {
		return nil, err
	}

	var similarTo []string
	for _, c := range existing {
		if c.SourceID == cand.SourceID {
			g.logger.Debug("Duplicate content rejected",
				logging.String("content_id", c.ID),
				logging.String("source_id", cand.SourceID),
			)
			return &Result{Content: c, Duplicate: true}, nil
		}
		similarTo = append(similarTo, c.ID)
	}

	collectedAt := cand.CollectedAt
	if collectedAt.IsZero() {
		collectedAt = time.Now()
	}

	content := &domain.Content{
		ID:            uuid.NewString(),
		SourceID:      cand.SourceID,
		ExternalID:    cand.ExternalID,
		ContentType:   cand.ContentType,
		Title:         cand.Title,
		Text:          cand.Text,
		Fingerprint:   fingerprint,
		HasMedia:      cand.HasMedia,
		URL:           cand.URL,
		Author:        cand.Author,
		Language:      cand.Language,
		RefExternalID: cand.RefExternalID,
		RefType:       cand.RefType,
		Views:         cand.Views,
		Shares:        cand.Shares,
		Comments:      cand.Comments,
		Reactions:     cand.Reactions,
		PublishedAt:   cand.PublishedAt,
		CollectedAt:   collectedAt,
		State:         domain.StatePending,
	}

	if err := g.contents.InsertContent(ctx, content); err != nil {
		return nil, err
	}

	if len(similarTo) > 0 {
		g.logger.Info("Cross-source republication detected",
			logging.String("content_id", content.ID),
			logging.Int("matches", len(similarTo)),
		)
	}

	return &Result{Content: content, SimilarTo: similarTo}, nil
}
