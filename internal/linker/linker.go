// Package linker discovers and records directed propagation edges between
// content items: structural forwards/quotes reported by collectors, and
// text-similarity links found by scanning a bounded lookback window.
package linker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/signalwatch/propagraph/internal/domain"
	"github.com/signalwatch/propagraph/internal/logging"
	"github.com/signalwatch/propagraph/internal/store"
	"github.com/signalwatch/propagraph/internal/telemetry"
)

// Config holds the linker thresholds.
type Config struct {
	// MinSimilarity is the floor for creating "similar" edges.
	MinSimilarity float64
	// MutationThreshold: similar edges scoring below it are flagged as
	// mutated copies.
	MutationThreshold float64
	// Lookback bounds how far back the similarity scan reaches.
	Lookback time.Duration
}

// StructuralRef is a collector-reported forward/quote reference.
type StructuralRef struct {
	// ExternalID names the referenced item in collector terms.
	ExternalID string
	Type       domain.EdgeType
}

// Store is the persistence surface the linker needs.
type Store interface {
	store.ContentStore
	store.EdgeStore
}

// Linker creates propagation edges.
type Linker struct {
	store     Store
	cfg       Config
	telemetry *telemetry.Provider
	logger    logging.Logger
}

// New creates a linker.
func New(st Store, cfg Config, tp *telemetry.Provider, logger logging.Logger) *Linker {
	return &Linker{store: st, cfg: cfg, telemetry: tp, logger: logger}
}

// LinkContent finds edges for one item: its structural reference, if any,
// then similarity links against earlier analyzed content inside the
// lookback window. Returns the number of edges created.
func (l *Linker) LinkContent(ctx context.Context, c *domain.Content, ref *StructuralRef) (int, error) {
	created := 0

	if ref != nil && ref.ExternalID != "" {
		n, err := l.linkStructural(ctx, c, ref)
		if err != nil {
			return created, err
		}
		created += n
	}

	windowStart := c.PublishedAt.Add(-l.cfg.Lookback)
	candidates, err := l.store.ListAnalyzedWindow(ctx, windowStart, c.PublishedAt)
	if err != nil {
		return created, err
	}

	for _, cand := range candidates {
		if cand.ID == c.ID {
			continue
		}

		var score float64
		if cand.Fingerprint == c.Fingerprint {
			score = 1.0
		} else {
			score = Similarity(cand.Text, c.Text)
		}
		if score < l.cfg.MinSimilarity {
			continue
		}

		ok, err := l.createEdge(ctx, cand, c, domain.EdgeTypeSimilar, score)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}

	return created, nil
}

// LinkSimilarCandidate records a dedup-gate match: two items with identical
// fingerprints across sources, similarity 1.0. Reports whether an edge was
// actually created.
func (l *Linker) LinkSimilarCandidate(ctx context.Context, existingID, newID string) (bool, error) {
	existing, err := l.store.GetContent(ctx, existingID)
	if err != nil {
		return false, err
	}
	newer, err := l.store.GetContent(ctx, newID)
	if err != nil {
		return false, err
	}

	return l.createEdge(ctx, existing, newer, domain.EdgeTypeSimilar, 1.0)
}

// Backfill links every analyzed item in the window against its earlier
// neighbors, oldest first. Idempotent: existing pairs are no-ops. Returns
// the number of edges created.
func (l *Linker) Backfill(ctx context.Context, start, end time.Time) (int, error) {
	items, err := l.store.ListAnalyzedWindow(ctx, start, end)
	if err != nil {
		return 0, err
	}

	created := 0
	for i, target := range items {
		select {
		case <-ctx.Done():
			return created, ctx.Err()
		default:
		}

		for _, source := range items[:i] {
			var score float64
			if source.Fingerprint == target.Fingerprint {
				score = 1.0
			} else {
				score = Similarity(source.Text, target.Text)
			}
			if score < l.cfg.MinSimilarity {
				continue
			}

			ok, err := l.createEdge(ctx, source, target, domain.EdgeTypeSimilar, score)
			if err != nil {
				return created, err
			}
			if ok {
				created++
			}
		}
	}

	return created, nil
}

func (l *Linker) linkStructural(ctx context.Context, c *domain.Content, ref *StructuralRef) (int, error) {
	refs, err := l.store.FindByExternalID(ctx, ref.ExternalID)
	if err != nil {
		return 0, err
	}
	if len(refs) == 0 {
		l.logger.Debug("Structural reference unresolved",
			logging.String("content_id", c.ID),
			logging.String("ref_external_id", ref.ExternalID),
		)
		return 0, nil
	}

	edgeType := ref.Type
	if edgeType == "" {
		edgeType = domain.EdgeTypeForward
	}

	created := 0
	for _, referenced := range refs {
		ok, err := l.createEdge(ctx, referenced, c, edgeType, 1.0)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// createEdge writes one edge honoring the invariants: no self-loops, the
// earlier-published item is the source (ties: lexicographically smaller id),
// and an existing ordered pair is a silent no-op. Returns whether an edge
// was actually created.
func (l *Linker) createEdge(ctx context.Context, a, b *domain.Content, edgeType domain.EdgeType, score float64) (bool, error) {
	if a.ID == b.ID {
		return false, nil
	}

	source, target := a, b
	if b.PublishedAt.Before(a.PublishedAt) {
		source, target = b, a
	} else if a.PublishedAt.Equal(b.PublishedAt) && b.ID < a.ID {
		source, target = b, a
	}

	edge := &domain.PropagationEdge{
		ID:               uuid.NewString(),
		SourceContentID:  source.ID,
		TargetContentID:  target.ID,
		Type:             edgeType,
		Similarity:       score,
		TimeDeltaSeconds: int64(target.PublishedAt.Sub(source.PublishedAt).Seconds()),
	}

	if edgeType == domain.EdgeTypeSimilar && score < l.cfg.MutationThreshold {
		edge.MutationDetected = true
		edge.MutationDescription = fmt.Sprintf(
			"text drift: similarity %.2f, length %d -> %d",
			score, len(source.Text), len(target.Text),
		)
	}

	err := l.store.InsertEdge(ctx, edge)
	if errors.Is(err, domain.ErrDuplicateEdge) {
		if l.telemetry != nil {
			l.telemetry.RecordDuplicateEdge()
		}
		return false, nil
	}
	if err != nil {
		return false, err
	}

	l.logger.Debug("Propagation edge created",
		logging.String("source", source.ID),
		logging.String("target", target.ID),
		logging.String("type", string(edgeType)),
		logging.Float64("similarity", score),
	)

	return true, nil
}
