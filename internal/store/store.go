// Package store provides persistence for sources, content, propagation
// edges, analyses, markers, and run summaries.
package store

import (
	"context"
	"time"

	"github.com/signalwatch/propagraph/internal/domain"
)

// SourceStore persists publisher records.
type SourceStore interface {
	// UpsertSource inserts or updates a source by id.
	UpsertSource(ctx context.Context, src *domain.Source) error
	// GetSource returns a source by id, domain.ErrNotFound on miss.
	GetSource(ctx context.Context, id string) (*domain.Source, error)
	// ListSources returns all sources ordered by id.
	ListSources(ctx context.Context) ([]*domain.Source, error)
}

// ContentStore persists content items and drives analysis scheduling.
type ContentStore interface {
	// InsertContent stores a new content row.
	InsertContent(ctx context.Context, c *domain.Content) error
	// GetContent returns a content row by id, domain.ErrNotFound on miss.
	GetContent(ctx context.Context, id string) (*domain.Content, error)
	// FindByFingerprint returns all content rows sharing a fingerprint.
	FindByFingerprint(ctx context.Context, fingerprint string) ([]*domain.Content, error)
	// FindByExternalID returns content rows carrying a collector-assigned
	// external id, used to resolve structural forward/quote references.
	FindByExternalID(ctx context.Context, externalID string) ([]*domain.Content, error)
	// ListClaimable returns up to limit rows in a claimable state, ordered
	// published_at ascending then id ascending.
	ListClaimable(ctx context.Context, limit int) ([]*domain.Content, error)
	// CommitAnalysis atomically transitions a content row from fromState to
	// analyzed and writes its Analysis plus markers in one transaction.
	// Returns domain.ErrClaimLost when the row's state changed since the
	// claim; the caller skips the row.
	CommitAnalysis(ctx context.Context, contentID string, fromState domain.AnalysisState, a *domain.Analysis, markers []*domain.CognitiveMarker) error
	// MarkStale flips analyzed rows whose Analysis carries a pipeline version
	// other than current to stale. Returns the number of rows flipped.
	MarkStale(ctx context.Context, currentVersion string) (int64, error)
	// ListAnalyzedWindow returns analyzed content published inside the
	// window, ordered published_at ascending then id ascending.
	ListAnalyzedWindow(ctx context.Context, start, end time.Time) ([]*domain.Content, error)
}

// EdgeStore persists propagation edges.
type EdgeStore interface {
	// InsertEdge stores an edge. Returns domain.ErrDuplicateEdge when the
	// ordered pair already exists; callers treat that as a no-op.
	InsertEdge(ctx context.Context, e *domain.PropagationEdge) error
	// ListEdgesWindow returns edges whose target content was published
	// inside the window.
	ListEdgesWindow(ctx context.Context, start, end time.Time) ([]*domain.PropagationEdge, error)
}

// AnalysisStore reads back enrichment results.
type AnalysisStore interface {
	// GetAnalysis returns the analysis for a content id, domain.ErrNotFound
	// on miss.
	GetAnalysis(ctx context.Context, contentID string) (*domain.Analysis, error)
	// ListMarkers returns all markers for a content id.
	ListMarkers(ctx context.Context, contentID string) ([]*domain.CognitiveMarker, error)
}

// RunStore persists run audit records.
type RunStore interface {
	CreateRun(ctx context.Context, run *domain.RunSummary) error
	FinishRun(ctx context.Context, run *domain.RunSummary) error
	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]*domain.RunSummary, error)
}

// SnapshotStore serves the graph builder's bulk windowed read.
type SnapshotStore interface {
	// SnapshotWindow loads all content published inside the window with
	// joined source attributes and analysis summaries, plus all edges whose
	// target falls in the window. One bulk read per record kind; never
	// per-edge lookups.
	SnapshotWindow(ctx context.Context, start, end time.Time) (*Snapshot, error)
}

// Store is the full persistence surface consumed by the pipeline.
type Store interface {
	SourceStore
	ContentStore
	EdgeStore
	AnalysisStore
	RunStore
	SnapshotStore
}

// NodeRecord is one content row with its joined source attributes and
// analysis summary, as loaded for graph construction.
type NodeRecord struct {
	ContentID   string             `db:"content_id"`
	SourceID    string             `db:"source_id"`
	ContentType domain.ContentType `db:"content_type"`
	Language    string             `db:"language"`
	PublishedAt time.Time          `db:"published_at"`

	SourceName     string            `db:"source_name"`
	SourceType     domain.SourceType `db:"source_type"`
	IsDoppelganger bool              `db:"is_doppelganger"`
	IsAmplifier    bool              `db:"is_amplifier"`
	IsFactchecker  bool              `db:"is_factchecker"`

	// Analysis summary; nil when the row is not analyzed.
	SentimentScore *float64 `db:"sentiment_score"`
	IsPropaganda   *bool    `db:"is_propaganda"`
}

// Snapshot is the windowed graph input: nodes with attributes and the edges
// targeting the window.
type Snapshot struct {
	Start time.Time
	End   time.Time
	Nodes []*NodeRecord
	Edges []*domain.PropagationEdge
}
