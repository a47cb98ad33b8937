package store

import (
	"context"
	"time"

	"github.com/signalwatch/propagraph/internal/domain"
)

const edgeColumns = `id, source_content_id, target_content_id, edge_type, similarity,
       mutation_detected, mutation_description, time_delta_seconds, created_at`

// InsertEdge stores a propagation edge. A unique-violation on the ordered
// pair surfaces as domain.ErrDuplicateEdge so the linker can no-op.
func (p *Postgres) InsertEdge(ctx context.Context, e *domain.PropagationEdge) error {
	query := `
		INSERT INTO propagation_edges (id, source_content_id, target_content_id, edge_type,
		                               similarity, mutation_detected, mutation_description,
		                               time_delta_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := p.db.QueryRowContext(
		ctx,
		query,
		e.ID,
		e.SourceContentID,
		e.TargetContentID,
		e.Type,
		e.Similarity,
		e.MutationDetected,
		e.MutationDescription,
		e.TimeDeltaSeconds,
	).Scan(&e.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEdge
		}
		return wrapStoreErr("insert edge", err)
	}

	return nil
}

// ListEdgesWindow returns edges whose target content was published inside
// the window.
func (p *Postgres) ListEdgesWindow(ctx context.Context, start, end time.Time) ([]*domain.PropagationEdge, error) {
	var edges []*domain.PropagationEdge
	query := `
		SELECT e.id, e.source_content_id, e.target_content_id, e.edge_type, e.similarity,
		       e.mutation_detected, e.mutation_description, e.time_delta_seconds, e.created_at
		FROM propagation_edges e
		JOIN content t ON t.id = e.target_content_id
		WHERE t.published_at >= $1 AND t.published_at <= $2
		ORDER BY e.created_at, e.id
	`

	if err := p.db.SelectContext(ctx, &edges, query, start, end); err != nil {
		return nil, wrapStoreErr("list edges window", err)
	}

	return edges, nil
}
