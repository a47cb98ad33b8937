package store

import (
	"context"
	"time"
)

// SnapshotWindow loads the graph builder's input in two bulk reads: one for
// content joined with source attributes and analysis summaries, one for
// edges targeting the window. No per-edge lookups.
func (p *Postgres) SnapshotWindow(ctx context.Context, start, end time.Time) (*Snapshot, error) {
	var nodes []*NodeRecord
	nodeQuery := `
		SELECT c.id AS content_id, c.source_id, c.content_type, c.language, c.published_at,
		       s.name AS source_name, s.source_type,
		       s.is_doppelganger, s.is_amplifier, s.is_factchecker,
		       a.sentiment_score, a.is_propaganda
		FROM content c
		JOIN sources s ON s.id = c.source_id
		LEFT JOIN analyses a ON a.content_id = c.id
		WHERE c.published_at >= $1 AND c.published_at <= $2
		ORDER BY c.published_at, c.id
	`

	if err := p.db.SelectContext(ctx, &nodes, nodeQuery, start, end); err != nil {
		return nil, wrapStoreErr("snapshot nodes", err)
	}

	edges, err := p.ListEdgesWindow(ctx, start, end)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Start: start,
		End:   end,
		Nodes: nodes,
		Edges: edges,
	}, nil
}
