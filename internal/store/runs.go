package store

import (
	"context"

	"github.com/lib/pq"

	"github.com/signalwatch/propagraph/internal/domain"
)

// CreateRun persists a new run audit record in running state.
func (p *Postgres) CreateRun(ctx context.Context, run *domain.RunSummary) error {
	query := `
		INSERT INTO analysis_runs (id, run_type, started_at, status,
		                           items_processed, items_new, errors_count, error_messages)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := p.db.ExecContext(
		ctx,
		query,
		run.ID,
		run.Type,
		run.StartedAt,
		run.Status,
		run.ItemsProcessed,
		run.ItemsNew,
		run.ErrorsCount,
		pq.Array(run.ErrorMessages),
	)
	if err != nil {
		return wrapStoreErr("create run", err)
	}

	return nil
}

// FinishRun records a run's final status and counts.
func (p *Postgres) FinishRun(ctx context.Context, run *domain.RunSummary) error {
	query := `
		UPDATE analysis_runs
		SET finished_at = $2, status = $3, items_processed = $4, items_new = $5,
		    errors_count = $6, error_messages = $7
		WHERE id = $1
	`

	_, err := p.db.ExecContext(
		ctx,
		query,
		run.ID,
		run.FinishedAt,
		run.Status,
		run.ItemsProcessed,
		run.ItemsNew,
		run.ErrorsCount,
		pq.Array(run.ErrorMessages),
	)
	if err != nil {
		return wrapStoreErr("finish run", err)
	}

	return nil
}

// ListRuns returns the most recent runs, newest first.
func (p *Postgres) ListRuns(ctx context.Context, limit int) ([]*domain.RunSummary, error) {
	query := `
		SELECT id, run_type, started_at, finished_at, status,
		       items_processed, items_new, errors_count, error_messages
		FROM analysis_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := p.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, wrapStoreErr("list runs", err)
	}
	defer rows.Close()

	var runs []*domain.RunSummary
	for rows.Next() {
		var run domain.RunSummary
		if err := rows.Scan(
			&run.ID,
			&run.Type,
			&run.StartedAt,
			&run.FinishedAt,
			&run.Status,
			&run.ItemsProcessed,
			&run.ItemsNew,
			&run.ErrorsCount,
			pq.Array(&run.ErrorMessages),
		); err != nil {
			return nil, wrapStoreErr("scan run", err)
		}
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr("list runs", err)
	}

	return runs, nil
}
