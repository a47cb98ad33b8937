package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/signalwatch/propagraph/internal/domain"
)

const sourceColumns = `id, name, source_type, platform, url, language,
       is_doppelganger, is_amplifier, is_factchecker, is_active,
       first_seen_at, last_collected_at, created_at, updated_at`

// UpsertSource inserts or updates a source by id.
func (p *Postgres) UpsertSource(ctx context.Context, src *domain.Source) error {
	query := `
		INSERT INTO sources (id, name, source_type, platform, url, language,
		                     is_doppelganger, is_amplifier, is_factchecker, is_active,
		                     first_seen_at, last_collected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			source_type = EXCLUDED.source_type,
			platform = EXCLUDED.platform,
			url = EXCLUDED.url,
			language = EXCLUDED.language,
			is_doppelganger = EXCLUDED.is_doppelganger,
			is_amplifier = EXCLUDED.is_amplifier,
			is_factchecker = EXCLUDED.is_factchecker,
			is_active = EXCLUDED.is_active,
			last_collected_at = EXCLUDED.last_collected_at,
			updated_at = now()
		RETURNING created_at, updated_at
	`

	err := p.db.QueryRowContext(
		ctx,
		query,
		src.ID,
		src.Name,
		src.Type,
		src.Platform,
		src.URL,
		src.Language,
		src.IsDoppelganger,
		src.IsAmplifier,
		src.IsFactchecker,
		src.IsActive,
		src.FirstSeenAt,
		src.LastCollectedAt,
	).Scan(&src.CreatedAt, &src.UpdatedAt)
	if err != nil {
		return wrapStoreErr("upsert source", err)
	}

	return nil
}

// GetSource retrieves a source by its id.
func (p *Postgres) GetSource(ctx context.Context, id string) (*domain.Source, error) {
	var src domain.Source
	query := fmt.Sprintf(`SELECT %s FROM sources WHERE id = $1`, sourceColumns)

	err := p.db.GetContext(ctx, &src, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("source %s: %w", id, domain.ErrNotFound)
		}
		return nil, wrapStoreErr("get source", err)
	}

	return &src, nil
}

// ListSources returns all sources ordered by id.
func (p *Postgres) ListSources(ctx context.Context) ([]*domain.Source, error) {
	var sources []*domain.Source
	query := fmt.Sprintf(`SELECT %s FROM sources ORDER BY id`, sourceColumns)

	if err := p.db.SelectContext(ctx, &sources, query); err != nil {
		return nil, wrapStoreErr("list sources", err)
	}

	return sources, nil
}
