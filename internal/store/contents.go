package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/signalwatch/propagraph/internal/domain"
)

const contentColumns = `id, source_id, external_id, content_type, title, text, fingerprint,
       has_media, url, author, language, ref_external_id, ref_type,
       views, shares, comments, reactions,
       published_at, collected_at, analysis_state, created_at, updated_at`

// InsertContent stores a new content row.
func (p *Postgres) InsertContent(ctx context.Context, c *domain.Content) error {
	query := `
		INSERT INTO content (id, source_id, external_id, content_type, title, text, fingerprint,
		                     has_media, url, author, language, ref_external_id, ref_type,
		                     views, shares, comments, reactions,
		                     published_at, collected_at, analysis_state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING created_at, updated_at
	`

	err := p.db.QueryRowContext(
		ctx,
		query,
		c.ID,
		c.SourceID,
		c.ExternalID,
		c.ContentType,
		c.Title,
		c.Text,
		c.Fingerprint,
		c.HasMedia,
		c.URL,
		c.Author,
		c.Language,
		c.RefExternalID,
		c.RefType,
		c.Views,
		c.Shares,
		c.Comments,
		c.Reactions,
		c.PublishedAt,
		c.CollectedAt,
		c.State,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return wrapStoreErr("insert content", err)
	}

	return nil
}

// GetContent retrieves a content row by id.
func (p *Postgres) GetContent(ctx context.Context, id string) (*domain.Content, error) {
	var c domain.Content
	query := fmt.Sprintf(`SELECT %s FROM content WHERE id = $1`, contentColumns)

	err := p.db.GetContext(ctx, &c, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("content %s: %w", id, domain.ErrNotFound)
		}
		return nil, wrapStoreErr("get content", err)
	}

	return &c, nil
}

// FindByFingerprint returns all content rows sharing a fingerprint, ordered
// by published time.
func (p *Postgres) FindByFingerprint(ctx context.Context, fingerprint string) ([]*domain.Content, error) {
	var rows []*domain.Content
	query := fmt.Sprintf(
		`SELECT %s FROM content WHERE fingerprint = $1 ORDER BY published_at, id`,
		contentColumns,
	)

	if err := p.db.SelectContext(ctx, &rows, query, fingerprint); err != nil {
		return nil, wrapStoreErr("find by fingerprint", err)
	}

	return rows, nil
}

// FindByExternalID returns content rows carrying a collector-assigned
// external id, ordered by published time.
func (p *Postgres) FindByExternalID(ctx context.Context, externalID string) ([]*domain.Content, error) {
	var rows []*domain.Content
	query := fmt.Sprintf(
		`SELECT %s FROM content WHERE external_id = $1 ORDER BY published_at, id`,
		contentColumns,
	)

	if err := p.db.SelectContext(ctx, &rows, query, externalID); err != nil {
		return nil, wrapStoreErr("find by external id", err)
	}

	return rows, nil
}

// ListClaimable returns up to limit pending or stale rows, oldest published
// first. Ordering is deterministic so linking always sees earlier items
// committed before later ones.
func (p *Postgres) ListClaimable(ctx context.Context, limit int) ([]*domain.Content, error) {
	var rows []*domain.Content
	query := fmt.Sprintf(`
		SELECT %s FROM content
		WHERE analysis_state IN ('pending', 'stale')
		ORDER BY published_at, id
		LIMIT $1
	`, contentColumns)

	if err := p.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, wrapStoreErr("list claimable", err)
	}

	return rows, nil
}

// CommitAnalysis transitions a content row from fromState to analyzed and
// writes its Analysis and markers in one transaction. The state transition
// is a compare-and-set: zero rows updated means another worker committed the
// row first and the caller gets domain.ErrClaimLost.
func (p *Postgres) CommitAnalysis(
	ctx context.Context,
	contentID string,
	fromState domain.AnalysisState,
	a *domain.Analysis,
	markers []*domain.CognitiveMarker,
) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapStoreErr("begin commit analysis", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE content
		SET analysis_state = 'analyzed', updated_at = now()
		WHERE id = $1 AND analysis_state = $2
	`, contentID, fromState)
	if err != nil {
		return wrapStoreErr("cas content state", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return wrapStoreErr("cas content state", err)
	}
	if affected == 0 {
		return domain.ErrClaimLost
	}

	// Re-analysis replaces the analysis and its markers wholesale
	if _, err = tx.ExecContext(ctx, `DELETE FROM analyses WHERE content_id = $1`, contentID); err != nil {
		return wrapStoreErr("delete previous analysis", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM cognitive_markers WHERE content_id = $1`, contentID); err != nil {
		return wrapStoreErr("delete previous markers", err)
	}

	entitiesJSON, err := json.Marshal(a.Entities)
	if err != nil {
		return fmt.Errorf("marshal entities: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO analyses (id, content_id, sentiment_score, sentiment_label, sentiment_confidence,
		                      entities, keywords, is_propaganda, propaganda_confidence, techniques,
		                      detected_language, language_confidence, pipeline_version, analyzed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		a.ID,
		a.ContentID,
		a.SentimentScore,
		a.SentimentLabel,
		a.SentimentConfidence,
		entitiesJSON,
		pq.Array(a.Keywords),
		a.IsPropaganda,
		a.PropagandaConfidence,
		pq.Array(a.Techniques),
		a.DetectedLanguage,
		a.LanguageConfidence,
		a.PipelineVersion,
		a.AnalyzedAt,
	)
	if err != nil {
		return wrapStoreErr("insert analysis", err)
	}

	for _, m := range markers {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO cognitive_markers (id, content_id, marker_type, category, confidence,
			                               severity, evidence, span_start, span_end,
			                               detected_at, detector_version)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`,
			m.ID,
			m.ContentID,
			m.MarkerType,
			m.Category,
			m.Confidence,
			m.Severity,
			m.Evidence,
			m.SpanStart,
			m.SpanEnd,
			m.DetectedAt,
			m.DetectorVersion,
		)
		if err != nil {
			return wrapStoreErr("insert marker", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapStoreErr("commit analysis", err)
	}

	return nil
}

// MarkStale flips analyzed rows carrying an older pipeline version to stale
// so the scheduler re-claims them.
func (p *Postgres) MarkStale(ctx context.Context, currentVersion string) (int64, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE content
		SET analysis_state = 'stale', updated_at = now()
		WHERE analysis_state = 'analyzed'
		  AND id IN (SELECT content_id FROM analyses WHERE pipeline_version <> $1)
	`, currentVersion)
	if err != nil {
		return 0, wrapStoreErr("mark stale", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, wrapStoreErr("mark stale", err)
	}

	return affected, nil
}

// ListAnalyzedWindow returns analyzed content published inside the window.
func (p *Postgres) ListAnalyzedWindow(ctx context.Context, start, end time.Time) ([]*domain.Content, error) {
	var rows []*domain.Content
	query := fmt.Sprintf(`
		SELECT %s FROM content
		WHERE analysis_state = 'analyzed'
		  AND published_at >= $1 AND published_at <= $2
		ORDER BY published_at, id
	`, contentColumns)

	if err := p.db.SelectContext(ctx, &rows, query, start, end); err != nil {
		return nil, wrapStoreErr("list analyzed window", err)
	}

	return rows, nil
}
