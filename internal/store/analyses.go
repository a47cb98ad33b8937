package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/signalwatch/propagraph/internal/domain"
)

// GetAnalysis returns the analysis for a content id.
func (p *Postgres) GetAnalysis(ctx context.Context, contentID string) (*domain.Analysis, error) {
	var a domain.Analysis
	var entitiesJSON []byte

	query := `
		SELECT id, content_id, sentiment_score, sentiment_label, sentiment_confidence,
		       entities, keywords, is_propaganda, propaganda_confidence, techniques,
		       detected_language, language_confidence, pipeline_version, analyzed_at
		FROM analyses
		WHERE content_id = $1
	`

	err := p.db.QueryRowContext(ctx, query, contentID).Scan(
		&a.ID,
		&a.ContentID,
		&a.SentimentScore,
		&a.SentimentLabel,
		&a.SentimentConfidence,
		&entitiesJSON,
		pq.Array(&a.Keywords),
		&a.IsPropaganda,
		&a.PropagandaConfidence,
		pq.Array(&a.Techniques),
		&a.DetectedLanguage,
		&a.LanguageConfidence,
		&a.PipelineVersion,
		&a.AnalyzedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("analysis for content %s: %w", contentID, domain.ErrNotFound)
		}
		return nil, wrapStoreErr("get analysis", err)
	}

	if len(entitiesJSON) > 0 {
		if err := json.Unmarshal(entitiesJSON, &a.Entities); err != nil {
			return nil, fmt.Errorf("unmarshal entities: %w", err)
		}
	}

	return &a, nil
}

// ListMarkers returns all markers for a content id, oldest first.
func (p *Postgres) ListMarkers(ctx context.Context, contentID string) ([]*domain.CognitiveMarker, error) {
	var markers []*domain.CognitiveMarker
	query := `
		SELECT id, content_id, marker_type, category, confidence, severity,
		       evidence, span_start, span_end, detected_at, detector_version
		FROM cognitive_markers
		WHERE content_id = $1
		ORDER BY detected_at, id
	`

	if err := p.db.SelectContext(ctx, &markers, query, contentID); err != nil {
		return nil, wrapStoreErr("list markers", err)
	}

	return markers, nil
}
