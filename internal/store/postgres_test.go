//nolint:testpackage // Testing internal store requires same package access
package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/signalwatch/propagraph/internal/domain"
)

func mockStore(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, setupErr := sqlmock.New()
	if setupErr != nil {
		t.Fatalf("failed to create sqlmock: %v", setupErr)
	}
	t.Cleanup(func() { _ = db.Close() })

	return NewPostgresFromDB(sqlx.NewDb(db, "sqlmock")), mock
}

func TestPostgres_InsertEdge(t *testing.T) {
	p, mock := mockStore(t)
	ctx := context.Background()

	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO propagation_edges").
		WithArgs("e-1", "c-1", "c-2", "similar", 0.87, true,
			"text drift: similarity 0.87, length 120 -> 131", int64(3600)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	edge := &domain.PropagationEdge{
		ID:                  "e-1",
		SourceContentID:     "c-1",
		TargetContentID:     "c-2",
		Type:                domain.EdgeTypeSimilar,
		Similarity:          0.87,
		MutationDetected:    true,
		MutationDescription: "text drift: similarity 0.87, length 120 -> 131",
		TimeDeltaSeconds:    3600,
	}

	if insertErr := p.InsertEdge(ctx, edge); insertErr != nil {
		t.Errorf("InsertEdge() error = %v", insertErr)
	}
	if !edge.CreatedAt.Equal(createdAt) {
		t.Errorf("created_at not scanned back: %v", edge.CreatedAt)
	}

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func TestPostgres_InsertEdge_DuplicatePair(t *testing.T) {
	p, mock := mockStore(t)
	ctx := context.Background()

	mock.ExpectQuery("INSERT INTO propagation_edges").
		WillReturnError(&pq.Error{Code: pqUniqueViolation})

	insertErr := p.InsertEdge(ctx, &domain.PropagationEdge{
		ID:              "e-1",
		SourceContentID: "c-1",
		TargetContentID: "c-2",
		Type:            domain.EdgeTypeSimilar,
	})

	if !errors.Is(insertErr, domain.ErrDuplicateEdge) {
		t.Errorf("expected ErrDuplicateEdge, got %v", insertErr)
	}

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func TestPostgres_CommitAnalysis(t *testing.T) {
	p, mock := mockStore(t)
	ctx := context.Background()

	analyzedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE content").
		WithArgs("c-1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM analyses").
		WithArgs("c-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM cognitive_markers").
		WithArgs("c-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO analyses").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO cognitive_markers").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	analysis := &domain.Analysis{
		ID:              "a-1",
		ContentID:       "c-1",
		SentimentLabel:  domain.SentimentNeutral,
		PipelineVersion: "1.0.0",
		AnalyzedAt:      analyzedAt,
	}
	markers := []*domain.CognitiveMarker{{
		ID:         "m-1",
		ContentID:  "c-1",
		MarkerType: "fear_appeal",
		Category:   "emotional",
		Severity:   domain.SeverityHigh,
		DetectedAt: analyzedAt,
	}}

	commitErr := p.CommitAnalysis(ctx, "c-1", domain.StatePending, analysis, markers)
	if commitErr != nil {
		t.Errorf("CommitAnalysis() error = %v", commitErr)
	}

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func TestPostgres_CommitAnalysis_ClaimLost(t *testing.T) {
	p, mock := mockStore(t)
	ctx := context.Background()

	// Zero rows updated: another worker committed the row first
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE content").
		WithArgs("c-1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	analysis := &domain.Analysis{ID: "a-1", ContentID: "c-1", PipelineVersion: "1.0.0"}

	commitErr := p.CommitAnalysis(ctx, "c-1", domain.StatePending, analysis, nil)
	if !errors.Is(commitErr, domain.ErrClaimLost) {
		t.Errorf("expected ErrClaimLost, got %v", commitErr)
	}

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func TestPostgres_MarkStale(t *testing.T) {
	p, mock := mockStore(t)
	ctx := context.Background()

	mock.ExpectExec("UPDATE content").
		WithArgs("2.0.0").
		WillReturnResult(sqlmock.NewResult(0, 3))

	flipped, staleErr := p.MarkStale(ctx, "2.0.0")
	if staleErr != nil {
		t.Errorf("MarkStale() error = %v", staleErr)
	}
	if flipped != 3 {
		t.Errorf("MarkStale() flipped = %d, want 3", flipped)
	}

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func TestPostgres_GetContent_NotFound(t *testing.T) {
	p, mock := mockStore(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT (.+) FROM content").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, getErr := p.GetContent(ctx, "missing")
	if !errors.Is(getErr, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", getErr)
	}
}

func TestPostgres_ListClaimable_TransientConnectionError(t *testing.T) {
	p, mock := mockStore(t)
	ctx := context.Background()

	// Connection-class pq errors (08xxx) must surface as retryable
	mock.ExpectQuery("SELECT (.+) FROM content").
		WillReturnError(&pq.Error{Code: "08006"})

	_, listErr := p.ListClaimable(ctx, 10)
	if !domain.IsTransientStore(listErr) {
		t.Errorf("expected transient store error, got %v", listErr)
	}
}
