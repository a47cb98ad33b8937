package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/signalwatch/propagraph/internal/domain"
	"github.com/signalwatch/propagraph/internal/linker"
	"github.com/signalwatch/propagraph/internal/logging"
	"github.com/signalwatch/propagraph/internal/nlp"
	"github.com/signalwatch/propagraph/internal/retry"
	"github.com/signalwatch/propagraph/internal/store"
	"github.com/signalwatch/propagraph/internal/telemetry"
)

// BatchReport summarizes one scheduler batch.
type BatchReport struct {
	Claimed      int
	Committed    int
	Skipped      int
	Failed       int
	EdgesCreated int
	Errors       []string
}

// Scheduler claims claimable content oldest-published-first, enriches it,
// and commits each row with a compare-and-set so concurrent schedulers never
// commit the same row twice.
type Scheduler struct {
	store     store.Store
	batch     *BatchProcessor
	linker    *linker.Linker
	pipeline  *nlp.Pipeline
	retryCfg  retry.Config
	telemetry *telemetry.Provider
	logger    logging.Logger
}

// New creates a scheduler.
func New(st store.Store, batch *BatchProcessor, lk *linker.Linker, pipeline *nlp.Pipeline, tp *telemetry.Provider, logger logging.Logger) *Scheduler {
	return &Scheduler{
		store:     st,
		batch:     batch,
		linker:    lk,
		pipeline:  pipeline,
		retryCfg:  retry.DefaultConfig(),
		telemetry: tp,
		logger:    logger,
	}
}

// RunBatch processes up to limit claimable items. Single-row failures leave
// the row claimable and the batch running; transient store failures are
// retried with bounded backoff and abort the batch cleanly on exhaustion,
// leaving committed rows committed.
func (s *Scheduler) RunBatch(ctx context.Context, limit int) (*BatchReport, error) {
	report := &BatchReport{}

	var items []*domain.Content
	err := retry.Do(ctx, s.retryCfg, func() error {
		var listErr error
		items, listErr = s.store.ListClaimable(ctx, limit)
		return listErr
	})
	if err != nil {
		return report, fmt.Errorf("claim batch: %w", err)
	}

	if len(items) == 0 {
		s.logger.Debug("No claimable content")
		return report, nil
	}

	report.Claimed = len(items)

	// Remember the state each row was claimed in; the commit CAS checks it
	claimedState := make(map[string]domain.AnalysisState, len(items))
	for _, item := range items {
		claimedState[item.ID] = item.State
	}

	results := s.batch.Process(ctx, items)

	// Commit oldest-published-first so the linker always sees earlier items
	// already committed when it links later ones
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i].Content, results[j].Content
		if a.PublishedAt.Equal(b.PublishedAt) {
			return a.ID < b.ID
		}
		return a.PublishedAt.Before(b.PublishedAt)
	})

	for _, result := range results {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		if result.Err != nil {
			report.Failed++
			report.Errors = append(report.Errors,
				fmt.Sprintf("%s: %v", result.Content.ID, result.Err))
			continue
		}

		if err := s.commit(ctx, result, claimedState[result.Content.ID], report); err != nil {
			return report, err
		}
	}

	s.logger.Info("Scheduler batch finished",
		logging.Int("claimed", report.Claimed),
		logging.Int("committed", report.Committed),
		logging.Int("skipped", report.Skipped),
		logging.Int("failed", report.Failed),
		logging.Int("edges_created", report.EdgesCreated),
	)

	return report, nil
}

// commit writes one item's analysis and links it. A lost claim is counted
// as skipped; a transient failure is retried and aborts the batch when
// exhausted.
func (s *Scheduler) commit(ctx context.Context, result *ProcessResult, fromState domain.AnalysisState, report *BatchReport) error {
	analysis, markers := s.buildRecords(result)

	err := retry.Do(ctx, s.retryCfg, func() error {
		commitErr := s.store.CommitAnalysis(ctx, result.Content.ID, fromState, analysis, markers)
		if errors.Is(commitErr, domain.ErrClaimLost) {
			return commitErr // not transient, surfaces immediately
		}
		return commitErr
	})
	if errors.Is(err, domain.ErrClaimLost) {
		report.Skipped++
		if s.telemetry != nil {
			s.telemetry.RecordClaimLost()
		}
		s.logger.Debug("Claim lost to concurrent worker",
			logging.String("content_id", result.Content.ID),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("commit analysis for %s: %w", result.Content.ID, err)
	}

	report.Committed++

	if s.linker != nil {
		var ref *linker.StructuralRef
		if result.Content.RefExternalID != "" {
			ref = &linker.StructuralRef{
				ExternalID: result.Content.RefExternalID,
				Type:       result.Content.RefType,
			}
		}
		created, linkErr := s.linker.LinkContent(ctx, result.Content, ref)
		report.EdgesCreated += created
		if linkErr != nil {
			// Linking failures never un-commit the analysis
			report.Errors = append(report.Errors,
				fmt.Sprintf("link %s: %v", result.Content.ID, linkErr))
			s.logger.Warn("Linking failed",
				logging.String("content_id", result.Content.ID),
				logging.Error(linkErr),
			)
		}
	}

	return nil
}

func (s *Scheduler) buildRecords(result *ProcessResult) (*domain.Analysis, []*domain.CognitiveMarker) {
	now := time.Now()
	r := result.Result

	analysis := &domain.Analysis{
		ID:                   uuid.NewString(),
		ContentID:            result.Content.ID,
		SentimentScore:       r.SentimentScore,
		SentimentLabel:       r.SentimentLabel,
		SentimentConfidence:  r.SentimentConfidence,
		Entities:             r.Entities,
		Keywords:             r.Keywords,
		IsPropaganda:         r.IsPropaganda,
		PropagandaConfidence: r.PropagandaConfidence,
		Techniques:           r.Techniques,
		DetectedLanguage:     r.DetectedLanguage,
		LanguageConfidence:   r.LanguageConfidence,
		PipelineVersion:      s.pipeline.Version(),
		AnalyzedAt:           now,
	}

	markers := make([]*domain.CognitiveMarker, 0, len(result.Hits))
	for _, hit := range result.Hits {
		markers = append(markers, &domain.CognitiveMarker{
			ID:              uuid.NewString(),
			ContentID:       result.Content.ID,
			MarkerType:      hit.Type,
			Category:        hit.Category,
			Confidence:      hit.Confidence,
			Severity:        hit.Severity,
			Evidence:        hit.Evidence,
			SpanStart:       hit.SpanStart,
			SpanEnd:         hit.SpanEnd,
			DetectedAt:      now,
			DetectorVersion: s.pipeline.Version(),
		})
	}

	return analysis, markers
}

// MarkStale flips rows analyzed under an older pipeline version back into
// the claimable pool.
func (s *Scheduler) MarkStale(ctx context.Context) (int64, error) {
	flipped, err := s.store.MarkStale(ctx, s.pipeline.Version())
	if err != nil {
		return 0, fmt.Errorf("mark stale: %w", err)
	}
	if flipped > 0 {
		s.logger.Info("Marked stale analyses for re-processing",
			logging.Int64("count", flipped),
			logging.String("pipeline_version", s.pipeline.Version()),
		)
	}
	return flipped, nil
}
