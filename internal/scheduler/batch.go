// Package scheduler claims unanalyzed content in bounded batches, runs the
// enrichment pipeline over a worker pool, and commits results with
// optimistic concurrency.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/signalwatch/propagraph/internal/domain"
	"github.com/signalwatch/propagraph/internal/logging"
	"github.com/signalwatch/propagraph/internal/nlp"
	"github.com/signalwatch/propagraph/internal/telemetry"
)

// defaultConcurrency bounds the worker pool when none is configured.
const defaultConcurrency = 8

// ProcessResult holds the enrichment outcome for a single item.
type ProcessResult struct {
	Content *domain.Content
	Result  *nlp.Result
	Hits    []nlp.MarkerHit
	Err     error
}

// BatchProcessor enriches content items in parallel using a worker pool.
type BatchProcessor struct {
	pipeline    *nlp.Pipeline
	concurrency int
	telemetry   *telemetry.Provider
	logger      logging.Logger
}

// NewBatchProcessor creates a batch processor.
func NewBatchProcessor(pipeline *nlp.Pipeline, concurrency int, tp *telemetry.Provider, logger logging.Logger) *BatchProcessor {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	return &BatchProcessor{
		pipeline:    pipeline,
		concurrency: concurrency,
		telemetry:   tp,
		logger:      logger,
	}
}

// Process enriches a batch of items through the worker pool. Per-item
// failures are isolated into their results; the batch itself always
// completes unless the context is cancelled.
func (b *BatchProcessor) Process(ctx context.Context, items []*domain.Content) []*ProcessResult {
	if len(items) == 0 {
		return []*ProcessResult{}
	}

	b.logger.Info("Starting batch enrichment",
		logging.Int("batch_size", len(items)),
		logging.Int("concurrency", b.concurrency),
	)

	startTime := time.Now()

	jobs := make(chan *domain.Content, len(items))
	results := make(chan *ProcessResult, len(items))

	var wg sync.WaitGroup
	for i := 0; i < b.concurrency; i++ {
		wg.Add(1)
		go b.worker(ctx, i, jobs, results, &wg)
	}

	for _, item := range items {
		jobs <- item
	}
	close(jobs)

	wg.Wait()
	close(results)

	processResults := make([]*ProcessResult, 0, len(items))
	for result := range results {
		processResults = append(processResults, result)
	}

	duration := time.Since(startTime)
	successCount := 0
	errorCount := 0
	for _, result := range processResults {
		if result.Err == nil {
			successCount++
		} else {
			errorCount++
		}
	}

	b.logger.Info("Batch enrichment complete",
		logging.Int("total", len(items)),
		logging.Int("success", successCount),
		logging.Int("errors", errorCount),
		logging.Int64("duration_ms", duration.Milliseconds()),
	)

	if b.telemetry != nil {
		b.telemetry.RecordBatch(len(items), duration)
	}

	return processResults
}

// worker processes items from the jobs channel.
func (b *BatchProcessor) worker(
	ctx context.Context,
	id int,
	jobs <-chan *domain.Content,
	results chan<- *ProcessResult,
	wg *sync.WaitGroup,
) {
	defer wg.Done()

	if b.telemetry != nil {
		b.telemetry.Metrics.ActiveWorkers.Inc()
		defer b.telemetry.Metrics.ActiveWorkers.Dec()
	}

	for item := range jobs {
		select {
		case <-ctx.Done():
			b.logger.Warn("Worker stopping due to context cancellation",
				logging.Int("worker_id", id),
			)
			return
		default:
		}

		results <- b.processItem(ctx, item)
	}
}

// processItem enriches a single content item.
func (b *BatchProcessor) processItem(ctx context.Context, item *domain.Content) *ProcessResult {
	start := time.Now()
	result := &ProcessResult{Content: item}

	analysis, hits, err := b.pipeline.Analyze(ctx, item.Text, item.Language)
	if err != nil {
		result.Err = err
		b.logger.Error("Enrichment failed",
			logging.String("content_id", item.ID),
			logging.Error(err),
		)
		if b.telemetry != nil {
			b.telemetry.RecordAnalysis(false, time.Since(start))
		}
		return result
	}

	result.Result = analysis
	result.Hits = hits

	if b.telemetry != nil {
		b.telemetry.RecordAnalysis(true, time.Since(start))
	}

	return result
}
