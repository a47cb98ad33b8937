// Package analysis orchestrates end-to-end pipeline runs: NLP enrichment
// batches, propagation-network analysis over a time window, and the
// combined full run. Every run writes an audit record.
package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/signalwatch/propagraph/internal/domain"
	"github.com/signalwatch/propagraph/internal/graph"
	"github.com/signalwatch/propagraph/internal/linker"
	"github.com/signalwatch/propagraph/internal/logging"
	"github.com/signalwatch/propagraph/internal/scheduler"
	"github.com/signalwatch/propagraph/internal/store"
	"github.com/signalwatch/propagraph/internal/telemetry"
)

// NetworkConfig controls the network phase of a run.
type NetworkConfig struct {
	LookbackDays int
	Coordination graph.CoordinationConfig
	ExportDir    string
}

// NetworkReport summarizes one network analysis run.
type NetworkReport struct {
	WindowStart     time.Time
	WindowEnd       time.Time
	Nodes           int
	Edges           int
	EdgesBackfilled int
	Communities     int
	Events          []graph.CoordinatedEvent
	Ranking         *graph.Ranking
	ExportPath      string
}

// Runner executes pipeline runs.
type Runner struct {
	store     store.Store
	scheduler *scheduler.Scheduler
	linker    *linker.Linker
	network   NetworkConfig
	telemetry *telemetry.Provider
	logger    logging.Logger
}

// NewRunner creates a runner.
func NewRunner(
	st store.Store,
	sched *scheduler.Scheduler,
	lk *linker.Linker,
	network NetworkConfig,
	tp *telemetry.Provider,
	logger logging.Logger,
) *Runner {
	return &Runner{
		store:     st,
		scheduler: sched,
		linker:    lk,
		network:   network,
		telemetry: tp,
		logger:    logger,
	}
}

// RunNLP re-queues stale analyses and processes claimable content in batches
// of limit until the claimable pool drains.
func (r *Runner) RunNLP(ctx context.Context, limit int) (*scheduler.BatchReport, error) {
	run := r.startRun(ctx, domain.RunTypeNLP)

	total := &scheduler.BatchReport{}
	err := r.runNLPPhase(ctx, limit, total)

	run.ItemsProcessed = total.Claimed
	run.ItemsNew = total.Committed
	run.ErrorsCount = total.Failed + len(total.Errors)
	run.ErrorMessages = total.Errors
	r.finishRun(ctx, run, err)

	return total, err
}

func (r *Runner) runNLPPhase(ctx context.Context, limit int, total *scheduler.BatchReport) error {
	if _, err := r.scheduler.MarkStale(ctx); err != nil {
		return err
	}

	for {
		report, err := r.scheduler.RunBatch(ctx, limit)
		accumulate(total, report)
		if err != nil {
			return err
		}
		if report.Claimed == 0 {
			return nil
		}
		// A short batch means the pool drained mid-claim
		if report.Claimed < limit {
			return nil
		}
		// A full batch with zero commits and zero skips would re-claim the
		// same failing rows on the next pass; stop instead of spinning
		if report.Committed == 0 && report.Skipped == 0 {
			return nil
		}
	}
}

// RunNetwork backfills similarity edges over the lookback window, builds the
// propagation graph, detects communities and coordinated behavior, ranks
// source influence, and writes the export document.
func (r *Runner) RunNetwork(ctx context.Context, days int) (*NetworkReport, error) {
	run := r.startRun(ctx, domain.RunTypeNetwork)

	report, err := r.runNetworkPhase(ctx, days)

	if report != nil {
		run.ItemsProcessed = report.Nodes
		run.ItemsNew = report.EdgesBackfilled
	}
	r.finishRun(ctx, run, err)

	return report, err
}

func (r *Runner) runNetworkPhase(ctx context.Context, days int) (*NetworkReport, error) {
	if days <= 0 {
		days = r.network.LookbackDays
	}
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	report := &NetworkReport{WindowStart: start, WindowEnd: end}

	backfilled, err := r.linker.Backfill(ctx, start, end)
	if err != nil {
		return report, fmt.Errorf("backfill edges: %w", err)
	}
	report.EdgesBackfilled = backfilled

	buildStart := time.Now()
	snap, err := r.store.SnapshotWindow(ctx, start, end)
	if err != nil {
		return report, fmt.Errorf("load snapshot: %w", err)
	}

	g := graph.Build(snap, r.logger)
	report.Nodes = g.NodeCount()
	report.Edges = g.EdgeCount()
	if r.telemetry != nil {
		r.telemetry.RecordGraphBuild(g.NodeCount(), g.EdgeCount(), time.Since(buildStart))
	}

	labels := graph.DetectCommunities(g)
	graph.ApplyCommunities(g, labels)
	report.Communities = countCommunities(labels)

	report.Ranking = graph.RankInfluence(g)

	report.Events = graph.DetectCoordination(g, r.network.Coordination)

	if r.telemetry != nil {
		r.telemetry.Metrics.CommunitiesFound.Set(float64(report.Communities))
		for range report.Events {
			r.telemetry.Metrics.CoordinatedEvents.Inc()
		}
	}

	path, err := r.export(g, report)
	if err != nil {
		return report, err
	}
	report.ExportPath = path

	r.logger.Info("Network analysis complete",
		logging.Int("nodes", report.Nodes),
		logging.Int("edges", report.Edges),
		logging.Int("edges_backfilled", report.EdgesBackfilled),
		logging.Int("communities", report.Communities),
		logging.Int("coordinated_events", len(report.Events)),
		logging.String("export", path),
	)

	return report, nil
}

// RunFull runs the NLP phase then the network phase under a single audit
// record, so the graph is built from fully enriched content.
func (r *Runner) RunFull(ctx context.Context, limit, days int) (*scheduler.BatchReport, *NetworkReport, error) {
	run := r.startRun(ctx, domain.RunTypeFull)

	nlpReport := &scheduler.BatchReport{}
	err := r.runNLPPhase(ctx, limit, nlpReport)

	var netReport *NetworkReport
	if err == nil {
		netReport, err = r.runNetworkPhase(ctx, days)
	}

	run.ItemsProcessed = nlpReport.Claimed
	run.ItemsNew = nlpReport.Committed
	run.ErrorsCount = nlpReport.Failed + len(nlpReport.Errors)
	run.ErrorMessages = nlpReport.Errors
	r.finishRun(ctx, run, err)

	return nlpReport, netReport, err
}

func (r *Runner) export(g *graph.Graph, report *NetworkReport) (string, error) {
	if err := os.MkdirAll(r.network.ExportDir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	name := fmt.Sprintf("propagation_%s.json", time.Now().UTC().Format("20060102T150405Z"))
	path := filepath.Join(r.network.ExportDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	if err := graph.Export(f, g, report.Ranking, report.Events); err != nil {
		return "", err
	}

	return path, nil
}

func (r *Runner) startRun(ctx context.Context, runType domain.RunType) *domain.RunSummary {
	run := &domain.RunSummary{
		ID:        uuid.NewString(),
		Type:      runType,
		StartedAt: time.Now().UTC(),
		Status:    domain.RunStatusRunning,
	}
	if err := r.store.CreateRun(ctx, run); err != nil {
		// Audit failures never block the run itself
		r.logger.Warn("Failed to record run start", logging.Error(err))
	}
	return run
}

func (r *Runner) finishRun(ctx context.Context, run *domain.RunSummary, runErr error) {
	now := time.Now().UTC()
	run.FinishedAt = &now
	run.Status = domain.RunStatusCompleted
	if runErr != nil {
		run.Status = domain.RunStatusFailed
		run.ErrorsCount++
		run.ErrorMessages = append(run.ErrorMessages, runErr.Error())
	}
	if err := r.store.FinishRun(ctx, run); err != nil {
		r.logger.Warn("Failed to record run finish", logging.Error(err))
	}
}

func accumulate(total, batch *scheduler.BatchReport) {
	if batch == nil {
		return
	}
	total.Claimed += batch.Claimed
	total.Committed += batch.Committed
	total.Skipped += batch.Skipped
	total.Failed += batch.Failed
	total.EdgesCreated += batch.EdgesCreated
	total.Errors = append(total.Errors, batch.Errors...)
}

func countCommunities(labels map[string]int) int {
	seen := make(map[int]bool)
	for _, label := range labels {
		seen[label] = true
	}
	return len(seen)
}
