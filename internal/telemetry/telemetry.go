// Package telemetry provides OpenTelemetry instrumentation for the
// propagation pipeline. It exports Prometheus metrics and a tracer handle.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "propagraph"

// Metrics holds all pipeline Prometheus metrics.
type Metrics struct {
	// Ingestion metrics
	ContentIngested   *prometheus.CounterVec
	ContentDuplicates prometheus.Counter
	ContentRejected   prometheus.Counter

	// Scheduler metrics
	ItemsAnalyzed    prometheus.Counter
	ItemsFailed      prometheus.Counter
	ItemsClaimLost   prometheus.Counter
	BatchDuration    prometheus.Histogram
	BatchSize        prometheus.Histogram
	AnalysisDuration prometheus.Histogram
	ActiveWorkers    prometheus.Gauge

	// Linker metrics
	EdgesCreated   *prometheus.CounterVec
	EdgeDuplicates prometheus.Counter

	// Graph analysis metrics
	GraphBuildDuration prometheus.Histogram
	GraphNodes         prometheus.Gauge
	GraphEdges         prometheus.Gauge
	CommunitiesFound   prometheus.Gauge
	CoordinatedEvents  prometheus.Counter

	// Model cache metrics
	ModelBuilds        *prometheus.CounterVec
	ModelBuildDuration prometheus.Histogram
}

// Provider wraps telemetry providers.
type Provider struct {
	Tracer  trace.Tracer
	Metrics *Metrics
}

// NewProvider initializes telemetry with Prometheus metrics.
func NewProvider() *Provider {
	return &Provider{
		Tracer:  otel.Tracer(serviceName),
		Metrics: initMetrics(),
	}
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (p *Provider) Handler() http.Handler {
	return promhttp.Handler()
}

func initMetrics() *Metrics {
	m := &Metrics{}
	initIngestMetrics(m)
	initSchedulerMetrics(m)
	initLinkerMetrics(m)
	initGraphMetrics(m)
	initModelMetrics(m)
	return m
}

func initIngestMetrics(m *Metrics) {
	m.ContentIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "propagraph_content_ingested_total",
		Help: "Content items accepted by the dedup gate",
	}, []string{"source_type"})

	m.ContentDuplicates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "propagraph_content_duplicates_total",
		Help: "Same-source duplicates rejected idempotently",
	})

	m.ContentRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "propagraph_content_rejected_total",
		Help: "Candidates rejected by validation",
	})
}

func initSchedulerMetrics(m *Metrics) {
	m.ItemsAnalyzed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "propagraph_items_analyzed_total",
		Help: "Content items with a committed analysis",
	})

	m.ItemsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "propagraph_items_failed_total",
		Help: "Content items whose enrichment failed and stayed pending",
	})

	m.ItemsClaimLost = promauto.NewCounter(prometheus.CounterOpts{
		Name: "propagraph_items_claim_lost_total",
		Help: "Commits skipped because a concurrent worker won the row",
	})

	m.BatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "propagraph_batch_duration_seconds",
		Help:    "Wall time per scheduler batch",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	m.BatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "propagraph_batch_size",
		Help:    "Claimed items per batch",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
	})

	m.AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "propagraph_analysis_duration_seconds",
		Help:    "Time to enrich a single item",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
	})

	m.ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "propagraph_active_workers",
		Help: "Currently active enrichment workers",
	})
}

func initLinkerMetrics(m *Metrics) {
	m.EdgesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "propagraph_edges_created_total",
		Help: "Propagation edges created",
	}, []string{"edge_type"})

	m.EdgeDuplicates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "propagraph_edge_duplicates_total",
		Help: "Edge inserts skipped because the ordered pair already exists",
	})
}

func initGraphMetrics(m *Metrics) {
	m.GraphBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "propagraph_graph_build_duration_seconds",
		Help:    "Time to load a windowed graph snapshot",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
	})

	m.GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "propagraph_graph_nodes",
		Help: "Nodes in the most recent graph build",
	})

	m.GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "propagraph_graph_edges",
		Help: "Edges in the most recent graph build",
	})

	m.CommunitiesFound = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "propagraph_communities_found",
		Help: "Communities detected in the most recent run",
	})

	m.CoordinatedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "propagraph_coordinated_events_total",
		Help: "Coordinated-behavior events emitted",
	})
}

func initModelMetrics(m *Metrics) {
	m.ModelBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "propagraph_model_builds_total",
		Help: "Per-language model constructions by outcome",
	}, []string{"language", "outcome"})

	m.ModelBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "propagraph_model_build_duration_seconds",
		Help:    "Time to build one language's resources",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 30},
	})
}

// RecordAnalysis records a single enrichment outcome.
func (p *Provider) RecordAnalysis(success bool, duration time.Duration) {
	if success {
		p.Metrics.ItemsAnalyzed.Inc()
	} else {
		p.Metrics.ItemsFailed.Inc()
	}
	p.Metrics.AnalysisDuration.Observe(duration.Seconds())
}

// RecordBatch records batch-level scheduler metrics.
func (p *Provider) RecordBatch(size int, duration time.Duration) {
	p.Metrics.BatchSize.Observe(float64(size))
	p.Metrics.BatchDuration.Observe(duration.Seconds())
}

// RecordClaimLost records a commit skipped because another worker won the row.
func (p *Provider) RecordClaimLost() {
	p.Metrics.ItemsClaimLost.Inc()
}

// RecordEdge records a created propagation edge.
func (p *Provider) RecordEdge(edgeType string) {
	p.Metrics.EdgesCreated.WithLabelValues(edgeType).Inc()
}

// RecordDuplicateEdge records an edge insert skipped as an existing pair.
func (p *Provider) RecordDuplicateEdge() {
	p.Metrics.EdgeDuplicates.Inc()
}

// RecordModelBuild records one language-model construction attempt.
func (p *Provider) RecordModelBuild(language, outcome string, duration time.Duration) {
	p.Metrics.ModelBuilds.WithLabelValues(language, outcome).Inc()
	p.Metrics.ModelBuildDuration.Observe(duration.Seconds())
}

// RecordGraphBuild records the size and cost of a graph build.
func (p *Provider) RecordGraphBuild(nodes, edges int, duration time.Duration) {
	p.Metrics.GraphNodes.Set(float64(nodes))
	p.Metrics.GraphEdges.Set(float64(edges))
	p.Metrics.GraphBuildDuration.Observe(duration.Seconds())
}

// StartSpan starts a new trace span. The caller ends it.
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return p.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
