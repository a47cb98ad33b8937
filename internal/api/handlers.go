// Package api exposes the operational HTTP surface: content ingestion,
// analysis readback, run triggers, and health/metrics endpoints.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/signalwatch/propagraph/internal/analysis"
	"github.com/signalwatch/propagraph/internal/domain"
	"github.com/signalwatch/propagraph/internal/ingest"
	"github.com/signalwatch/propagraph/internal/linker"
	"github.com/signalwatch/propagraph/internal/logging"
	"github.com/signalwatch/propagraph/internal/store"
	"github.com/signalwatch/propagraph/internal/telemetry"
)

const (
	maxBatchSize    = 100
	defaultRunLimit = 50
)

// Handler handles HTTP requests for the pipeline API.
type Handler struct {
	gate      *ingest.Gate
	store     store.Store
	runner    *analysis.Runner
	linker    *linker.Linker
	telemetry *telemetry.Provider
	batchSize int
	logger    logging.Logger
}

// NewHandler creates an API handler.
func NewHandler(
	gate *ingest.Gate,
	st store.Store,
	runner *analysis.Runner,
	lk *linker.Linker,
	tp *telemetry.Provider,
	batchSize int,
	logger logging.Logger,
) *Handler {
	return &Handler{
		gate:      gate,
		store:     st,
		runner:    runner,
		linker:    lk,
		telemetry: tp,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Ingest handles POST /api/v1/content
func (h *Handler) Ingest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid ingest request", logging.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.gate.Ingest(c.Request.Context(), req.toCandidate())
	if err != nil {
		if domain.IsValidation(err) {
			if h.telemetry != nil {
				h.telemetry.Metrics.ContentRejected.Inc()
			}
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Ingest failed", logging.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ingest failed"})
		return
	}

	h.recordIngest(result, req.SourceID)
	h.linkSimilar(c.Request.Context(), result)

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	c.JSON(status, toIngestResponse(result))
}

// IngestBatch handles POST /api/v1/content/batch
func (h *Handler) IngestBatch(c *gin.Context) {
	var req BatchIngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid batch ingest request", logging.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := BatchIngestResponse{Total: len(req.Items)}
	for _, item := range req.Items {
		result, err := h.gate.Ingest(c.Request.Context(), item.toCandidate())
		if err != nil {
			// A bad candidate never aborts the rest of the batch
			resp.Failed++
			resp.Results = append(resp.Results, IngestResponse{Error: err.Error()})
			if domain.IsValidation(err) && h.telemetry != nil {
				h.telemetry.Metrics.ContentRejected.Inc()
			}
			continue
		}
		h.recordIngest(result, item.SourceID)
		h.linkSimilar(c.Request.Context(), result)
		if result.Duplicate {
			resp.Duplicates++
		} else {
			resp.Accepted++
		}
		resp.Results = append(resp.Results, toIngestResponse(result))
	}

	h.logger.Info("Batch ingest complete",
		logging.Int("total", resp.Total),
		logging.Int("accepted", resp.Accepted),
		logging.Int("duplicates", resp.Duplicates),
		logging.Int("failed", resp.Failed),
	)

	c.JSON(http.StatusOK, resp)
}

// GetContent handles GET /api/v1/content/:id
func (h *Handler) GetContent(c *gin.Context) {
	id := c.Param("id")

	content, err := h.store.GetContent(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "content not found"})
			return
		}
		h.logger.Error("Failed to load content", logging.String("id", id), logging.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load content"})
		return
	}

	c.JSON(http.StatusOK, content)
}

// GetAnalysis handles GET /api/v1/content/:id/analysis
func (h *Handler) GetAnalysis(c *gin.Context) {
	id := c.Param("id")

	a, err := h.store.GetAnalysis(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "analysis not found"})
			return
		}
		h.logger.Error("Failed to load analysis", logging.String("id", id), logging.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load analysis"})
		return
	}

	markers, err := h.store.ListMarkers(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load markers", logging.String("id", id), logging.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load markers"})
		return
	}

	c.JSON(http.StatusOK, AnalysisResponse{Analysis: a, Markers: markers})
}

// ListSources handles GET /api/v1/sources
func (h *Handler) ListSources(c *gin.Context) {
	sources, err := h.store.ListSources(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list sources", logging.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load sources"})
		return
	}

	c.JSON(http.StatusOK, SourcesResponse{Sources: sources, Total: len(sources)})
}

// UpsertSource handles PUT /api/v1/sources/:id
func (h *Handler) UpsertSource(c *gin.Context) {
	id := c.Param("id")

	var src domain.Source
	if err := c.ShouldBindJSON(&src); err != nil {
		h.logger.Warn("Invalid source request", logging.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	src.ID = id

	if err := h.store.UpsertSource(c.Request.Context(), &src); err != nil {
		h.logger.Error("Failed to upsert source", logging.String("id", id), logging.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store source"})
		return
	}

	c.JSON(http.StatusOK, src)
}

// ListRuns handles GET /api/v1/runs
func (h *Handler) ListRuns(c *gin.Context) {
	limit := defaultRunLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	runs, err := h.store.ListRuns(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list runs", logging.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load runs"})
		return
	}

	c.JSON(http.StatusOK, RunsResponse{Runs: runs, Total: len(runs)})
}

// TriggerAnalyze handles POST /api/v1/analyze
func (h *Handler) TriggerAnalyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid analyze request", logging.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = h.batchSize
	}

	resp := AnalyzeResponse{Scope: req.scope()}

	switch req.scope() {
	case ScopeNLP:
		report, err := h.runner.RunNLP(c.Request.Context(), limit)
		resp.NLP = toNLPReport(report)
		if err != nil {
			resp.Error = err.Error()
		}
	case ScopeNetwork:
		report, err := h.runner.RunNetwork(c.Request.Context(), req.Days)
		resp.Network = toNetworkReport(report)
		if err != nil {
			resp.Error = err.Error()
		}
	default:
		nlpReport, netReport, err := h.runner.RunFull(c.Request.Context(), limit, req.Days)
		resp.NLP = toNLPReport(nlpReport)
		resp.Network = toNetworkReport(netReport)
		if err != nil {
			resp.Error = err.Error()
		}
	}

	status := http.StatusOK
	if resp.Error != "" {
		status = http.StatusInternalServerError
	}
	c.JSON(status, resp)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "propagraph",
	})
}

// ReadyCheck handles GET /ready
func (h *Handler) ReadyCheck(c *gin.Context) {
	if _, err := h.store.ListRuns(c.Request.Context(), 1); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"checks": gin.H{"postgresql": err.Error()},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"checks": gin.H{"postgresql": "ok"},
	})
}

// linkSimilar records cross-source dedup matches as similarity-1.0 edges.
// Failures never affect the ingest response; the network backfill catches
// anything missed here.
func (h *Handler) linkSimilar(ctx context.Context, result *ingest.Result) {
	if h.linker == nil {
		return
	}
	for _, existingID := range result.SimilarTo {
		created, err := h.linker.LinkSimilarCandidate(ctx, existingID, result.Content.ID)
		if err != nil {
			h.logger.Warn("Failed to link dedup match",
				logging.String("existing_id", existingID),
				logging.String("content_id", result.Content.ID),
				logging.Error(err),
			)
			continue
		}
		if created && h.telemetry != nil {
			h.telemetry.RecordEdge(string(domain.EdgeTypeSimilar))
		}
	}
}

func (h *Handler) recordIngest(result *ingest.Result, sourceID string) {
	if h.telemetry == nil {
		return
	}
	if result.Duplicate {
		h.telemetry.Metrics.ContentDuplicates.Inc()
		return
	}
	h.telemetry.Metrics.ContentIngested.WithLabelValues(h.sourceType(sourceID)).Inc()
}

func (h *Handler) sourceType(sourceID string) string {
	src, err := h.store.GetSource(context.Background(), sourceID)
	if err != nil {
		return "unknown"
	}
	return string(src.Type)
}
