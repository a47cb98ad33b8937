//nolint:testpackage // Testing internal handlers requires same package access
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/signalwatch/propagraph/internal/analysis"
	"github.com/signalwatch/propagraph/internal/domain"
	"github.com/signalwatch/propagraph/internal/graph"
	"github.com/signalwatch/propagraph/internal/ingest"
	"github.com/signalwatch/propagraph/internal/linker"
	"github.com/signalwatch/propagraph/internal/logging"
	"github.com/signalwatch/propagraph/internal/nlp"
	"github.com/signalwatch/propagraph/internal/scheduler"
	"github.com/signalwatch/propagraph/internal/store"
)

// setupTestHandler wires a handler onto an in-memory store with a real
// pipeline behind it.
func setupTestHandler(t *testing.T) (*gin.Engine, *store.Memory) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem := store.NewMemory()
	logger := logging.Nop()
	gate := ingest.NewGate(mem, logger)

	corpus := &nlp.Corpus{
		Version: "test",
		Rules: []nlp.MarkerRule{{
			Type:     "urgency_pressure",
			Category: "emotional",
			Severity: domain.SeverityMedium,
			Keywords: map[string][]string{"en": {"act now"}},
		}},
	}
	models := nlp.NewModelCache(corpus, 5*time.Second, nil, logger)
	pipeline := nlp.NewPipeline(models, nil, nlp.Config{KeywordTopN: 10, Version: "test-1.0.0"}, logger)

	lk := linker.New(mem, linker.Config{
		MinSimilarity:     0.5,
		MutationThreshold: 0.95,
		Lookback:          30 * 24 * time.Hour,
	}, nil, logger)
	batch := scheduler.NewBatchProcessor(pipeline, 2, nil, logger)
	sched := scheduler.New(mem, batch, lk, pipeline, nil, logger)

	runner := analysis.NewRunner(mem, sched, lk, analysis.NetworkConfig{
		LookbackDays: 30,
		Coordination: graph.CoordinationConfig{
			MinSimilarity: 0.8,
			Window:        300 * time.Second,
			MinSources:    2,
		},
		ExportDir: t.TempDir(),
	}, nil, logger)

	handler := NewHandler(gate, mem, runner, lk, nil, 100, logger)

	router := gin.New()
	router.GET("/health", handler.HealthCheck)
	router.GET("/ready", handler.ReadyCheck)
	v1 := router.Group("/api/v1")
	{
		v1.POST("/content", handler.Ingest)
		v1.POST("/content/batch", handler.IngestBatch)
		v1.GET("/content/:id", handler.GetContent)
		v1.GET("/content/:id/analysis", handler.GetAnalysis)
		v1.GET("/sources", handler.ListSources)
		v1.PUT("/sources/:id", handler.UpsertSource)
		v1.GET("/runs", handler.ListRuns)
		v1.POST("/analyze", handler.TriggerAnalyze)
	}

	return router, mem
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, marshalErr := json.Marshal(body)
	if marshalErr != nil {
		t.Fatalf("marshal request: %v", marshalErr)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func ingestBody(sourceID, text string) IngestRequest {
	return IngestRequest{
		SourceID:    sourceID,
		ContentType: "post",
		Text:        text,
		Language:    "en",
		PublishedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestIngest_NewContent(t *testing.T) {
	router, _ := setupTestHandler(t)

	w := postJSON(t, router, "/api/v1/content", ingestBody("src-1", "a fresh item of content"))

	if w.Code != http.StatusCreated {
		t.Fatalf("status %d, want 201: %s", w.Code, w.Body.String())
	}

	var resp IngestResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ContentID == "" {
		t.Error("response missing content_id")
	}
	if resp.Duplicate {
		t.Error("fresh content flagged duplicate")
	}
}

func TestIngest_SameSourceDuplicate(t *testing.T) {
	router, _ := setupTestHandler(t)

	body := ingestBody("src-1", "the same text twice from one source")
	first := postJSON(t, router, "/api/v1/content", body)
	if first.Code != http.StatusCreated {
		t.Fatalf("first post status %d", first.Code)
	}

	second := postJSON(t, router, "/api/v1/content", body)
	if second.Code != http.StatusOK {
		t.Fatalf("duplicate status %d, want 200", second.Code)
	}

	var resp IngestResponse
	if err := json.Unmarshal(second.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Duplicate {
		t.Error("duplicate not flagged")
	}

	var firstResp IngestResponse
	_ = json.Unmarshal(first.Body.Bytes(), &firstResp)
	if resp.ContentID != firstResp.ContentID {
		t.Errorf("duplicate returned id %s, want original %s", resp.ContentID, firstResp.ContentID)
	}
}

func TestIngest_WhitespaceTextRejected(t *testing.T) {
	router, _ := setupTestHandler(t)

	w := postJSON(t, router, "/api/v1/content", ingestBody("src-1", "   "))

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status %d, want 422: %s", w.Code, w.Body.String())
	}
}

func TestIngest_MalformedJSON(t *testing.T) {
	router, _ := setupTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/content", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", w.Code)
	}
}

func TestIngestBatch_IsolatesBadItems(t *testing.T) {
	router, _ := setupTestHandler(t)

	batch := BatchIngestRequest{Items: []IngestRequest{
		ingestBody("src-1", "first valid item in the batch"),
		ingestBody("src-1", "   "),
		ingestBody("src-2", "second valid item in the batch"),
	}}

	w := postJSON(t, router, "/api/v1/content/batch", batch)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}

	var resp BatchIngestResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 3 || resp.Accepted != 2 || resp.Failed != 1 {
		t.Errorf("batch counts total=%d accepted=%d failed=%d, want 3/2/1",
			resp.Total, resp.Accepted, resp.Failed)
	}
}

func TestIngest_CrossSourceMatchCreatesEdge(t *testing.T) {
	router, mem := setupTestHandler(t)

	text := "identical text republished by a second source"
	first := postJSON(t, router, "/api/v1/content", ingestBody("src-1", text))
	if first.Code != http.StatusCreated {
		t.Fatalf("first post status %d", first.Code)
	}

	body := ingestBody("src-2", text)
	body.PublishedAt = body.PublishedAt.Add(time.Hour)
	second := postJSON(t, router, "/api/v1/content", body)
	if second.Code != http.StatusCreated {
		t.Fatalf("cross-source post status %d, want 201", second.Code)
	}

	var resp IngestResponse
	if err := json.Unmarshal(second.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.SimilarTo) != 1 {
		t.Fatalf("similar_to %v, want the first item", resp.SimilarTo)
	}

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	edges, err := mem.ListEdgesWindow(context.Background(), start, start.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("list edges: %v", err)
	}
	if len(edges) != 1 {
		t.Fatalf("edges %d, want 1 similarity edge from the dedup match", len(edges))
	}
	if edges[0].Type != domain.EdgeTypeSimilar || edges[0].Similarity != 1.0 {
		t.Errorf("edge %+v, want similar with score 1.0", edges[0])
	}
	if edges[0].SourceContentID != resp.SimilarTo[0] || edges[0].TargetContentID != resp.ContentID {
		t.Errorf("edge direction %s -> %s, want earlier item as source",
			edges[0].SourceContentID, edges[0].TargetContentID)
	}
}

func TestGetContent_NotFound(t *testing.T) {
	router, _ := setupTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/content/missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404", w.Code)
	}
}

func TestGetAnalysis_NotFound(t *testing.T) {
	router, _ := setupTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/content/missing/analysis", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404", w.Code)
	}
}

func TestUpsertSource_ThenList(t *testing.T) {
	router, _ := setupTestHandler(t)

	src := domain.Source{
		Name:        "Channel One",
		Type:        domain.SourceTypeTelegram,
		Platform:    "telegram",
		IsActive:    true,
		FirstSeenAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	payload, _ := json.Marshal(src)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/sources/src-1", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("upsert status %d: %s", w.Code, w.Body.String())
	}

	listReq := httptest.NewRequest(http.MethodGet, "/api/v1/sources", nil)
	listW := httptest.NewRecorder()
	router.ServeHTTP(listW, listReq)

	var resp SourcesResponse
	if err := json.Unmarshal(listW.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 1 || resp.Sources[0].ID != "src-1" {
		t.Errorf("sources list %+v, want one entry with id from the URL", resp)
	}
}

func TestTriggerAnalyze_NLPScope(t *testing.T) {
	router, _ := setupTestHandler(t)

	post := postJSON(t, router, "/api/v1/content", ingestBody("src-1", "you must act now before it is over"))
	if post.Code != http.StatusCreated {
		t.Fatalf("ingest status %d", post.Code)
	}

	w := postJSON(t, router, "/api/v1/analyze", AnalyzeRequest{Scope: "nlp"})
	if w.Code != http.StatusOK {
		t.Fatalf("analyze status %d: %s", w.Code, w.Body.String())
	}

	var resp AnalyzeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Scope != ScopeNLP {
		t.Errorf("scope %s, want nlp", resp.Scope)
	}
	if resp.NLP == nil || resp.NLP.Committed != 1 {
		t.Errorf("nlp report %+v, want 1 committed", resp.NLP)
	}
	if resp.Network != nil {
		t.Error("nlp-only run returned a network report")
	}
}

func TestListRuns_AfterAnalyze(t *testing.T) {
	router, _ := setupTestHandler(t)

	postJSON(t, router, "/api/v1/analyze", AnalyzeRequest{Scope: "nlp"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs?limit=10", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}

	var resp RunsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 1 {
		t.Fatalf("runs total %d, want 1", resp.Total)
	}
	if resp.Runs[0].Type != domain.RunTypeNLP {
		t.Errorf("run type %s, want nlp", resp.Runs[0].Type)
	}
}

func TestHealthAndReady(t *testing.T) {
	router, _ := setupTestHandler(t)

	for _, path := range []string{"/health", "/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("%s status %d, want 200", path, w.Code)
		}
	}
}
