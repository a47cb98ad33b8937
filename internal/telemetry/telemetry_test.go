//nolint:testpackage // Testing internal telemetry requires same package access
package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// promauto registers on the default registry, so all tests share one provider.
var tp = NewProvider()

func TestRecordAnalysis(t *testing.T) {
	before := testutil.ToFloat64(tp.Metrics.ItemsAnalyzed)
	beforeFailed := testutil.ToFloat64(tp.Metrics.ItemsFailed)

	tp.RecordAnalysis(true, 5*time.Millisecond)
	tp.RecordAnalysis(true, 5*time.Millisecond)
	tp.RecordAnalysis(false, 5*time.Millisecond)

	assert.InDelta(t, before+2, testutil.ToFloat64(tp.Metrics.ItemsAnalyzed), 0.001)
	assert.InDelta(t, beforeFailed+1, testutil.ToFloat64(tp.Metrics.ItemsFailed), 0.001)
}

func TestRecordEdge(t *testing.T) {
	before := testutil.ToFloat64(tp.Metrics.EdgesCreated.WithLabelValues("similar"))

	tp.RecordEdge("similar")
	tp.RecordEdge("forward")

	assert.InDelta(t, before+1, testutil.ToFloat64(tp.Metrics.EdgesCreated.WithLabelValues("similar")), 0.001)
	assert.InDelta(t, 1.0, testutil.ToFloat64(tp.Metrics.EdgesCreated.WithLabelValues("forward")), 0.001)
}

func TestRecordClaimLost(t *testing.T) {
	before := testutil.ToFloat64(tp.Metrics.ItemsClaimLost)

	tp.RecordClaimLost()
	tp.RecordClaimLost()

	assert.InDelta(t, before+2, testutil.ToFloat64(tp.Metrics.ItemsClaimLost), 0.001)
}

func TestRecordDuplicateEdge(t *testing.T) {
	before := testutil.ToFloat64(tp.Metrics.EdgeDuplicates)

	tp.RecordDuplicateEdge()

	assert.InDelta(t, before+1, testutil.ToFloat64(tp.Metrics.EdgeDuplicates), 0.001)
}

func TestRecordModelBuild(t *testing.T) {
	before := testutil.ToFloat64(tp.Metrics.ModelBuilds.WithLabelValues("en", "success"))

	tp.RecordModelBuild("en", "success", 3*time.Millisecond)
	tp.RecordModelBuild("ru", "timeout", 30*time.Second)

	assert.InDelta(t, before+1, testutil.ToFloat64(tp.Metrics.ModelBuilds.WithLabelValues("en", "success")), 0.001)
	assert.InDelta(t, 1.0, testutil.ToFloat64(tp.Metrics.ModelBuilds.WithLabelValues("ru", "timeout")), 0.001)
}

func TestRecordGraphBuild(t *testing.T) {
	tp.RecordGraphBuild(42, 17, 250*time.Millisecond)

	assert.InDelta(t, 42.0, testutil.ToFloat64(tp.Metrics.GraphNodes), 0.001)
	assert.InDelta(t, 17.0, testutil.ToFloat64(tp.Metrics.GraphEdges), 0.001)

	// Gauges track the latest build, not a running total
	tp.RecordGraphBuild(10, 3, 100*time.Millisecond)
	assert.InDelta(t, 10.0, testutil.ToFloat64(tp.Metrics.GraphNodes), 0.001)
}

func TestMetricsHandler(t *testing.T) {
	tp.RecordAnalysis(true, time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	tp.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "propagraph_items_analyzed_total"),
		"metrics output missing pipeline counters")
}

func TestStartSpan(t *testing.T) {
	ctx, span := tp.StartSpan(context.Background(), "test-operation")
	require.NotNil(t, span)
	span.End()

	assert.NotNil(t, ctx)
}
