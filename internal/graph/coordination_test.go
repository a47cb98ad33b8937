//nolint:testpackage // Testing internal detection requires same package access
package graph

import (
	"testing"
	"time"

	"github.com/signalwatch/propagraph/internal/domain"
)

func coordinationConfig() CoordinationConfig {
	return CoordinationConfig{
		MinSimilarity: 0.8,
		Window:        300 * time.Second,
		MinSources:    2,
	}
}

// Three sources posting near-identical texts within seconds form one event;
// a fourth source posting the same text ten minutes later stays out.
func TestDetectCoordination_BurstWithLateStraggler(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g := NewGraph(start, start.Add(time.Hour))

	addTestNode(g, "c1", "src-1", start)
	addTestNode(g, "c2", "src-2", start.Add(2*time.Second))
	addTestNode(g, "c3", "src-3", start.Add(5*time.Second))
	addTestNode(g, "c4", "src-4", start.Add(10*time.Minute))

	addTestEdge(g, "e1", "c1", "c2", domain.EdgeTypeSimilar, 0.95, 2)
	addTestEdge(g, "e2", "c1", "c3", domain.EdgeTypeSimilar, 0.92, 5)
	addTestEdge(g, "e3", "c2", "c3", domain.EdgeTypeSimilar, 0.93, 3)
	// Straggler links back but exceeds the window
	addTestEdge(g, "e4", "c1", "c4", domain.EdgeTypeSimilar, 0.95, 600)

	events := DetectCoordination(g, coordinationConfig())

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d: %+v", len(events), events)
	}

	ev := events[0]
	if len(ev.ContentIDs) != 3 {
		t.Errorf("event members %v, want 3 items", ev.ContentIDs)
	}
	for _, id := range ev.ContentIDs {
		if id == "c4" {
			t.Error("straggler outside the window pulled into the event")
		}
	}
	if len(ev.SourceIDs) != 3 {
		t.Errorf("event sources %v, want 3", ev.SourceIDs)
	}
	if !ev.WindowStart.Equal(start) || !ev.WindowEnd.Equal(start.Add(5*time.Second)) {
		t.Errorf("event window [%v, %v]", ev.WindowStart, ev.WindowEnd)
	}

	wantAvg := (0.95 + 0.92 + 0.93) / 3
	if diff := ev.AvgSimilarity - wantAvg; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("avg similarity %f, want %f", ev.AvgSimilarity, wantAvg)
	}
}

func TestDetectCoordination_SingleSourceClusterIgnored(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g := NewGraph(start, start.Add(time.Hour))

	// Same source reposting itself is not coordination
	addTestNode(g, "c1", "src-1", start)
	addTestNode(g, "c2", "src-1", start.Add(time.Second))
	addTestEdge(g, "e1", "c1", "c2", domain.EdgeTypeSimilar, 0.99, 1)

	events := DetectCoordination(g, coordinationConfig())
	if len(events) != 0 {
		t.Errorf("expected no events for a single-source cluster, got %d", len(events))
	}
}

func TestDetectCoordination_LowSimilarityIgnored(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g := NewGraph(start, start.Add(time.Hour))

	addTestNode(g, "c1", "src-1", start)
	addTestNode(g, "c2", "src-2", start.Add(time.Second))
	addTestEdge(g, "e1", "c1", "c2", domain.EdgeTypeSimilar, 0.6, 1)

	events := DetectCoordination(g, coordinationConfig())
	if len(events) != 0 {
		t.Errorf("below-threshold similarity produced events: %+v", events)
	}
}

func TestDetectCoordination_NonSimilarEdgesIgnored(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g := NewGraph(start, start.Add(time.Hour))

	addTestNode(g, "c1", "src-1", start)
	addTestNode(g, "c2", "src-2", start.Add(time.Second))
	addTestEdge(g, "e1", "c1", "c2", domain.EdgeTypeForward, 1.0, 1)

	events := DetectCoordination(g, coordinationConfig())
	if len(events) != 0 {
		t.Errorf("forward edges are not coordination evidence: %+v", events)
	}
}

func TestDetectCoordination_SeparateBursts(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g := NewGraph(start, start.Add(2*time.Hour))

	addTestNode(g, "a1", "src-1", start)
	addTestNode(g, "a2", "src-2", start.Add(time.Second))
	addTestNode(g, "b1", "src-3", start.Add(time.Hour))
	addTestNode(g, "b2", "src-4", start.Add(time.Hour).Add(time.Second))

	addTestEdge(g, "e1", "a1", "a2", domain.EdgeTypeSimilar, 0.9, 1)
	addTestEdge(g, "e2", "b1", "b2", domain.EdgeTypeSimilar, 0.9, 1)

	events := DetectCoordination(g, coordinationConfig())
	if len(events) != 2 {
		t.Fatalf("expected 2 separate events, got %d", len(events))
	}
}
