//nolint:testpackage // Testing internal graph requires same package access
package graph

import (
	"testing"
	"time"

	"github.com/signalwatch/propagraph/internal/domain"
	"github.com/signalwatch/propagraph/internal/logging"
	"github.com/signalwatch/propagraph/internal/store"
)

func testWindow() (time.Time, time.Time) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}

func addTestNode(g *Graph, id, sourceID string, publishedAt time.Time) {
	g.AddNode(&Node{
		ID:          id,
		SourceID:    sourceID,
		PublishedAt: publishedAt,
		Community:   -1,
	})
}

func addTestEdge(g *Graph, id, src, dst string, edgeType domain.EdgeType, sim float64, delta int64) bool {
	return g.AddEdge(&Edge{
		ID:               id,
		Source:           src,
		Target:           dst,
		Type:             edgeType,
		Similarity:       sim,
		TimeDeltaSeconds: delta,
	})
}

func TestGraph_AddEdge_RequiresBothEndpoints(t *testing.T) {
	start, end := testWindow()
	g := NewGraph(start, end)
	addTestNode(g, "a", "s1", start)

	if addTestEdge(g, "e1", "a", "missing", domain.EdgeTypeSimilar, 0.9, 0) {
		t.Error("edge to missing node accepted")
	}
	if g.EdgeCount() != 0 {
		t.Errorf("edge count %d after rejected insert", g.EdgeCount())
	}
}

func TestBuild_SkipsDanglingEdges(t *testing.T) {
	start, end := testWindow()

	snap := &store.Snapshot{
		Start: start,
		End:   end,
		Nodes: []*store.NodeRecord{
			{ContentID: "a", SourceID: "s1", PublishedAt: start},
			{ContentID: "b", SourceID: "s2", PublishedAt: start.Add(time.Hour)},
		},
		Edges: []*domain.PropagationEdge{
			{ID: "e1", SourceContentID: "a", TargetContentID: "b", Type: domain.EdgeTypeSimilar, Similarity: 0.9},
			{ID: "e2", SourceContentID: "outside", TargetContentID: "b", Type: domain.EdgeTypeForward},
		},
	}

	g := Build(snap, logging.Nop())

	if g.NodeCount() != 2 {
		t.Errorf("node count %d, want 2", g.NodeCount())
	}
	if g.EdgeCount() != 1 {
		t.Errorf("edge count %d, want 1 (dangling edge skipped)", g.EdgeCount())
	}
	if g.Node("a").Community != -1 {
		t.Error("fresh node must carry community -1")
	}
}

func TestRankInfluence_HubSourceRanksFirst(t *testing.T) {
	start, end := testWindow()
	g := NewGraph(start, end)

	// hub (src-hub) fans out to three items of three other sources
	addTestNode(g, "hub", "src-hub", start)
	addTestNode(g, "x1", "src-a", start.Add(time.Minute))
	addTestNode(g, "x2", "src-b", start.Add(2*time.Minute))
	addTestNode(g, "x3", "src-c", start.Add(3*time.Minute))
	addTestEdge(g, "e1", "hub", "x1", domain.EdgeTypeForward, 1.0, 60)
	addTestEdge(g, "e2", "hub", "x2", domain.EdgeTypeForward, 1.0, 120)
	addTestEdge(g, "e3", "hub", "x3", domain.EdgeTypeForward, 1.0, 180)

	ranking := RankInfluence(g)

	if len(ranking.Scores) != 4 {
		t.Fatalf("expected 4 ranked sources, got %d", len(ranking.Scores))
	}
	if ranking.Scores[0].SourceID != "src-hub" {
		t.Errorf("expected src-hub first, got %s", ranking.Scores[0].SourceID)
	}
	if ranking.Scores[0].Breakdown["out_degree"] != 3 {
		t.Errorf("hub out_degree %f, want 3", ranking.Scores[0].Breakdown["out_degree"])
	}

	// Equal-score spokes are ordered by source id
	rest := ranking.Scores[1:]
	for i := 1; i < len(rest); i++ {
		if rest[i-1].Score == rest[i].Score && rest[i-1].SourceID > rest[i].SourceID {
			t.Errorf("tie not broken by source id: %s before %s", rest[i-1].SourceID, rest[i].SourceID)
		}
	}
}

func TestRankInfluence_Deterministic(t *testing.T) {
	start, end := testWindow()
	g := NewGraph(start, end)
	addTestNode(g, "a", "s1", start)
	addTestNode(g, "b", "s2", start)
	addTestNode(g, "c", "s3", start)
	addTestEdge(g, "e1", "a", "b", domain.EdgeTypeSimilar, 0.8, 10)
	addTestEdge(g, "e2", "b", "c", domain.EdgeTypeSimilar, 0.7, 20)

	first := RankInfluence(g)
	for i := 0; i < 5; i++ {
		again := RankInfluence(g)
		for i := range first.Scores {
			if again.Scores[i].SourceID != first.Scores[i].SourceID {
				t.Fatal("ranking order differs across runs")
			}
			if again.Scores[i].Score != first.Scores[i].Score {
				t.Fatal("ranking score differs across runs")
			}
		}
	}
}

func TestRankInfluence_EmptyGraph(t *testing.T) {
	start, end := testWindow()
	ranking := RankInfluence(NewGraph(start, end))

	if len(ranking.Scores) != 0 {
		t.Errorf("expected empty ranking, got %d entries", len(ranking.Scores))
	}
}
