//nolint:testpackage // Testing internal export requires same package access
package graph

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/signalwatch/propagraph/internal/domain"
)

func exportableGraph() *Graph {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	g := NewGraph(start, start.Add(24*time.Hour))

	score := -0.4
	prop := true
	g.AddNode(&Node{
		ID: "c1", SourceID: "s1", SourceName: "Channel One",
		SourceType: domain.SourceTypeTelegram, ContentType: domain.ContentTypeMessage,
		Language: "ru", PublishedAt: start.Add(time.Hour),
		IsDoppelganger: true, SentimentScore: &score, IsPropaganda: &prop,
		Community: 0,
	})
	g.AddNode(&Node{
		ID: "c2", SourceID: "s2", SourceName: "Mirror Site",
		SourceType: domain.SourceTypeDomain, ContentType: domain.ContentTypeArticle,
		Language: "ru", PublishedAt: start.Add(2 * time.Hour),
		Community: 0,
	})
	g.AddEdge(&Edge{
		ID: "e1", Source: "c1", Target: "c2", Type: domain.EdgeTypeSimilar,
		Similarity: 0.87, MutationDetected: true,
		MutationDescription: "text drift: similarity 0.87, length 120 -> 131",
		TimeDeltaSeconds:    3600,
	})

	return g
}

func TestExportImport_RoundTrip(t *testing.T) {
	g := exportableGraph()
	ranking := RankInfluence(g)
	events := []CoordinatedEvent{{
		ContentIDs:    []string{"c1", "c2"},
		SourceIDs:     []string{"s1", "s2"},
		WindowStart:   g.WindowStart,
		WindowEnd:     g.WindowEnd,
		AvgSimilarity: 0.87,
	}}

	var buf bytes.Buffer
	if err := Export(&buf, g, ranking, events); err != nil {
		t.Fatalf("export: %v", err)
	}

	got, gotRanking, gotEvents, err := Import(&buf)
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if got.NodeCount() != g.NodeCount() || got.EdgeCount() != g.EdgeCount() {
		t.Fatalf("size mismatch: %d/%d nodes, %d/%d edges",
			got.NodeCount(), g.NodeCount(), got.EdgeCount(), g.EdgeCount())
	}

	for _, want := range g.Nodes() {
		node := got.Node(want.ID)
		if node == nil {
			t.Fatalf("node %s lost in round trip", want.ID)
		}
		if node.SourceID != want.SourceID || node.SourceName != want.SourceName {
			t.Errorf("node %s source attrs changed", want.ID)
		}
		if node.Community != want.Community {
			t.Errorf("node %s community %d, want %d", want.ID, node.Community, want.Community)
		}
		if node.IsDoppelganger != want.IsDoppelganger {
			t.Errorf("node %s doppelganger flag changed", want.ID)
		}
		if (node.SentimentScore == nil) != (want.SentimentScore == nil) {
			t.Errorf("node %s sentiment presence changed", want.ID)
		} else if node.SentimentScore != nil && *node.SentimentScore != *want.SentimentScore {
			t.Errorf("node %s sentiment %f, want %f", want.ID, *node.SentimentScore, *want.SentimentScore)
		}
		if !node.PublishedAt.Equal(want.PublishedAt) {
			t.Errorf("node %s published_at changed", want.ID)
		}
	}

	wantEdge := g.Edges()[0]
	gotEdge := got.Edges()[0]
	if gotEdge.ID != wantEdge.ID || gotEdge.Source != wantEdge.Source || gotEdge.Target != wantEdge.Target {
		t.Error("edge identity changed in round trip")
	}
	if gotEdge.Similarity != wantEdge.Similarity || !gotEdge.MutationDetected {
		t.Error("edge attributes changed in round trip")
	}
	if gotEdge.MutationDescription != wantEdge.MutationDescription {
		t.Error("mutation description changed in round trip")
	}

	if gotRanking == nil || len(gotRanking.Scores) != len(ranking.Scores) {
		t.Error("influence ranking lost in round trip")
	}
	if len(gotEvents) != 1 || gotEvents[0].AvgSimilarity != 0.87 {
		t.Errorf("coordinated events lost in round trip: %+v", gotEvents)
	}
}

func TestImport_RejectsEdgeWithUnknownNode(t *testing.T) {
	doc := []byte(`{
		"generated_at": "2026-03-01T00:00:00Z",
		"window_start": "2026-03-01T00:00:00Z",
		"window_end": "2026-03-02T00:00:00Z",
		"nodes": [{"id": "c1", "source_id": "s1", "published_at": "2026-03-01T01:00:00Z", "community": 0}],
		"edges": [{"id": "e1", "source": "c1", "target": "ghost", "edge_type": "similar", "similarity": 0.9, "mutation_detected": false, "time_delta_seconds": 10}]
	}`)

	if _, _, _, err := Import(bytes.NewReader(doc)); err == nil {
		t.Error("expected error for edge referencing unknown node")
	}
}

func TestExport_SortedOutput(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	g := NewGraph(start, start.Add(time.Hour))
	// Insert out of order; export must sort
	addTestNode(g, "z", "s1", start)
	addTestNode(g, "a", "s2", start)
	addTestEdge(g, "e9", "z", "a", domain.EdgeTypeSimilar, 0.9, 1)
	addTestEdge(g, "e1", "a", "z", domain.EdgeTypeSimilar, 0.9, 1)

	var buf bytes.Buffer
	if err := Export(&buf, g, nil, nil); err != nil {
		t.Fatalf("export: %v", err)
	}

	var doc Document
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if doc.Nodes[0].ID != "a" || doc.Nodes[1].ID != "z" {
		t.Errorf("nodes not sorted by id: %s, %s", doc.Nodes[0].ID, doc.Nodes[1].ID)
	}
	if doc.Edges[0].ID != "e1" || doc.Edges[1].ID != "e9" {
		t.Errorf("edges not sorted by id: %s, %s", doc.Edges[0].ID, doc.Edges[1].ID)
	}
}
