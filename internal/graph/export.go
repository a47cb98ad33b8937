package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"
)

// Document is the portable node/edge interchange format consumed by the
// dashboard. Nodes and edges carry every graph attribute; re-parsing an
// export recovers the identical node set, edge set, and attribute values.
type Document struct {
	GeneratedAt time.Time          `json:"generated_at"`
	WindowStart time.Time          `json:"window_start"`
	WindowEnd   time.Time          `json:"window_end"`
	Nodes       []*Node            `json:"nodes"`
	Edges       []*Edge            `json:"edges"`
	Influence   []SourceScore      `json:"influence,omitempty"`
	Events      []CoordinatedEvent `json:"coordinated_events,omitempty"`
}

// Export writes the graph and its derived analyses as JSON. Output ordering
// is deterministic (sorted node ids, edge ids) so exports are diffable.
func Export(w io.Writer, g *Graph, ranking *Ranking, events []CoordinatedEvent) error {
	doc := Document{
		GeneratedAt: time.Now().UTC(),
		WindowStart: g.WindowStart,
		WindowEnd:   g.WindowEnd,
		Nodes:       g.Nodes(),
		Edges:       sortedEdges(g.Edges()),
		Events:      events,
	}
	if ranking != nil {
		doc.Influence = ranking.Scores
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encode graph export: %w", err)
	}
	return nil
}

// Import re-parses an exported document back into a graph plus its derived
// analyses.
func Import(r io.Reader) (*Graph, *Ranking, []CoordinatedEvent, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, nil, fmt.Errorf("decode graph export: %w", err)
	}

	g := NewGraph(doc.WindowStart, doc.WindowEnd)
	for _, n := range doc.Nodes {
		g.AddNode(n)
	}
	for _, e := range doc.Edges {
		if !g.AddEdge(e) {
			return nil, nil, nil, fmt.Errorf("edge %s references unknown node", e.ID)
		}
	}

	var ranking *Ranking
	if doc.Influence != nil {
		ranking = &Ranking{Scores: doc.Influence}
	}

	return g, ranking, doc.Events, nil
}

func sortedEdges(edges []*Edge) []*Edge {
	out := make([]*Edge, len(edges))
	copy(out, edges)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
