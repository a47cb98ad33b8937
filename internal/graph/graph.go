// Package graph builds the in-memory propagation graph and runs the
// analyses over it: community detection, influence ranking, coordination
// detection, and export.
package graph

import (
	"sort"
	"time"

	"github.com/signalwatch/propagraph/internal/domain"
	"github.com/signalwatch/propagraph/internal/logging"
	"github.com/signalwatch/propagraph/internal/store"
)

// Node is one content item with its joined source attributes and analysis
// summary.
type Node struct {
	ID          string             `json:"id"`
	SourceID    string             `json:"source_id"`
	SourceName  string             `json:"source_name,omitempty"`
	SourceType  domain.SourceType  `json:"source_type,omitempty"`
	ContentType domain.ContentType `json:"content_type,omitempty"`
	Language    string             `json:"language,omitempty"`
	PublishedAt time.Time          `json:"published_at"`

	IsDoppelganger bool `json:"is_doppelganger"`
	IsAmplifier    bool `json:"is_amplifier"`
	IsFactchecker  bool `json:"is_factchecker"`

	SentimentScore *float64 `json:"sentiment_score,omitempty"`
	IsPropaganda   *bool    `json:"is_propaganda,omitempty"`

	// Community is the detected community label; -1 before detection.
	Community int `json:"community"`
}

// Edge is one directed propagation edge inside the graph.
type Edge struct {
	ID                  string          `json:"id"`
	Source              string          `json:"source"`
	Target              string          `json:"target"`
	Type                domain.EdgeType `json:"edge_type"`
	Similarity          float64         `json:"similarity"`
	MutationDetected    bool            `json:"mutation_detected"`
	MutationDescription string          `json:"mutation_description,omitempty"`
	TimeDeltaSeconds    int64           `json:"time_delta_seconds"`
}

// Graph is a directed multigraph over content nodes.
type Graph struct {
	WindowStart time.Time
	WindowEnd   time.Time

	nodes map[string]*Node
	edges []*Edge
	out   map[string][]*Edge
	in    map[string][]*Edge
}

// NewGraph creates an empty graph for a window.
func NewGraph(start, end time.Time) *Graph {
	return &Graph{
		WindowStart: start,
		WindowEnd:   end,
		nodes:       make(map[string]*Node),
		out:         make(map[string][]*Edge),
		in:          make(map[string][]*Edge),
	}
}

// AddNode inserts or replaces a node.
func (g *Graph) AddNode(n *Node) {
	g.nodes[n.ID] = n
}

// AddEdge inserts an edge. Both endpoints must already be present; returns
// false when either is missing so callers can skip that edge alone.
func (g *Graph) AddEdge(e *Edge) bool {
	if _, ok := g.nodes[e.Source]; !ok {
		return false
	}
	if _, ok := g.nodes[e.Target]; !ok {
		return false
	}
	g.edges = append(g.edges, e)
	g.out[e.Source] = append(g.out[e.Source], e)
	g.in[e.Target] = append(g.in[e.Target], e)
	return true
}

// Node returns a node by id, nil when absent.
func (g *Graph) Node(id string) *Node {
	return g.nodes[id]
}

// Nodes returns all nodes sorted by id.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NodeIDs returns all node ids sorted.
func (g *Graph) NodeIDs() []string {
	out := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []*Edge {
	return g.edges
}

// OutEdges returns the edges leaving a node.
func (g *Graph) OutEdges(id string) []*Edge {
	return g.out[id]
}

// InEdges returns the edges entering a node.
func (g *Graph) InEdges(id string) []*Edge {
	return g.in[id]
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// edgeWeight values an edge by similarity, or 1 when no score is present.
func edgeWeight(e *Edge) float64 {
	if e.Similarity > 0 {
		return e.Similarity
	}
	return 1
}

// Build converts a store snapshot into a graph. Edges referencing content
// outside the node set are logged and skipped; the rest of the snapshot
// loads normally.
func Build(snap *store.Snapshot, logger logging.Logger) *Graph {
	g := NewGraph(snap.Start, snap.End)

	for _, rec := range snap.Nodes {
		g.AddNode(&Node{
			ID:             rec.ContentID,
			SourceID:       rec.SourceID,
			SourceName:     rec.SourceName,
			SourceType:     rec.SourceType,
			ContentType:    rec.ContentType,
			Language:       rec.Language,
			PublishedAt:    rec.PublishedAt,
			IsDoppelganger: rec.IsDoppelganger,
			IsAmplifier:    rec.IsAmplifier,
			IsFactchecker:  rec.IsFactchecker,
			SentimentScore: rec.SentimentScore,
			IsPropaganda:   rec.IsPropaganda,
			Community:      -1,
		})
	}

	skipped := 0
	for _, e := range snap.Edges {
		ok := g.AddEdge(&Edge{
			ID:                  e.ID,
			Source:              e.SourceContentID,
			Target:              e.TargetContentID,
			Type:                e.Type,
			Similarity:          e.Similarity,
			MutationDetected:    e.MutationDetected,
			MutationDescription: e.MutationDescription,
			TimeDeltaSeconds:    e.TimeDeltaSeconds,
		})
		if !ok {
			skipped++
		}
	}

	if skipped > 0 {
		logger.Warn("Skipped edges with endpoints outside the window",
			logging.Int("skipped", skipped),
		)
	}

	logger.Info("Graph built",
		logging.Int("nodes", g.NodeCount()),
		logging.Int("edges", g.EdgeCount()),
		logging.Time("window_start", snap.Start),
		logging.Time("window_end", snap.End),
	)

	return g
}
