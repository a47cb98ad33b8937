package graph

import "sort"

// Superspreader score weights, applied to per-source aggregates.
const (
	degreeScoreWeight      = 0.4
	pagerankScoreWeight    = 0.4
	betweennessScoreWeight = 0.2
	pagerankScale          = 100
	betweennessScale       = 10
)

// PageRank parameters.
const (
	pagerankDamping    = 0.85
	pagerankIterations = 30
)

// SourceScore is one ranked source with its centrality breakdown.
type SourceScore struct {
	SourceID   string             `json:"source_id"`
	SourceName string             `json:"source_name,omitempty"`
	Score      float64            `json:"score"`
	Breakdown  map[string]float64 `json:"breakdown"`
}

// Ranking is the ordered influence list: descending score, ties broken by
// source id ascending.
type Ranking struct {
	Scores []SourceScore `json:"scores"`
}

// TopN returns the first n entries.
func (r *Ranking) TopN(n int) []SourceScore {
	if n > len(r.Scores) {
		n = len(r.Scores)
	}
	return r.Scores[:n]
}

// RankInfluence aggregates content-level centrality per source: weighted
// out-degree plus in-degree, PageRank, and betweenness, combined with the
// superspreader weighting. Ordering is deterministic.
func RankInfluence(g *Graph) *Ranking {
	nodeIDs := g.NodeIDs()
	if len(nodeIDs) == 0 {
		return &Ranking{Scores: []SourceScore{}}
	}

	pagerank := computePageRank(g, nodeIDs)
	betweenness := computeBetweenness(g, nodeIDs)

	type agg struct {
		name        string
		outDegree   float64
		inDegree    float64
		pagerank    float64
		betweenness float64
	}
	bySource := make(map[string]*agg)

	for _, id := range nodeIDs {
		node := g.Node(id)
		a, ok := bySource[node.SourceID]
		if !ok {
			a = &agg{name: node.SourceName}
			bySource[node.SourceID] = a
		}
		for _, e := range g.OutEdges(id) {
			a.outDegree += edgeWeight(e)
		}
		for _, e := range g.InEdges(id) {
			a.inDegree += edgeWeight(e)
		}
		a.pagerank += pagerank[id]
		a.betweenness += betweenness[id]
	}

	scores := make([]SourceScore, 0, len(bySource))
	for sourceID, a := range bySource {
		score := a.outDegree*degreeScoreWeight +
			a.pagerank*pagerankScale*pagerankScoreWeight +
			a.betweenness*betweennessScale*betweennessScoreWeight

		scores = append(scores, SourceScore{
			SourceID:   sourceID,
			SourceName: a.name,
			Score:      score,
			Breakdown: map[string]float64{
				"out_degree":  a.outDegree,
				"in_degree":   a.inDegree,
				"pagerank":    a.pagerank,
				"betweenness": a.betweenness,
			},
		})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].SourceID < scores[j].SourceID
	})

	return &Ranking{Scores: scores}
}

// computePageRank runs power iteration over the directed content graph.
func computePageRank(g *Graph, nodeIDs []string) map[string]float64 {
	n := len(nodeIDs)
	rank := make(map[string]float64, n)
	for _, id := range nodeIDs {
		rank[id] = 1.0 / float64(n)
	}

	outWeight := make(map[string]float64, n)
	for _, id := range nodeIDs {
		for _, e := range g.OutEdges(id) {
			outWeight[id] += edgeWeight(e)
		}
	}

	for iter := 0; iter < pagerankIterations; iter++ {
		next := make(map[string]float64, n)
		base := (1 - pagerankDamping) / float64(n)

		// Dangling mass is spread uniformly
		var dangling float64
		for _, id := range nodeIDs {
			if outWeight[id] == 0 {
				dangling += rank[id]
			}
		}
		base += pagerankDamping * dangling / float64(n)

		for _, id := range nodeIDs {
			next[id] = base
		}
		for _, id := range nodeIDs {
			if outWeight[id] == 0 {
				continue
			}
			share := pagerankDamping * rank[id] / outWeight[id]
			for _, e := range g.OutEdges(id) {
				next[e.Target] += share * edgeWeight(e)
			}
		}

		rank = next
	}

	return rank
}

// computeBetweenness runs Brandes' algorithm over the unweighted directed
// graph. Exact within a window; windows are bounded so this stays cheap.
func computeBetweenness(g *Graph, nodeIDs []string) map[string]float64 {
	betweenness := make(map[string]float64, len(nodeIDs))
	for _, id := range nodeIDs {
		betweenness[id] = 0
	}

	// Deduplicated adjacency: multi-edges count once for path purposes
	adjacency := make(map[string][]string, len(nodeIDs))
	for _, id := range nodeIDs {
		seen := make(map[string]bool)
		for _, e := range g.OutEdges(id) {
			if !seen[e.Target] {
				seen[e.Target] = true
				adjacency[id] = append(adjacency[id], e.Target)
			}
		}
		sort.Strings(adjacency[id])
	}

	for _, s := range nodeIDs {
		var stack []string
		preds := make(map[string][]string)
		sigma := map[string]float64{s: 1}
		dist := map[string]int{s: 0}
		queue := []string{s}

		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, w := range adjacency[v] {
				if _, visited := dist[w]; !visited {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					preds[w] = append(preds[w], v)
				}
			}
		}

		delta := make(map[string]float64)
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range preds[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != s {
				betweenness[w] += delta[w]
			}
		}
	}

	// Normalize to [0,1] by the possible pair count
	n := float64(len(nodeIDs))
	if n > 2 {
		scale := 1 / ((n - 1) * (n - 2))
		for id := range betweenness {
			betweenness[id] *= scale
		}
	}

	return betweenness
}
