package graph

import "sort"

// DetectCommunities partitions the graph's nodes by greedy modularity
// maximization. The directed multigraph is collapsed to a weighted
// undirected simple graph (weight = summed similarity, or edge count when
// scores are absent); starting from singletons, the merge with the largest
// modularity gain is applied until no merge improves modularity. Ties are
// broken by the lexicographically smaller combined community id, where a
// community's id is its smallest member node id.
//
// The result maps every node to exactly one integer label: an exact
// partition. Labels are dense starting at zero, ordered by community id,
// and are not stable across independent runs over different windows.
func DetectCommunities(g *Graph) map[string]int {
	nodeIDs := g.NodeIDs()
	if len(nodeIDs) == 0 {
		return map[string]int{}
	}

	// Collapse multi-edges to undirected weights
	type pair struct{ a, b string }
	weights := make(map[pair]float64)
	degree := make(map[string]float64)
	var totalWeight float64

	for _, e := range g.Edges() {
		if e.Source == e.Target {
			continue
		}
		a, b := e.Source, e.Target
		if b < a {
			a, b = b, a
		}
		w := edgeWeight(e)
		weights[pair{a, b}] += w
		degree[e.Source] += w
		degree[e.Target] += w
		totalWeight += w
	}

	// community state: keyed by community id (smallest member node id)
	commOf := make(map[string]string, len(nodeIDs))
	members := make(map[string][]string, len(nodeIDs))
	commDegree := make(map[string]float64, len(nodeIDs))
	for _, id := range nodeIDs {
		commOf[id] = id
		members[id] = []string{id}
		commDegree[id] = degree[id]
	}

	// inter-community weights
	commEdges := make(map[string]map[string]float64)
	addCommEdge := func(a, b string, w float64) {
		if commEdges[a] == nil {
			commEdges[a] = make(map[string]float64)
		}
		if commEdges[b] == nil {
			commEdges[b] = make(map[string]float64)
		}
		commEdges[a][b] += w
		commEdges[b][a] += w
	}
	for p, w := range weights {
		addCommEdge(p.a, p.b, w)
	}

	// Greedy merge loop. With no edge weight there is nothing to gain and
	// every node stays a singleton.
	for totalWeight > 0 {
		bestGain := 0.0
		bestA, bestB := "", ""

		commIDs := make([]string, 0, len(members))
		for id := range members {
			commIDs = append(commIDs, id)
		}
		sort.Strings(commIDs)

		for _, a := range commIDs {
			neighbors := make([]string, 0, len(commEdges[a]))
			for b := range commEdges[a] {
				if b > a {
					neighbors = append(neighbors, b)
				}
			}
			sort.Strings(neighbors)

			for _, b := range neighbors {
				eAB := commEdges[a][b]
				gain := eAB/totalWeight -
					(commDegree[a]*commDegree[b])/(2*totalWeight*totalWeight)
				// Strict improvement; on equal gain the earlier (smaller)
				// combined id wins because iteration is sorted
				if gain > bestGain {
					bestGain = gain
					bestA, bestB = a, b
				}
			}
		}

		if bestA == "" {
			break
		}

		mergeCommunities(bestA, bestB, commOf, members, commDegree, commEdges)
	}

	// Dense labels ordered by community id
	finalIDs := make([]string, 0, len(members))
	for id := range members {
		finalIDs = append(finalIDs, id)
	}
	sort.Strings(finalIDs)

	labels := make(map[string]int, len(nodeIDs))
	for label, id := range finalIDs {
		for _, node := range members[id] {
			labels[node] = label
		}
	}

	return labels
}

// mergeCommunities folds community b into a (a < b by construction).
func mergeCommunities(
	a, b string,
	commOf map[string]string,
	members map[string][]string,
	commDegree map[string]float64,
	commEdges map[string]map[string]float64,
) {
	for _, node := range members[b] {
		commOf[node] = a
	}
	members[a] = append(members[a], members[b]...)
	delete(members, b)

	commDegree[a] += commDegree[b]
	delete(commDegree, b)

	for other, w := range commEdges[b] {
		if other == a {
			continue
		}
		commEdges[a][other] += w
		commEdges[other][a] += w
		delete(commEdges[other], b)
	}
	delete(commEdges[a], b)
	if m := commEdges[a]; len(m) == 0 {
		delete(commEdges, a)
	}
	delete(commEdges, b)
	for other := range commEdges {
		delete(commEdges[other], b)
	}
}

// ApplyCommunities writes detected labels onto the graph's nodes.
func ApplyCommunities(g *Graph, labels map[string]int) {
	for id, label := range labels {
		if n := g.Node(id); n != nil {
			n.Community = label
		}
	}
}
