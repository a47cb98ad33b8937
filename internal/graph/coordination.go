package graph

import (
	"sort"
	"time"

	"github.com/signalwatch/propagraph/internal/domain"
)

// CoordinationConfig controls the coordinated-behavior detector.
type CoordinationConfig struct {
	// MinSimilarity filters which similar edges count as coordination
	// evidence.
	MinSimilarity float64
	// Window is the maximum publish-time gap between directly linked items.
	Window time.Duration
	// MinSources is the minimum distinct sources per event.
	MinSources int
}

// CoordinatedEvent is one detected burst of near-simultaneous near-duplicate
// postings across distinct sources.
type CoordinatedEvent struct {
	ContentIDs    []string  `json:"content_ids"`
	SourceIDs     []string  `json:"source_ids"`
	WindowStart   time.Time `json:"window_start"`
	WindowEnd     time.Time `json:"window_end"`
	AvgSimilarity float64   `json:"avg_similarity"`
}

// DetectCoordination scans similar-typed edges at or above the similarity
// threshold whose endpoints published within the window of each other, and
// groups them into connected components. Components spanning at least
// MinSources distinct sources become events. An item farther than the
// window from every member of a cluster is never pulled into it; it may
// seed its own.
func DetectCoordination(g *Graph, cfg CoordinationConfig) []CoordinatedEvent {
	type qualifying struct {
		edge *Edge
	}

	parent := make(map[string]string)
	var find func(string) string
	find = func(x string) string {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra != rb {
			if rb < ra {
				ra, rb = rb, ra
			}
			parent[rb] = ra
		}
	}

	var evidence []qualifying
	maxDelta := int64(cfg.Window.Seconds())

	for _, e := range g.Edges() {
		if e.Type != domain.EdgeTypeSimilar {
			continue
		}
		if e.Similarity < cfg.MinSimilarity {
			continue
		}
		delta := e.TimeDeltaSeconds
		if delta < 0 {
			delta = -delta
		}
		if delta > maxDelta {
			continue
		}

		if _, ok := parent[e.Source]; !ok {
			parent[e.Source] = e.Source
		}
		if _, ok := parent[e.Target]; !ok {
			parent[e.Target] = e.Target
		}
		union(e.Source, e.Target)
		evidence = append(evidence, qualifying{edge: e})
	}

	componentMembers := make(map[string]map[string]bool)
	for node := range parent {
		root := find(node)
		if componentMembers[root] == nil {
			componentMembers[root] = make(map[string]bool)
		}
		componentMembers[root][node] = true
	}

	componentSimilarity := make(map[string][]float64)
	for _, q := range evidence {
		root := find(q.edge.Source)
		componentSimilarity[root] = append(componentSimilarity[root], q.edge.Similarity)
	}

	roots := make([]string, 0, len(componentMembers))
	for root := range componentMembers {
		roots = append(roots, root)
	}
	sort.Strings(roots)

	var events []CoordinatedEvent
	for _, root := range roots {
		membersSet := componentMembers[root]

		sources := make(map[string]bool)
		var contentIDs []string
		var windowStart, windowEnd time.Time

		for member := range membersSet {
			node := g.Node(member)
			if node == nil {
				continue
			}
			contentIDs = append(contentIDs, member)
			sources[node.SourceID] = true
			if windowStart.IsZero() || node.PublishedAt.Before(windowStart) {
				windowStart = node.PublishedAt
			}
			if node.PublishedAt.After(windowEnd) {
				windowEnd = node.PublishedAt
			}
		}

		if len(sources) < cfg.MinSources {
			continue
		}

		sort.Strings(contentIDs)
		sourceIDs := make([]string, 0, len(sources))
		for id := range sources {
			sourceIDs = append(sourceIDs, id)
		}
		sort.Strings(sourceIDs)

		sims := componentSimilarity[root]
		var avg float64
		for _, s := range sims {
			avg += s
		}
		if len(sims) > 0 {
			avg /= float64(len(sims))
		}

		events = append(events, CoordinatedEvent{
			ContentIDs:    contentIDs,
			SourceIDs:     sourceIDs,
			WindowStart:   windowStart,
			WindowEnd:     windowEnd,
			AvgSimilarity: avg,
		})
	}

	return events
}
