package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/signalwatch/propagraph/internal/domain"
)

// Memory is an in-process Store with the same semantics as Postgres,
// including the compare-and-set commit and ordered-pair edge uniqueness.
// Used by tests and local runs.
type Memory struct {
	mu       sync.Mutex
	sources  map[string]*domain.Source
	contents map[string]*domain.Content
	edges    map[string]*domain.PropagationEdge
	edgePair map[string]struct{} // "src|dst"
	analyses map[string]*domain.Analysis        // keyed by content id
	markers  map[string][]*domain.CognitiveMarker // keyed by content id
	runs     []*domain.RunSummary
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		sources:  make(map[string]*domain.Source),
		contents: make(map[string]*domain.Content),
		edges:    make(map[string]*domain.PropagationEdge),
		edgePair: make(map[string]struct{}),
		analyses: make(map[string]*domain.Analysis),
		markers:  make(map[string][]*domain.CognitiveMarker),
	}
}

func pairKey(src, dst string) string {
	return src + "|" + dst
}

func (m *Memory) UpsertSource(_ context.Context, src *domain.Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if existing, ok := m.sources[src.ID]; ok {
		src.CreatedAt = existing.CreatedAt
	} else {
		src.CreatedAt = now
	}
	src.UpdatedAt = now

	cp := *src
	m.sources[src.ID] = &cp
	return nil
}

func (m *Memory) GetSource(_ context.Context, id string) (*domain.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	src, ok := m.sources[id]
	if !ok {
		return nil, fmt.Errorf("source %s: %w", id, domain.ErrNotFound)
	}
	cp := *src
	return &cp, nil
}

func (m *Memory) ListSources(_ context.Context) ([]*domain.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*domain.Source, 0, len(m.sources))
	for _, src := range m.sources {
		cp := *src
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) InsertContent(_ context.Context, c *domain.Content) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.contents[c.ID]; ok {
		return fmt.Errorf("insert content: duplicate id %s", c.ID)
	}

	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	cp := *c
	m.contents[c.ID] = &cp
	return nil
}

func (m *Memory) GetContent(_ context.Context, id string) (*domain.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.contents[id]
	if !ok {
		return nil, fmt.Errorf("content %s: %w", id, domain.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (m *Memory) FindByFingerprint(_ context.Context, fingerprint string) ([]*domain.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Content
	for _, c := range m.contents {
		if c.Fingerprint == fingerprint {
			cp := *c
			out = append(out, &cp)
		}
	}
	sortContents(out)
	return out, nil
}

func (m *Memory) FindByExternalID(_ context.Context, externalID string) ([]*domain.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Content
	for _, c := range m.contents {
		if c.ExternalID != "" && c.ExternalID == externalID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sortContents(out)
	return out, nil
}

func (m *Memory) ListClaimable(_ context.Context, limit int) ([]*domain.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Content
	for _, c := range m.contents {
		if c.State.Claimable() {
			cp := *c
			out = append(out, &cp)
		}
	}
	sortContents(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) CommitAnalysis(
	_ context.Context,
	contentID string,
	fromState domain.AnalysisState,
	a *domain.Analysis,
	markers []*domain.CognitiveMarker,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.contents[contentID]
	if !ok {
		return fmt.Errorf("content %s: %w", contentID, domain.ErrNotFound)
	}
	if c.State != fromState {
		return domain.ErrClaimLost
	}

	c.State = domain.StateAnalyzed
	c.UpdatedAt = time.Now()

	cpA := *a
	m.analyses[contentID] = &cpA

	ms := make([]*domain.CognitiveMarker, 0, len(markers))
	for _, marker := range markers {
		cp := *marker
		ms = append(ms, &cp)
	}
	m.markers[contentID] = ms

	return nil
}

func (m *Memory) MarkStale(_ context.Context, currentVersion string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var flipped int64
	for id, c := range m.contents {
		if c.State != domain.StateAnalyzed {
			continue
		}
		a, ok := m.analyses[id]
		if ok && a.PipelineVersion != currentVersion {
			c.State = domain.StateStale
			c.UpdatedAt = time.Now()
			flipped++
		}
	}
	return flipped, nil
}

func (m *Memory) ListAnalyzedWindow(_ context.Context, start, end time.Time) ([]*domain.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Content
	for _, c := range m.contents {
		if c.State == domain.StateAnalyzed && inWindow(c.PublishedAt, start, end) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sortContents(out)
	return out, nil
}

func (m *Memory) InsertEdge(_ context.Context, e *domain.PropagationEdge) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := pairKey(e.SourceContentID, e.TargetContentID)
	if _, ok := m.edgePair[key]; ok {
		return domain.ErrDuplicateEdge
	}
	if _, ok := m.contents[e.SourceContentID]; !ok {
		return fmt.Errorf("edge source %s: %w", e.SourceContentID, domain.ErrNotFound)
	}
	if _, ok := m.contents[e.TargetContentID]; !ok {
		return fmt.Errorf("edge target %s: %w", e.TargetContentID, domain.ErrNotFound)
	}

	e.CreatedAt = time.Now()
	cp := *e
	m.edges[e.ID] = &cp
	m.edgePair[key] = struct{}{}
	return nil
}

func (m *Memory) ListEdgesWindow(_ context.Context, start, end time.Time) ([]*domain.PropagationEdge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.edgesWindowLocked(start, end), nil
}

func (m *Memory) edgesWindowLocked(start, end time.Time) []*domain.PropagationEdge {
	var out []*domain.PropagationEdge
	for _, e := range m.edges {
		target, ok := m.contents[e.TargetContentID]
		if ok && inWindow(target.PublishedAt, start, end) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) GetAnalysis(_ context.Context, contentID string) (*domain.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.analyses[contentID]
	if !ok {
		return nil, fmt.Errorf("analysis for content %s: %w", contentID, domain.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (m *Memory) ListMarkers(_ context.Context, contentID string) ([]*domain.CognitiveMarker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	markers := m.markers[contentID]
	out := make([]*domain.CognitiveMarker, 0, len(markers))
	for _, marker := range markers {
		cp := *marker
		out = append(out, &cp)
	}
	return out, nil
}

func (m *Memory) CreateRun(_ context.Context, run *domain.RunSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *run
	m.runs = append(m.runs, &cp)
	return nil
}

func (m *Memory) FinishRun(_ context.Context, run *domain.RunSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, r := range m.runs {
		if r.ID == run.ID {
			cp := *run
			m.runs[i] = &cp
			return nil
		}
	}
	return fmt.Errorf("run %s: %w", run.ID, domain.ErrNotFound)
}

func (m *Memory) ListRuns(_ context.Context, limit int) ([]*domain.RunSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*domain.RunSummary, 0, len(m.runs))
	for _, r := range m.runs {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) SnapshotWindow(_ context.Context, start, end time.Time) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var nodes []*NodeRecord
	for _, c := range m.contents {
		if !inWindow(c.PublishedAt, start, end) {
			continue
		}
		node := &NodeRecord{
			ContentID:   c.ID,
			SourceID:    c.SourceID,
			ContentType: c.ContentType,
			Language:    c.Language,
			PublishedAt: c.PublishedAt,
		}
		if src, ok := m.sources[c.SourceID]; ok {
			node.SourceName = src.Name
			node.SourceType = src.Type
			node.IsDoppelganger = src.IsDoppelganger
			node.IsAmplifier = src.IsAmplifier
			node.IsFactchecker = src.IsFactchecker
		}
		if a, ok := m.analyses[c.ID]; ok {
			score := a.SentimentScore
			prop := a.IsPropaganda
			node.SentimentScore = &score
			node.IsPropaganda = &prop
		}
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].PublishedAt.Equal(nodes[j].PublishedAt) {
			return nodes[i].ContentID < nodes[j].ContentID
		}
		return nodes[i].PublishedAt.Before(nodes[j].PublishedAt)
	})

	return &Snapshot{
		Start: start,
		End:   end,
		Nodes: nodes,
		Edges: m.edgesWindowLocked(start, end),
	}, nil
}

func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

func sortContents(out []*domain.Content) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].PublishedAt.Equal(out[j].PublishedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].PublishedAt.Before(out[j].PublishedAt)
	})
}
