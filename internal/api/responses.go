package api

import (
	"time"

	"github.com/signalwatch/propagraph/internal/analysis"
	"github.com/signalwatch/propagraph/internal/domain"
	"github.com/signalwatch/propagraph/internal/ingest"
	"github.com/signalwatch/propagraph/internal/scheduler"
)

// AnalyzeScope selects which pipeline phases a triggered run executes.
type AnalyzeScope string

const (
	ScopeNLP     AnalyzeScope = "nlp"
	ScopeNetwork AnalyzeScope = "network"
	ScopeFull    AnalyzeScope = "full"
)

// IngestRequest is one candidate content item from a collector.
type IngestRequest struct {
	SourceID    string `json:"source_id" binding:"required"`
	ExternalID  string `json:"external_id"`
	ContentType string `json:"content_type"`
	Title       string `json:"title"`
	Text        string `json:"text" binding:"required"`
	URL         string `json:"url"`
	Author      string `json:"author"`
	Language    string `json:"language"`
	HasMedia    bool   `json:"has_media"`

	Views     int64 `json:"views"`
	Shares    int64 `json:"shares"`
	Comments  int64 `json:"comments"`
	Reactions int64 `json:"reactions"`

	PublishedAt time.Time `json:"published_at" binding:"required"`
	CollectedAt time.Time `json:"collected_at"`

	RefExternalID string `json:"ref_external_id"`
	RefType       string `json:"ref_type"`
}

func (r *IngestRequest) toCandidate() ingest.Candidate {
	return ingest.Candidate{
		SourceID:      r.SourceID,
		ExternalID:    r.ExternalID,
		ContentType:   domain.ContentType(r.ContentType),
		Title:         r.Title,
		Text:          r.Text,
		URL:           r.URL,
		Author:        r.Author,
		Language:      r.Language,
		HasMedia:      r.HasMedia,
		Views:         r.Views,
		Shares:        r.Shares,
		Comments:      r.Comments,
		Reactions:     r.Reactions,
		PublishedAt:   r.PublishedAt,
		CollectedAt:   r.CollectedAt,
		RefExternalID: r.RefExternalID,
		RefType:       domain.EdgeType(r.RefType),
	}
}

// IngestResponse reports what the gate did with one candidate.
type IngestResponse struct {
	ContentID string   `json:"content_id,omitempty"`
	Duplicate bool     `json:"duplicate"`
	SimilarTo []string `json:"similar_to,omitempty"`
	Error     string   `json:"error,omitempty"`
}

func toIngestResponse(result *ingest.Result) IngestResponse {
	return IngestResponse{
		ContentID: result.Content.ID,
		Duplicate: result.Duplicate,
		SimilarTo: result.SimilarTo,
	}
}

// BatchIngestRequest carries up to maxBatchSize candidates.
type BatchIngestRequest struct {
	Items []IngestRequest `json:"items" binding:"required,min=1,max=100"`
}

// BatchIngestResponse summarizes a batch ingest.
type BatchIngestResponse struct {
	Results    []IngestResponse `json:"results"`
	Total      int              `json:"total"`
	Accepted   int              `json:"accepted"`
	Duplicates int              `json:"duplicates"`
	Failed     int              `json:"failed"`
}

// AnalysisResponse is the enrichment readback for one content item.
type AnalysisResponse struct {
	Analysis *domain.Analysis          `json:"analysis"`
	Markers  []*domain.CognitiveMarker `json:"markers"`
}

// SourcesResponse lists monitored sources.
type SourcesResponse struct {
	Sources []*domain.Source `json:"sources"`
	Total   int              `json:"total"`
}

// RunsResponse lists recent run audit records.
type RunsResponse struct {
	Runs  []*domain.RunSummary `json:"runs"`
	Total int                  `json:"total"`
}

// AnalyzeRequest triggers a pipeline run.
type AnalyzeRequest struct {
	// Scope: "nlp", "network", or "full" (default).
	Scope string `json:"scope"`
	// Limit caps items per NLP batch; 0 uses the configured batch size.
	Limit int `json:"limit"`
	// Days overrides the network lookback window; 0 uses the configured value.
	Days int `json:"days"`
}

func (r *AnalyzeRequest) scope() AnalyzeScope {
	switch AnalyzeScope(r.Scope) {
	case ScopeNLP, ScopeNetwork:
		return AnalyzeScope(r.Scope)
	default:
		return ScopeFull
	}
}

// NLPReport summarizes the NLP phase of a triggered run.
type NLPReport struct {
	Claimed      int      `json:"claimed"`
	Committed    int      `json:"committed"`
	Skipped      int      `json:"skipped"`
	Failed       int      `json:"failed"`
	EdgesCreated int      `json:"edges_created"`
	Errors       []string `json:"errors,omitempty"`
}

func toNLPReport(report *scheduler.BatchReport) *NLPReport {
	if report == nil {
		return nil
	}
	return &NLPReport{
		Claimed:      report.Claimed,
		Committed:    report.Committed,
		Skipped:      report.Skipped,
		Failed:       report.Failed,
		EdgesCreated: report.EdgesCreated,
		Errors:       report.Errors,
	}
}

// NetworkReport summarizes the network phase of a triggered run.
type NetworkReport struct {
	WindowStart     time.Time `json:"window_start"`
	WindowEnd       time.Time `json:"window_end"`
	Nodes           int       `json:"nodes"`
	Edges           int       `json:"edges"`
	EdgesBackfilled int       `json:"edges_backfilled"`
	Communities     int       `json:"communities"`
	Events          int       `json:"coordinated_events"`
	ExportPath      string    `json:"export_path,omitempty"`
}

func toNetworkReport(report *analysis.NetworkReport) *NetworkReport {
	if report == nil {
		return nil
	}
	return &NetworkReport{
		WindowStart:     report.WindowStart,
		WindowEnd:       report.WindowEnd,
		Nodes:           report.Nodes,
		Edges:           report.Edges,
		EdgesBackfilled: report.EdgesBackfilled,
		Communities:     report.Communities,
		Events:          len(report.Events),
		ExportPath:      report.ExportPath,
	}
}

// AnalyzeResponse reports a triggered run's outcome.
type AnalyzeResponse struct {
	Scope   AnalyzeScope   `json:"scope"`
	NLP     *NLPReport     `json:"nlp,omitempty"`
	Network *NetworkReport `json:"network,omitempty"`
	Error   string         `json:"error,omitempty"`
}
