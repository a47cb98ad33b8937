package domain

import "time"

// ContentType categorizes a content item.
type ContentType string

const (
	ContentTypeArticle ContentType = "article"
	ContentTypePost    ContentType = "post"
	ContentTypeMessage ContentType = "message"
	ContentTypeForward ContentType = "forward"
	ContentTypeComment ContentType = "comment"
)

// AnalysisState tracks where a content item sits in the enrichment pipeline.
type AnalysisState string

const (
	// StatePending means the item has never been analyzed.
	StatePending AnalysisState = "pending"
	// StateAnalyzed means an Analysis row exists at the current pipeline version.
	StateAnalyzed AnalysisState = "analyzed"
	// StateStale means the item was analyzed under an older pipeline version
	// and is claimable again, exactly like pending.
	StateStale AnalysisState = "stale"
)

// Claimable reports whether the scheduler may pick this state up.
func (s AnalysisState) Claimable() bool {
	return s == StatePending || s == StateStale
}

// Content is a single ingested item. Created once by ingestion (post-dedup);
// only the scheduler mutates it afterward, and only the analysis state.
// Never deleted.
type Content struct {
	ID          string      `json:"id" db:"id"`
	SourceID    string      `json:"source_id" db:"source_id"`
	ExternalID  string      `json:"external_id,omitempty" db:"external_id"`
	ContentType ContentType `json:"content_type" db:"content_type"`
	Title       string      `json:"title,omitempty" db:"title"`
	Text        string      `json:"text" db:"text"`
	// Fingerprint is the hex sha256 of the normalized text, used for dedup.
	Fingerprint string `json:"fingerprint" db:"fingerprint"`
	HasMedia    bool   `json:"has_media" db:"has_media"`
	URL         string `json:"url,omitempty" db:"url"`
	Author      string `json:"author,omitempty" db:"author"`
	Language    string `json:"language,omitempty" db:"language"`

	// RefExternalID carries the collector-reported external id of the item
	// this one forwards or quotes, when the platform exposes that.
	RefExternalID string   `json:"ref_external_id,omitempty" db:"ref_external_id"`
	RefType       EdgeType `json:"ref_type,omitempty" db:"ref_type"`

	// Engagement counters as last reported by the collector
	Views     int64 `json:"views" db:"views"`
	Shares    int64 `json:"shares" db:"shares"`
	Comments  int64 `json:"comments" db:"comments"`
	Reactions int64 `json:"reactions" db:"reactions"`

	PublishedAt time.Time     `json:"published_at" db:"published_at"`
	CollectedAt time.Time     `json:"collected_at" db:"collected_at"`
	State       AnalysisState `json:"analysis_state" db:"analysis_state"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}
