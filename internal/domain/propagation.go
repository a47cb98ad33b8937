package domain

import "time"

// EdgeType categorizes how a target item relates to its source item.
type EdgeType string

const (
	EdgeTypeForward EdgeType = "forward"
	EdgeTypeQuote   EdgeType = "quote"
	EdgeTypeRepost  EdgeType = "repost"
	EdgeTypeMention EdgeType = "mention"
	EdgeTypeLink    EdgeType = "link"
	EdgeTypeSimilar EdgeType = "similar"
)

// PropagationEdge is a directed assertion that the target content derives
// from, quotes, or closely resembles the earlier source content.
//
// Invariants: unique per ordered (source, target) pair; the source content's
// published time is <= the target's (ties resolved by lexicographically
// smaller id as source); never a self-loop. Immutable once created.
type PropagationEdge struct {
	ID              string   `json:"id" db:"id"`
	SourceContentID string   `json:"source_content_id" db:"source_content_id"`
	TargetContentID string   `json:"target_content_id" db:"target_content_id"`
	Type            EdgeType `json:"edge_type" db:"edge_type"`
	// Similarity is in [0,1]; 1.0 for identical fingerprints.
	Similarity          float64   `json:"similarity" db:"similarity"`
	MutationDetected    bool      `json:"mutation_detected" db:"mutation_detected"`
	MutationDescription string    `json:"mutation_description,omitempty" db:"mutation_description"`
	TimeDeltaSeconds    int64     `json:"time_delta_seconds" db:"time_delta_seconds"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}
