package domain

import "time"

// RunType identifies which pipeline phase a run executed.
type RunType string

const (
	RunTypeNLP     RunType = "nlp"
	RunTypeNetwork RunType = "network"
	RunTypeFull    RunType = "full"
)

// RunStatus tracks a run's lifecycle.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunSummary is the audit record persisted for every operational run.
type RunSummary struct {
	ID             string     `json:"id" db:"id"`
	Type           RunType    `json:"run_type" db:"run_type"`
	StartedAt      time.Time  `json:"started_at" db:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty" db:"finished_at"`
	Status         RunStatus  `json:"status" db:"status"`
	ItemsProcessed int        `json:"items_processed" db:"items_processed"`
	ItemsNew       int        `json:"items_new" db:"items_new"`
	ErrorsCount    int        `json:"errors_count" db:"errors_count"`
	ErrorMessages  []string   `json:"error_messages,omitempty" db:"-"`
}
