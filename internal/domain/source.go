// Package domain defines the core types shared across the propagation pipeline.
package domain

import "time"

// SourceType categorizes where content originates.
type SourceType string

const (
	SourceTypeTelegram  SourceType = "telegram"
	SourceTypeDomain    SourceType = "domain"
	SourceTypeMedia     SourceType = "media"
	SourceTypeFactcheck SourceType = "factcheck"
	SourceTypeSocial    SourceType = "social"
)

// Source represents a monitored publisher (channel, site, account).
// Sources are created and updated by the external collector; the pipeline
// reads them and joins their attributes into graph nodes.
type Source struct {
	ID       string     `json:"id" db:"id"`
	Name     string     `json:"name" db:"name"`
	Type     SourceType `json:"source_type" db:"source_type"`
	Platform string     `json:"platform,omitempty" db:"platform"`
	URL      string     `json:"url,omitempty" db:"url"`
	Language string     `json:"language,omitempty" db:"language"`

	// Attribution flags, set by downstream tooling
	IsDoppelganger bool `json:"is_doppelganger" db:"is_doppelganger"`
	IsAmplifier    bool `json:"is_amplifier" db:"is_amplifier"`
	IsFactchecker  bool `json:"is_factchecker" db:"is_factchecker"`
	IsActive       bool `json:"is_active" db:"is_active"`

	FirstSeenAt     time.Time  `json:"first_seen_at" db:"first_seen_at"`
	LastCollectedAt *time.Time `json:"last_collected_at,omitempty" db:"last_collected_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}
