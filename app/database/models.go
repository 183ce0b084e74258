package database

import (
	"time"
)

// SavedContent is one enriched bookmark. Immutable after insert except via
// an explicit update or AI regeneration.
type SavedContent struct {
	ID         int64     `json:"id"`
	URL        string    `json:"url"`
	Platform   string    `json:"platform"`
	Title      string    `json:"title"`
	Caption    string    `json:"caption"`
	ImageURL   string    `json:"image_url"`
	Category   string    `json:"category"`
	Summary    string    `json:"summary"`
	Tags       []string  `json:"tags"` // stored comma-joined
	UserPhone  string    `json:"user_phone"`
	Collection string    `json:"collection"`
	CreatedAt  time.Time `json:"created_at"`
}

// Collection is a named grouping with an independent lifecycle.
type Collection struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats aggregates save counts for the dashboard and digests.
type Stats struct {
	Total       int            `json:"total"`
	ByPlatform  map[string]int `json:"by_platform"`
	ByCategory  map[string]int `json:"by_category"`
	RecentWeek  int            `json:"recent_week"`
	UniqueUsers int            `json:"unique_users"`
}
