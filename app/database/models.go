package database

import (
	"time"
)

// Event represents an event record in the catalog. The logical key is
// (source_platform, external_id); the database enforces it with a
// unique constraint.
type Event struct {
	ID             string // Database UUID
	Title          string
	Description    string
	ImageURL       string
	StartsAt       *time.Time
	VenueName      string
	OrganizerName  string
	PriceRange     string
	SourcePlatform string
	SourceURL      string
	ExternalID     string
	IsExternal     bool
	TicketingType  string
	Source         string
	Status         string
	ScrapedAt      time.Time
	CreatedAt      time.Time
}

// ScraperRun is one immutable audit row for a completed orchestrator
// run.
type ScraperRun struct {
	ID              string
	StartedAt       time.Time
	CompletedAt     time.Time
	TotalEvents     int
	EventsInserted  int
	EventsUpdated   int
	Success         bool
	PlatformDetails []byte // serialized per-platform results
	ErrorMessage    string
	CreatedAt       time.Time
}

// PlatformStats summarizes the stored catalog per source platform.
type PlatformStats struct {
	Platform      string
	EventCount    int
	LastScrapedAt *time.Time
}
