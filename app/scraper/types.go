package scraper

import "time"

// PlatformResult is the outcome of scraping one platform within a run.
type PlatformResult struct {
	Platform          string        `json:"platform"`
	EventsFound       int           `json:"events_found"`
	EventsInserted    int           `json:"events_inserted"`
	EventsUpdated     int           `json:"events_updated"`
	DuplicatesSkipped int           `json:"duplicates_skipped"`
	Success           bool          `json:"success"`
	Errors            []string      `json:"errors,omitempty"`
	Duration          time.Duration `json:"duration"`
}

// RunResult aggregates every platform's result for one orchestrator
// invocation. Success is the AND of all platform successes.
type RunResult struct {
	ID             string           `json:"id"`
	StartedAt      time.Time        `json:"started_at"`
	CompletedAt    time.Time        `json:"completed_at"`
	TotalEvents    int              `json:"total_events"`
	EventsInserted int              `json:"events_inserted"`
	EventsUpdated  int              `json:"events_updated"`
	Success        bool             `json:"success"`
	Platforms      []PlatformResult `json:"platforms"`
}

// PlatformStatus is one platform's view in the status report.
type PlatformStatus struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	EventCount    int        `json:"event_count"`
	LastScrapedAt *time.Time `json:"last_scraped_at,omitempty"`
}

// Status is the read-only scraper status used by the scheduler's
// catch-up logic and the status endpoint.
type Status struct {
	Configured    bool             `json:"configured"`
	IsRunning     bool             `json:"is_running"`
	LastScrapedAt *time.Time       `json:"last_scraped_at,omitempty"`
	Platforms     []PlatformStatus `json:"platforms"`
}
