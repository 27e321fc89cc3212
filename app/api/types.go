package api

import (
	"context"

	"github.com/vibetix/event-scraper/app/database"
	"github.com/vibetix/event-scraper/app/scheduler"
	"github.com/vibetix/event-scraper/app/scraper"
)

// ScraperService is the slice of the orchestrator the API exposes.
type ScraperService interface {
	Run(ctx context.Context, platformIDs []string) (*scraper.RunResult, error)
	Status() (*scraper.Status, error)
	RecentRuns(limit int) ([]database.ScraperRun, error)
}

// Handler holds the dependencies for all HTTP handlers. The scheduler
// reference is nil when the standing scheduler is disabled.
type Handler struct {
	scraperService ScraperService
	scheduler      *scheduler.Scheduler
	eventRepo      database.EventRepository
	version        string
}

type runRequest struct {
	Platforms []string `json:"platforms"`
}
