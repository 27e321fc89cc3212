package database

import (
	"time"
)

type EventRepository interface {
	UpsertEvent(event Event) (bool, error)
	GetEventsOnDay(excludePlatform string, dayStart, dayEnd time.Time) ([]Event, error)
	GetEvents(limit, offset int) ([]Event, error)
	GetEventCount() (int, error)
	GetLatestScrapedAt() (*time.Time, error)
	GetPlatformStats() ([]PlatformStats, error)
}

type RunRepository interface {
	InsertRun(run ScraperRun) error
	GetRecentRuns(limit int) ([]ScraperRun, error)
}
