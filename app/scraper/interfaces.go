package scraper

import (
	"context"

	"github.com/vibetix/event-scraper/app/config"
	"github.com/vibetix/event-scraper/app/extract"
)

// Extractor is the slice of the extraction client the orchestrator
// needs.
type Extractor interface {
	Configured() bool
	ExtractPlatformEvents(ctx context.Context, platform config.Platform, maxRetries int) ([]extract.RawEvent, error)
}
