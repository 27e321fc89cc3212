package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/vibetix/event-scraper/app/config"
	"github.com/vibetix/event-scraper/app/database"
	"github.com/vibetix/event-scraper/app/normalize"
)

var (
	// ErrRunInProgress is returned when a run is requested while
	// another is still executing. Runs never overlap; callers retry
	// later or report the conflict.
	ErrRunInProgress = errors.New("a scraper run is already in progress")

	// ErrNotConfigured is returned when no extraction service
	// credential is present. No scrape can be attempted without one.
	ErrNotConfigured = errors.New("extraction service is not configured")
)

const (
	defaultMaxRetries    = 3
	defaultPlatformDelay = 2 * time.Second
)

// Service drives one scrape run across the configured platforms:
// extract, normalize, dedup, upsert, audit. Platforms are processed
// strictly sequentially; the extraction service and the sites behind
// it are rate-limited.
type Service struct {
	registry       *config.Registry
	extractor      Extractor
	normalizer     *normalize.Normalizer
	eventRepo      database.EventRepository
	runRepo        database.RunRepository
	fuzzyThreshold float64
	maxRetries     int
	platformDelay  time.Duration
	running        atomic.Bool
}

func NewService(registry *config.Registry, extractor Extractor, normalizer *normalize.Normalizer,
	eventRepo database.EventRepository, runRepo database.RunRepository, fuzzyThreshold float64) *Service {
	return &Service{
		registry:       registry,
		extractor:      extractor,
		normalizer:     normalizer,
		eventRepo:      eventRepo,
		runRepo:        runRepo,
		fuzzyThreshold: fuzzyThreshold,
		maxRetries:     defaultMaxRetries,
		platformDelay:  defaultPlatformDelay,
	}
}

// Run executes one scrape across the given platform subset (empty
// means all). Only one run executes at a time; a second caller gets
// ErrRunInProgress instead of queueing.
func (s *Service) Run(ctx context.Context, platformIDs []string) (*RunResult, error) {
	platforms, err := s.registry.Select(platformIDs)
	if err != nil {
		return nil, err
	}

	if !s.extractor.Configured() {
		return nil, ErrNotConfigured
	}

	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer s.running.Store(false)

	result := &RunResult{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Success:   true,
	}

	slog.Info("Scraper run started", "run_id", result.ID, "platforms", len(platforms))

	for i, platform := range platforms {
		if i > 0 {
			if err := sleepCtx(ctx, s.platformDelay); err != nil {
				// Shutdown mid-run: the partial run still gets its
				// audit row.
				result.CompletedAt = time.Now().UTC()
				result.Success = false
				s.recordRun(result)
				return nil, err
			}
		}

		platformResult := s.scrapePlatform(ctx, platform)
		result.Platforms = append(result.Platforms, platformResult)
		result.TotalEvents += platformResult.EventsFound
		result.EventsInserted += platformResult.EventsInserted
		result.EventsUpdated += platformResult.EventsUpdated
		result.Success = result.Success && platformResult.Success
	}

	result.CompletedAt = time.Now().UTC()

	s.recordRun(result)

	slog.Info("Scraper run completed",
		"run_id", result.ID,
		"success", result.Success,
		"total", result.TotalEvents,
		"inserted", result.EventsInserted,
		"updated", result.EventsUpdated,
		"duration", result.CompletedAt.Sub(result.StartedAt))

	return result, nil
}

// scrapePlatform runs extraction and ingestion for a single platform.
// A hard extraction failure marks this platform's result failed and
// the run moves on; it never aborts the other platforms.
func (s *Service) scrapePlatform(ctx context.Context, platform config.Platform) PlatformResult {
	start := time.Now()
	result := PlatformResult{Platform: platform.ID, Success: true}

	rawEvents, err := s.extractor.ExtractPlatformEvents(ctx, platform, s.maxRetries)
	if err != nil {
		slog.Error("Platform extraction failed", "platform", platform.ID, "error", err)
		result.Success = false
		result.Errors = append(result.Errors, err.Error())
		result.Duration = time.Since(start)
		return result
	}

	result.EventsFound = len(rawEvents)

	for _, raw := range rawEvents {
		event := s.normalizer.Run(platform.ID, platform.EventsURL(), raw)
		if event == nil {
			continue
		}

		outcome, err := s.ingestEvent(*event)
		if err != nil {
			slog.Error("Failed to store event", "platform", platform.ID, "title", event.Title, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", event.Title, err))
			continue
		}

		switch outcome {
		case outcomeInserted:
			result.EventsInserted++
		case outcomeUpdated:
			result.EventsUpdated++
		case outcomeSkippedDuplicate:
			result.DuplicatesSkipped++
		}
	}

	// Store errors count against the platform so the scheduler's
	// retry policy gets a chance to recover them.
	if len(result.Errors) > 0 {
		result.Success = false
	}

	result.Duration = time.Since(start)

	slog.Info("Platform scrape completed",
		"platform", platform.ID,
		"found", result.EventsFound,
		"inserted", result.EventsInserted,
		"updated", result.EventsUpdated,
		"duplicates_skipped", result.DuplicatesSkipped,
		"errors", len(result.Errors),
		"duration", result.Duration)

	return result
}

type ingestOutcome int

const (
	outcomeInserted ingestOutcome = iota
	outcomeUpdated
	outcomeSkippedDuplicate
)

// ingestEvent performs the cross-platform duplicate check, then the
// keyed upsert. A duplicate found on another platform leaves the
// existing record authoritative: neither insert nor update.
func (s *Service) ingestEvent(event normalize.Event) (ingestOutcome, error) {
	if event.StartsAt != nil {
		dayStart := startOfDay(*event.StartsAt)
		dayEnd := dayStart.AddDate(0, 0, 1)

		candidates, err := s.eventRepo.GetEventsOnDay(event.SourcePlatform, dayStart, dayEnd)
		if err != nil {
			// Dedup is best-effort; a failed lookup should not block
			// ingestion.
			slog.Warn("Cross-platform duplicate check failed", "platform", event.SourcePlatform, "error", err)
		} else {
			for _, candidate := range candidates {
				score := normalize.TitleSimilarity(event.Title, candidate.Title)
				if score >= s.fuzzyThreshold {
					slog.Debug("Skipping cross-platform duplicate",
						"platform", event.SourcePlatform,
						"title", event.Title,
						"existing_platform", candidate.SourcePlatform,
						"existing_title", candidate.Title,
						"similarity", score)
					return outcomeSkippedDuplicate, nil
				}
			}
		}
	}

	inserted, err := s.eventRepo.UpsertEvent(database.Event{
		Title:          event.Title,
		Description:    event.Description,
		ImageURL:       event.ImageURL,
		StartsAt:       event.StartsAt,
		VenueName:      event.VenueName,
		OrganizerName:  event.OrganizerName,
		PriceRange:     event.PriceRange,
		SourcePlatform: event.SourcePlatform,
		SourceURL:      event.SourceURL,
		ExternalID:     event.ExternalID,
		IsExternal:     event.IsExternal,
		TicketingType:  event.TicketingType,
		Source:         event.Source,
		Status:         event.Status,
	})
	if err != nil {
		return 0, err
	}

	if inserted {
		return outcomeInserted, nil
	}
	return outcomeUpdated, nil
}

// recordRun writes the audit row. Best-effort: a failed audit write is
// logged, never propagated.
func (s *Service) recordRun(result *RunResult) {
	details, err := json.Marshal(result.Platforms)
	if err != nil {
		slog.Error("Failed to serialize platform results", "run_id", result.ID, "error", err)
		details = []byte("[]")
	}

	run := database.ScraperRun{
		ID:              result.ID,
		StartedAt:       result.StartedAt,
		CompletedAt:     result.CompletedAt,
		TotalEvents:     result.TotalEvents,
		EventsInserted:  result.EventsInserted,
		EventsUpdated:   result.EventsUpdated,
		Success:         result.Success,
		PlatformDetails: details,
		ErrorMessage:    summarizeErrors(result),
	}

	if err := s.runRepo.InsertRun(run); err != nil {
		slog.Error("Failed to write scraper run audit record", "run_id", result.ID, "error", err)
	}
}

func summarizeErrors(result *RunResult) string {
	var failed []string
	for _, p := range result.Platforms {
		if !p.Success {
			failed = append(failed, p.Platform)
		}
	}
	if len(failed) == 0 {
		return ""
	}
	return fmt.Sprintf("%d/%d platforms failed: %s", len(failed), len(result.Platforms), strings.Join(failed, ", "))
}

// Status returns the read-only scraper status: configuration state,
// catalog freshness, and per-platform counts. Platforms with nothing
// stored yet still appear with a zero count.
func (s *Service) Status() (*Status, error) {
	status := &Status{
		Configured: s.extractor.Configured(),
		IsRunning:  s.running.Load(),
	}

	latest, err := s.eventRepo.GetLatestScrapedAt()
	if err != nil {
		return nil, fmt.Errorf("failed to get latest scrape time: %w", err)
	}
	status.LastScrapedAt = latest

	stats, err := s.eventRepo.GetPlatformStats()
	if err != nil {
		return nil, fmt.Errorf("failed to get platform stats: %w", err)
	}

	byPlatform := make(map[string]database.PlatformStats, len(stats))
	for _, stat := range stats {
		byPlatform[stat.Platform] = stat
	}

	for _, platform := range s.registry.All() {
		ps := PlatformStatus{ID: platform.ID, Name: platform.Name}
		if stat, ok := byPlatform[platform.ID]; ok {
			ps.EventCount = stat.EventCount
			ps.LastScrapedAt = stat.LastScrapedAt
		}
		status.Platforms = append(status.Platforms, ps)
	}

	return status, nil
}

// LastScrapedAt exposes catalog freshness for the scheduler's catch-up
// decision.
func (s *Service) LastScrapedAt() (*time.Time, error) {
	return s.eventRepo.GetLatestScrapedAt()
}

// RecentRuns returns the latest audit rows.
func (s *Service) RecentRuns(limit int) ([]database.ScraperRun, error) {
	return s.runRepo.GetRecentRuns(limit)
}

// IsRunning reports whether a run is currently executing.
func (s *Service) IsRunning() bool {
	return s.running.Load()
}

func startOfDay(t time.Time) time.Time {
	local := t.In(time.Local)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
