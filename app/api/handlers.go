package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vibetix/event-scraper/app/database"
	"github.com/vibetix/event-scraper/app/scheduler"
	"github.com/vibetix/event-scraper/app/scraper"
)

func NewHandler(scraperService ScraperService, sched *scheduler.Scheduler,
	eventRepo database.EventRepository, version string) *Handler {
	return &Handler{
		scraperService: scraperService,
		scheduler:      sched,
		eventRepo:      eventRepo,
		version:        version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"version":   h.version,
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if eventCount, err := h.eventRepo.GetEventCount(); err == nil {
		health["events"] = eventCount
	} else {
		health["status"] = "degraded"
	}

	c.JSON(http.StatusOK, health)
}

// GetEvents is the public paged catalog read used by the rest of the
// application.
func (h *Handler) GetEvents(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := parseIntQuery(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	events, err := h.eventRepo.GetEvents(limit, offset)
	if err != nil {
		slog.Error("Database error", "operation", "get_events", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	total, err := h.eventRepo.GetEventCount()
	if err != nil {
		slog.Error("Database error", "operation", "get_event_count", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	items := make([]gin.H, 0, len(events))
	for _, e := range events {
		items = append(items, eventJSON(e))
	}

	c.JSON(http.StatusOK, gin.H{
		"events": items,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// APIRunScraper triggers a run for all platforms or a caller-selected
// subset, and reports the summary once the run completes.
func (h *Handler) APIRunScraper(c *gin.Context) {
	var req runRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
	}

	// A client disconnect must not cancel a run mid-flight; the run
	// finishes and its audit row is written regardless.
	result, err := h.scraperService.Run(context.WithoutCancel(c.Request.Context()), req.Platforms)
	if err != nil {
		switch {
		case errors.Is(err, scraper.ErrRunInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": "A scraper run is already in progress"})
		case errors.Is(err, scraper.ErrNotConfigured):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Extraction service is not configured"})
		default:
			slog.Error("Manual scraper run failed", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": result.Success,
		"run":     result,
	})
}

func (h *Handler) APIGetStatus(c *gin.Context) {
	status, err := h.scraperService.Status()
	if err != nil {
		slog.Error("Failed to get scraper status", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get scraper status"})
		return
	}

	response := gin.H{
		"scraper": status,
	}
	if h.scheduler != nil {
		response["scheduler"] = h.scheduler.Snapshot()
	} else {
		response["scheduler"] = gin.H{"active": false, "state": scheduler.StateIdle}
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) APIListRuns(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	runs, err := h.scraperService.RecentRuns(limit)
	if err != nil {
		slog.Error("Failed to list scraper runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list scraper runs"})
		return
	}

	items := make([]gin.H, 0, len(runs))
	for _, run := range runs {
		items = append(items, gin.H{
			"id":               run.ID,
			"started_at":       run.StartedAt,
			"completed_at":     run.CompletedAt,
			"total_events":     run.TotalEvents,
			"events_inserted":  run.EventsInserted,
			"events_updated":   run.EventsUpdated,
			"success":          run.Success,
			"platform_details": jsonRaw(run.PlatformDetails),
			"error_message":    run.ErrorMessage,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  items,
		"total": len(items),
	})
}

func eventJSON(e database.Event) gin.H {
	return gin.H{
		"id":              e.ID,
		"title":           e.Title,
		"description":     e.Description,
		"image_url":       e.ImageURL,
		"starts_at":       e.StartsAt,
		"venue_name":      e.VenueName,
		"organizer_name":  e.OrganizerName,
		"price_range":     e.PriceRange,
		"source_platform": e.SourcePlatform,
		"source_url":      e.SourceURL,
		"ticketing_type":  e.TicketingType,
		"status":          e.Status,
		"scraped_at":      e.ScrapedAt,
	}
}

// jsonRaw keeps stored JSON blobs as JSON in responses instead of
// base64-encoded bytes.
func jsonRaw(b []byte) json.RawMessage {
	if len(b) == 0 {
		return json.RawMessage("[]")
	}
	return json.RawMessage(b)
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
