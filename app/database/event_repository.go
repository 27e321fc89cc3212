package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

var _ EventRepository = (*eventRepository)(nil)

// eventRepository handles database operations for events
type eventRepository struct {
	db *DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *DB) EventRepository {
	return &eventRepository{db: db}
}

const eventColumns = `id, title, COALESCE(description, ''), COALESCE(image_url, ''),
	       starts_at, COALESCE(venue_name, ''), COALESCE(organizer_name, ''),
	       COALESCE(price_range, ''), source_platform, COALESCE(source_url, ''),
	       external_id, is_external, ticketing_type, source, status,
	       scraped_at, created_at`

// UpsertEvent inserts or updates an event by its
// (source_platform, external_id) key. Returns true when the row was
// freshly inserted. The store can still report a unique violation on
// a race with a concurrent writer; that path falls back to an
// explicit update.
func (r *eventRepository) UpsertEvent(event Event) (bool, error) {
	var createdAt, scrapedAt time.Time

	err := r.db.QueryRow(`
		INSERT INTO events (
			title, description, image_url, starts_at, venue_name,
			organizer_name, price_range, source_platform, source_url,
			external_id, is_external, ticketing_type, source, status, scraped_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW())
		ON CONFLICT (source_platform, external_id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			image_url = EXCLUDED.image_url,
			starts_at = EXCLUDED.starts_at,
			venue_name = EXCLUDED.venue_name,
			organizer_name = EXCLUDED.organizer_name,
			price_range = EXCLUDED.price_range,
			source_url = EXCLUDED.source_url,
			status = EXCLUDED.status,
			scraped_at = NOW()
		RETURNING created_at, scraped_at
	`, event.Title, nullable(event.Description), nullable(event.ImageURL), event.StartsAt,
		nullable(event.VenueName), nullable(event.OrganizerName), nullable(event.PriceRange),
		event.SourcePlatform, nullable(event.SourceURL), event.ExternalID,
		event.IsExternal, event.TicketingType, event.Source, event.Status,
	).Scan(&createdAt, &scrapedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if updateErr := r.updateExisting(event); updateErr != nil {
				return false, fmt.Errorf("failed to update event after conflict: %w", updateErr)
			}
			return false, nil
		}
		return false, fmt.Errorf("failed to upsert event: %w", err)
	}

	// A freshly inserted row gets both timestamps from the same
	// statement clock; an updated row keeps its original created_at.
	return createdAt.Equal(scrapedAt), nil
}

func (r *eventRepository) updateExisting(event Event) error {
	_, err := r.db.Exec(`
		UPDATE events
		SET title = $3, description = $4, image_url = $5, starts_at = $6,
		    venue_name = $7, organizer_name = $8, price_range = $9,
		    source_url = $10, status = $11, scraped_at = NOW()
		WHERE source_platform = $1 AND external_id = $2
	`, event.SourcePlatform, event.ExternalID, event.Title, nullable(event.Description),
		nullable(event.ImageURL), event.StartsAt, nullable(event.VenueName),
		nullable(event.OrganizerName), nullable(event.PriceRange),
		nullable(event.SourceURL), event.Status)

	return err
}

// GetEventsOnDay returns events from other platforms starting within
// [dayStart, dayEnd). Used for cross-platform duplicate detection.
func (r *eventRepository) GetEventsOnDay(excludePlatform string, dayStart, dayEnd time.Time) ([]Event, error) {
	rows, err := r.db.Query(`
		SELECT `+eventColumns+`
		FROM events
		WHERE source_platform != $1
		  AND starts_at >= $2
		  AND starts_at < $3
	`, excludePlatform, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to get events on day: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetEvents returns a page of the catalog ordered by start time.
func (r *eventRepository) GetEvents(limit, offset int) ([]Event, error) {
	rows, err := r.db.Query(`
		SELECT `+eventColumns+`
		FROM events
		WHERE status = 'live'
		ORDER BY COALESCE(starts_at, created_at), id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetEventCount returns the total number of stored events
func (r *eventRepository) GetEventCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get event count: %w", err)
	}
	return count, nil
}

// GetLatestScrapedAt returns the most recent scraped_at across all
// events, or nil when nothing has ever been scraped.
func (r *eventRepository) GetLatestScrapedAt() (*time.Time, error) {
	var latest sql.NullTime
	err := r.db.QueryRow("SELECT MAX(scraped_at) FROM events").Scan(&latest)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest scraped_at: %w", err)
	}
	if !latest.Valid {
		return nil, nil
	}
	return &latest.Time, nil
}

// GetPlatformStats returns per-platform event counts and last-scraped
// timestamps.
func (r *eventRepository) GetPlatformStats() ([]PlatformStats, error) {
	rows, err := r.db.Query(`
		SELECT source_platform, COUNT(*), MAX(scraped_at)
		FROM events
		GROUP BY source_platform
		ORDER BY source_platform
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get platform stats: %w", err)
	}
	defer rows.Close()

	var stats []PlatformStats
	for rows.Next() {
		var s PlatformStats
		var last sql.NullTime
		if err := rows.Scan(&s.Platform, &s.EventCount, &last); err != nil {
			return nil, fmt.Errorf("failed to scan platform stats row: %w", err)
		}
		if last.Valid {
			s.LastScrapedAt = &last.Time
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating platform stats rows: %w", err)
	}

	return stats, nil
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var e Event
		err := rows.Scan(
			&e.ID, &e.Title, &e.Description, &e.ImageURL, &e.StartsAt,
			&e.VenueName, &e.OrganizerName, &e.PriceRange, &e.SourcePlatform,
			&e.SourceURL, &e.ExternalID, &e.IsExternal, &e.TicketingType,
			&e.Source, &e.Status, &e.ScrapedAt, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}

	return events, nil
}

// nullable maps empty strings to NULL so the store does not fill up
// with empty-string sentinels.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
