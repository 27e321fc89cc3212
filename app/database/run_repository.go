package database

import (
	"fmt"
)

var _ RunRepository = (*runRepository)(nil)

// runRepository handles the append-only scraper_runs audit table
type runRepository struct {
	db *DB
}

// NewRunRepository creates a new scraper run repository
func NewRunRepository(db *DB) RunRepository {
	return &runRepository{db: db}
}

// InsertRun appends one audit row. Rows are immutable once written.
func (r *runRepository) InsertRun(run ScraperRun) error {
	_, err := r.db.Exec(`
		INSERT INTO scraper_runs (
			id, started_at, completed_at, total_events,
			events_inserted, events_updated, success,
			platform_details, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, run.ID, run.StartedAt, run.CompletedAt, run.TotalEvents,
		run.EventsInserted, run.EventsUpdated, run.Success,
		run.PlatformDetails, nullable(run.ErrorMessage))

	if err != nil {
		return fmt.Errorf("failed to insert scraper run: %w", err)
	}

	return nil
}

// GetRecentRuns returns the most recent audit rows, newest first.
func (r *runRepository) GetRecentRuns(limit int) ([]ScraperRun, error) {
	rows, err := r.db.Query(`
		SELECT id, started_at, completed_at, total_events,
		       events_inserted, events_updated, success,
		       COALESCE(platform_details, '[]'), COALESCE(error_message, ''),
		       created_at
		FROM scraper_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent runs: %w", err)
	}
	defer rows.Close()

	var runs []ScraperRun
	for rows.Next() {
		var run ScraperRun
		err := rows.Scan(
			&run.ID, &run.StartedAt, &run.CompletedAt, &run.TotalEvents,
			&run.EventsInserted, &run.EventsUpdated, &run.Success,
			&run.PlatformDetails, &run.ErrorMessage, &run.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scraper run row: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scraper run rows: %w", err)
	}

	return runs, nil
}
