package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })

	return &DB{mockDB}, mock
}

func sampleEvent() Event {
	startsAt := time.Date(2026, 9, 12, 19, 0, 0, 0, time.UTC)
	return Event{
		Title:          "Jazz Night",
		Description:    "Live jazz",
		ImageURL:       "https://cdn.example.com/jazz.jpg",
		StartsAt:       &startsAt,
		VenueName:      "The Alchemist",
		OrganizerName:  "Jazz Club Nairobi",
		PriceRange:     "KES 1500",
		SourcePlatform: "quicket",
		SourceURL:      "https://quicket.co.ke/events",
		ExternalID:     "abc123def456abcd",
		IsExternal:     true,
		TicketingType:  "external",
		Source:         "scraper",
		Status:         "live",
	}
}

func TestUpsertEventInserted(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepository(db)

	// A fresh insert sets created_at and scraped_at from the same
	// statement clock.
	now := time.Now()
	mock.ExpectQuery("INSERT INTO events").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "scraped_at"}).AddRow(now, now))

	inserted, err := repo.UpsertEvent(sampleEvent())
	if err != nil {
		t.Fatalf("Expected upsert to succeed, got %v", err)
	}
	if !inserted {
		t.Error("Expected inserted=true for a fresh row")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestUpsertEventUpdated(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepository(db)

	createdAt := time.Now().Add(-24 * time.Hour)
	scrapedAt := time.Now()
	mock.ExpectQuery("INSERT INTO events").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "scraped_at"}).AddRow(createdAt, scrapedAt))

	inserted, err := repo.UpsertEvent(sampleEvent())
	if err != nil {
		t.Fatalf("Expected upsert to succeed, got %v", err)
	}
	if inserted {
		t.Error("Expected inserted=false when created_at predates scraped_at")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestUpsertEventUniqueViolationFallsBackToUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepository(db)

	mock.ExpectQuery("INSERT INTO events").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectExec("UPDATE events").
		WillReturnResult(sqlmock.NewResult(0, 1))

	inserted, err := repo.UpsertEvent(sampleEvent())
	if err != nil {
		t.Fatalf("Expected fallback update to succeed, got %v", err)
	}
	if inserted {
		t.Error("Expected inserted=false after conflict fallback")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestUpsertEventOtherErrorPropagates(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepository(db)

	mock.ExpectQuery("INSERT INTO events").
		WillReturnError(fmt.Errorf("connection reset"))

	_, err := repo.UpsertEvent(sampleEvent())
	if err == nil {
		t.Fatal("Expected error to propagate")
	}
}

func TestGetEventsOnDay(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepository(db)

	dayStart := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)
	startsAt := dayStart.Add(19 * time.Hour)

	rows := sqlmock.NewRows([]string{
		"id", "title", "description", "image_url", "starts_at",
		"venue_name", "organizer_name", "price_range", "source_platform",
		"source_url", "external_id", "is_external", "ticketing_type",
		"source", "status", "scraped_at", "created_at",
	}).AddRow(
		"uuid-1", "Jazz Night", "", "", startsAt,
		"The Alchemist", "", "", "mookh",
		"", "abc123", true, "external",
		"scraper", "live", time.Now(), time.Now(),
	)

	mock.ExpectQuery("SELECT (.+) FROM events").
		WithArgs("quicket", dayStart, dayEnd).
		WillReturnRows(rows)

	events, err := repo.GetEventsOnDay("quicket", dayStart, dayEnd)
	if err != nil {
		t.Fatalf("Expected query to succeed, got %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].SourcePlatform != "mookh" || events[0].Title != "Jazz Night" {
		t.Errorf("Unexpected event: %+v", events[0])
	}
}

func TestGetLatestScrapedAt(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepository(db)

	latest := time.Date(2026, 8, 27, 6, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT MAX\\(scraped_at\\) FROM events").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(latest))

	got, err := repo.GetLatestScrapedAt()
	if err != nil {
		t.Fatalf("Expected query to succeed, got %v", err)
	}
	if got == nil || !got.Equal(latest) {
		t.Errorf("Expected %v, got %v", latest, got)
	}
}

func TestGetLatestScrapedAtEmptyCatalog(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepository(db)

	mock.ExpectQuery("SELECT MAX\\(scraped_at\\) FROM events").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

	got, err := repo.GetLatestScrapedAt()
	if err != nil {
		t.Fatalf("Expected query to succeed, got %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for empty catalog, got %v", got)
	}
}

func TestGetPlatformStats(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepository(db)

	last := time.Date(2026, 8, 27, 6, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"source_platform", "count", "max"}).
		AddRow("mookh", 12, last).
		AddRow("quicket", 30, last)

	mock.ExpectQuery("SELECT source_platform, COUNT\\(\\*\\), MAX\\(scraped_at\\)").
		WillReturnRows(rows)

	stats, err := repo.GetPlatformStats()
	if err != nil {
		t.Fatalf("Expected query to succeed, got %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("Expected 2 platforms, got %d", len(stats))
	}
	if stats[0].Platform != "mookh" || stats[0].EventCount != 12 {
		t.Errorf("Unexpected stats row: %+v", stats[0])
	}
	if stats[1].LastScrapedAt == nil || !stats[1].LastScrapedAt.Equal(last) {
		t.Errorf("Expected last scraped timestamp, got %+v", stats[1])
	}
}
