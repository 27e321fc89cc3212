package extract

import "testing"

const sampleListing = `# Upcoming Events

Some intro text that should be ignored.

## Jazz Night at The Alchemist

![Jazz Night poster](/images/jazz-night.jpg)

**Date:** Sat 12 Sep 2026
**Time:** 7:00 PM
**Venue:** The Alchemist, Westlands
**Organizer:** Jazz Club Nairobi
**Price:** KES 1500
**Tickets:** [Buy here](/e/jazz-night)

## Nairobi Food Festival

Date - Sunday 13 September 2026
Location: Ngong Racecourse
Price: From 1000

[Get tickets](https://tickets.example.com/food-festival)

### Free Community Yoga

Venue: Karura Forest
`

func TestParseMarkdown(t *testing.T) {
	events := ParseMarkdown(sampleListing, "https://example.com/")

	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}

	jazz := events[0]
	if jazz.Title != "Jazz Night at The Alchemist" {
		t.Errorf("Expected jazz title, got %q", jazz.Title)
	}
	if jazz.Date != "Sat 12 Sep 2026" {
		t.Errorf("Expected date, got %q", jazz.Date)
	}
	if jazz.Time != "7:00 PM" {
		t.Errorf("Expected time, got %q", jazz.Time)
	}
	if jazz.Venue != "The Alchemist, Westlands" {
		t.Errorf("Expected venue, got %q", jazz.Venue)
	}
	if jazz.Organizer != "Jazz Club Nairobi" {
		t.Errorf("Expected organizer, got %q", jazz.Organizer)
	}
	if jazz.Price != "KES 1500" {
		t.Errorf("Expected price, got %q", jazz.Price)
	}
	if jazz.ImageURL != "https://example.com/images/jazz-night.jpg" {
		t.Errorf("Expected resolved image URL, got %q", jazz.ImageURL)
	}
	if jazz.TicketURL != "https://example.com/e/jazz-night" {
		t.Errorf("Expected resolved ticket URL, got %q", jazz.TicketURL)
	}

	food := events[1]
	if food.Title != "Nairobi Food Festival" {
		t.Errorf("Expected food festival title, got %q", food.Title)
	}
	if food.Date != "Sunday 13 September 2026" {
		t.Errorf("Expected date with dash separator parsed, got %q", food.Date)
	}
	if food.Venue != "Ngong Racecourse" {
		t.Errorf("Expected location mapped to venue, got %q", food.Venue)
	}
	if food.TicketURL != "https://tickets.example.com/food-festival" {
		t.Errorf("Expected absolute ticket URL kept, got %q", food.TicketURL)
	}

	yoga := events[2]
	if yoga.Title != "Free Community Yoga" {
		t.Errorf("Expected yoga title, got %q", yoga.Title)
	}
	if yoga.Venue != "Karura Forest" {
		t.Errorf("Expected venue, got %q", yoga.Venue)
	}
	if yoga.TicketURL != "" {
		t.Errorf("Expected no ticket URL, got %q", yoga.TicketURL)
	}
}

func TestParseMarkdownEmpty(t *testing.T) {
	if events := ParseMarkdown("", "https://example.com"); len(events) != 0 {
		t.Errorf("Expected no events from empty markdown, got %d", len(events))
	}
	if events := ParseMarkdown("just some prose\nwith no headings", "https://example.com"); len(events) != 0 {
		t.Errorf("Expected no events without headings, got %d", len(events))
	}
}

func TestParseMarkdownStripsLinkMarkup(t *testing.T) {
	markdown := "## [Jazz Night](https://example.com/e/1)\n\nVenue: **The Alchemist**\n"

	events := ParseMarkdown(markdown, "https://example.com")
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].Title != "Jazz Night" {
		t.Errorf("Expected link markup stripped from title, got %q", events[0].Title)
	}
	if events[0].Venue != "The Alchemist" {
		t.Errorf("Expected emphasis stripped from venue, got %q", events[0].Venue)
	}
}
