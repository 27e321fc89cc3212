package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writePlatformFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write platform file: %v", err)
	}
}

func TestLoadAll_ValidPlatforms(t *testing.T) {
	dir := t.TempDir()

	writePlatformFile(t, dir, "ticketyetu.yaml", `
id: ticketyetu
name: Ticket Yetu
base_url: https://www.ticketyetu.com
events_path: /events
extraction_prompt: "Extract all upcoming events with title, date, venue, price and ticket URL"
`)
	writePlatformFile(t, dir, "sherehe.yaml", `
id: sherehe
name: Sherehe Tickets
base_url: https://sherehe.co.ke
events_path: /upcoming
parsing_strategy: markdown
`)

	loader := NewLoader(dir)
	platforms, err := loader.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}

	if len(platforms) != 2 {
		t.Fatalf("Expected 2 platforms, got %d", len(platforms))
	}

	// Sorted by ID, so sherehe comes first
	if platforms[0].ID != "sherehe" {
		t.Errorf("Expected platforms sorted by ID, got %q first", platforms[0].ID)
	}
	if platforms[0].ParsingStrategy != StrategyMarkdown {
		t.Errorf("Expected markdown strategy, got %q", platforms[0].ParsingStrategy)
	}
	if platforms[1].ParsingStrategy != StrategyExtract {
		t.Errorf("Expected extract strategy default, got %q", platforms[1].ParsingStrategy)
	}
	if got := platforms[1].EventsURL(); got != "https://www.ticketyetu.com/events" {
		t.Errorf("Unexpected events URL: %q", got)
	}
}

func TestLoadAll_MissingDirectory(t *testing.T) {
	loader := NewLoader("/nonexistent/platforms")
	platforms, err := loader.LoadAll()
	if err != nil {
		t.Fatalf("Expected no error for missing directory, got: %v", err)
	}
	if len(platforms) != 0 {
		t.Errorf("Expected no platforms, got %d", len(platforms))
	}
}

func TestLoadAll_DuplicateID(t *testing.T) {
	dir := t.TempDir()

	writePlatformFile(t, dir, "a.yaml", `
id: ticketyetu
name: Ticket Yetu
base_url: https://www.ticketyetu.com
extraction_prompt: "Extract events"
`)
	writePlatformFile(t, dir, "b.yaml", `
id: ticketyetu
name: Ticket Yetu Clone
base_url: https://clone.example.com
extraction_prompt: "Extract events"
`)

	if _, err := NewLoader(dir).LoadAll(); err == nil {
		t.Error("Expected error for duplicate platform IDs")
	}
}

func TestLoadAll_Invalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing id", "name: X\nbase_url: https://x.com\nextraction_prompt: p\n"},
		{"missing name", "id: x\nbase_url: https://x.com\nextraction_prompt: p\n"},
		{"bad base url", "id: x\nname: X\nbase_url: not-a-url\nextraction_prompt: p\n"},
		{"missing prompt for extract", "id: x\nname: X\nbase_url: https://x.com\n"},
		{"bad strategy", "id: x\nname: X\nbase_url: https://x.com\nparsing_strategy: xpath\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writePlatformFile(t, dir, "x.yaml", tc.content)
			if _, err := NewLoader(dir).LoadAll(); err == nil {
				t.Errorf("Expected validation error for %s", tc.name)
			}
		})
	}
}

func TestRegistry_Select(t *testing.T) {
	registry := NewRegistry([]Platform{
		{ID: "sherehe", Name: "Sherehe Tickets"},
		{ID: "ticketyetu", Name: "Ticket Yetu"},
	})

	all, err := registry.Select(nil)
	if err != nil {
		t.Fatalf("Select(nil) failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected all platforms for empty subset, got %d", len(all))
	}

	subset, err := registry.Select([]string{"ticketyetu"})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(subset) != 1 || subset[0].ID != "ticketyetu" {
		t.Errorf("Unexpected subset: %+v", subset)
	}

	if _, err := registry.Select([]string{"unknown"}); err == nil {
		t.Error("Expected error for unknown platform ID")
	}
}
