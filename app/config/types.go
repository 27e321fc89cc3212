package config

// ParsingStrategy selects how a platform's listings page is turned into
// raw events.
type ParsingStrategy string

const (
	// StrategyExtract uses the extraction service's structured extract job.
	StrategyExtract ParsingStrategy = "extract"
	// StrategyMarkdown requests a raw markdown scrape and runs the
	// line-pattern parser over it. Used for platforms where structured
	// extraction is unreliable.
	StrategyMarkdown ParsingStrategy = "markdown"
)

// Platform represents one external event-listing website the pipeline
// ingests from. Loaded at startup, immutable afterwards.
type Platform struct {
	ID               string          `yaml:"id"`
	Name             string          `yaml:"name"`
	BaseURL          string          `yaml:"base_url"`
	EventsPath       string          `yaml:"events_path"`
	ExtractionPrompt string          `yaml:"extraction_prompt"`
	ParsingStrategy  ParsingStrategy `yaml:"parsing_strategy"`
}

// EventsURL returns the full URL of the platform's event listings page.
func (p Platform) EventsURL() string {
	return p.BaseURL + p.EventsPath
}
