package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"events_user" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" default:"events_password" description:"Database password (required)" required:"true"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"event_scraper" description:"Database name"`

	// Application configuration
	PlatformsDir string `long:"platforms-dir" env:"PLATFORMS_DIR" default:"./platforms" description:"Directory containing platform configuration files"`
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Extraction service configuration
	ExtractionAPIKey  string `long:"extraction-api-key" env:"EXTRACTION_API_KEY" description:"API key for the content extraction service"`
	ExtractionBaseURL string `long:"extraction-base-url" env:"EXTRACTION_BASE_URL" default:"https://api.firecrawl.dev/v1" description:"Base URL of the content extraction service"`
	ExtractionTimeout int    `long:"extraction-timeout" env:"EXTRACTION_TIMEOUT" default:"120" description:"Per-platform extraction job timeout in seconds"`

	// Scheduler configuration
	SchedulerEnabled bool `long:"scheduler-enabled" env:"SCHEDULER_ENABLED" description:"Enable the daily scrape scheduler"`
	ScrapeHour       int  `long:"scrape-hour" env:"SCRAPE_HOUR" default:"6" description:"Hour of day (local time) for the scheduled scrape"`
	ScrapeMinute     int  `long:"scrape-minute" env:"SCRAPE_MINUTE" default:"0" description:"Minute of the hour for the scheduled scrape"`

	// Normalization policy
	LocalCurrency  string  `long:"local-currency" env:"LOCAL_CURRENCY" default:"KES" description:"Currency code prefixed to bare numeric prices"`
	FuzzyThreshold float64 `long:"fuzzy-threshold" env:"FUZZY_THRESHOLD" default:"0.85" description:"Title similarity threshold for cross-platform duplicate detection"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Vibetix Event Scraper/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"Africa/Nairobi" description:"Timezone for scheduling and timestamps (e.g., Africa/Nairobi, UTC)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBHost:            raw.DBHost,
		DBPort:            raw.DBPort,
		DBUser:            raw.DBUser,
		DBPassword:        raw.DBPassword,
		DBName:            raw.DBName,
		PlatformsDir:      raw.PlatformsDir,
		Port:              raw.Port,
		APIAccessKey:      raw.APIAccessKey,
		ExtractionAPIKey:  raw.ExtractionAPIKey,
		ExtractionBaseURL: raw.ExtractionBaseURL,
		ExtractionTimeout: raw.ExtractionTimeout,
		SchedulerEnabled:  raw.SchedulerEnabled,
		ScrapeHour:        raw.ScrapeHour,
		ScrapeMinute:      raw.ScrapeMinute,
		LocalCurrency:     raw.LocalCurrency,
		FuzzyThreshold:    raw.FuzzyThreshold,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// SetForTesting replaces the global configuration. Test helper only.
func SetForTesting(c *Cfg) {
	globalCfg = c
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
