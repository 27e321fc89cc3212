package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Application configuration
	PlatformsDir string
	Port         string
	APIAccessKey string

	// Extraction service configuration
	ExtractionAPIKey  string
	ExtractionBaseURL string
	ExtractionTimeout int // seconds, per-platform job budget

	// Scheduler configuration
	SchedulerEnabled bool
	ScrapeHour       int
	ScrapeMinute     int

	// Normalization policy
	LocalCurrency  string
	FuzzyThreshold float64

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
