package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of platform configurations
type Loader struct {
	platformsDir string
}

// NewLoader creates a new platform configuration loader
func NewLoader(platformsDir string) *Loader {
	return &Loader{platformsDir: platformsDir}
}

// LoadAll loads all YAML platform files from the platforms directory.
// Platforms are returned sorted by ID so scrape order is stable across
// runs. Duplicate IDs are a configuration error.
func (l *Loader) LoadAll() ([]Platform, error) {
	if _, err := os.Stat(l.platformsDir); os.IsNotExist(err) {
		return nil, nil
	}

	files, err := filepath.Glob(filepath.Join(l.platformsDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YAML files: %w", err)
	}

	ymlFiles, err := filepath.Glob(filepath.Join(l.platformsDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}
	files = append(files, ymlFiles...)

	var platforms []Platform
	seen := make(map[string]string)

	for _, file := range files {
		platform, err := l.loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		if err := l.validate(platform); err != nil {
			return nil, fmt.Errorf("invalid platform config %s: %w", file, err)
		}

		if prev, ok := seen[platform.ID]; ok {
			return nil, fmt.Errorf("duplicate platform ID %q in %s (already defined in %s)", platform.ID, file, prev)
		}
		seen[platform.ID] = file

		platforms = append(platforms, *platform)
		slog.Debug("Loaded platform configuration", "file", file, "platform", platform.ID)
	}

	sort.Slice(platforms, func(i, j int) bool {
		return platforms[i].ID < platforms[j].ID
	})

	return platforms, nil
}

// loadFile loads a single YAML platform file
func (l *Loader) loadFile(path string) (*Platform, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var platform Platform
	if err := yaml.Unmarshal(data, &platform); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	l.setDefaults(&platform)

	return &platform, nil
}

// setDefaults applies default values to a platform configuration
func (l *Loader) setDefaults(platform *Platform) {
	if platform.ParsingStrategy == "" {
		platform.ParsingStrategy = StrategyExtract
	}
}

// validate validates a platform configuration
func (l *Loader) validate(platform *Platform) error {
	if platform.ID == "" {
		return fmt.Errorf("platform ID is required")
	}
	if strings.ContainsAny(platform.ID, " /") {
		return fmt.Errorf("platform ID must not contain spaces or slashes: %q", platform.ID)
	}
	if platform.Name == "" {
		return fmt.Errorf("platform name is required")
	}

	if platform.BaseURL == "" {
		return fmt.Errorf("platform base URL is required")
	}
	parsed, err := url.Parse(platform.BaseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("platform base URL must be a valid http(s) URL: %q", platform.BaseURL)
	}

	switch platform.ParsingStrategy {
	case StrategyExtract:
		if platform.ExtractionPrompt == "" {
			return fmt.Errorf("extraction prompt is required for extract strategy")
		}
	case StrategyMarkdown:
	default:
		return fmt.Errorf("invalid parsing strategy: %q", platform.ParsingStrategy)
	}

	return nil
}

// Registry is the closed set of platforms the service operates on,
// keyed by platform ID. Built once at startup from the loaded
// configurations and treated as read-only afterwards.
type Registry struct {
	platforms []Platform
	byID      map[string]Platform
}

func NewRegistry(platforms []Platform) *Registry {
	byID := make(map[string]Platform, len(platforms))
	for _, p := range platforms {
		byID[p.ID] = p
	}
	return &Registry{platforms: platforms, byID: byID}
}

// All returns every configured platform in stable order.
func (r *Registry) All() []Platform {
	out := make([]Platform, len(r.platforms))
	copy(out, r.platforms)
	return out
}

// Get returns the platform with the given ID.
func (r *Registry) Get(id string) (Platform, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// Select resolves a caller-supplied subset of platform IDs. An empty
// subset means all platforms. Unknown IDs are rejected so API callers
// cannot trigger scrapes for identifiers outside the closed set.
func (r *Registry) Select(ids []string) ([]Platform, error) {
	if len(ids) == 0 {
		return r.All(), nil
	}

	var selected []Platform
	for _, id := range ids {
		p, ok := r.byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown platform ID: %q", id)
		}
		selected = append(selected, p)
	}
	return selected, nil
}

// Count returns the number of configured platforms.
func (r *Registry) Count() int {
	return len(r.platforms)
}
