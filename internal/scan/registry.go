package scan

import (
	"embed"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed config/sources.yaml
var sourcesYAML embed.FS

// Registry holds the configuration for all scanners plus global tunables.
type Registry struct {
	Scanners []ScannerConfig `yaml:"scanners"`
	Tunables Tunables        `yaml:"tunables"`
}

// ScannerConfig defines one external source. Credential fields reference
// environment variables in the YAML (${VAR}); an empty value after
// expansion disables the scanner without failing the run.
type ScannerConfig struct {
	ID                 string `yaml:"id"`
	Kind               string `yaml:"kind"` // "affiliate", "affiliate_html", "social", "seasonal", "timing"
	APIKey             string `yaml:"api_key,omitempty"`
	SeedURL            string `yaml:"seed_url,omitempty"`
	YouTubeAPIKey      string `yaml:"youtube_api_key,omitempty"`
	RedditUserAgent    string `yaml:"reddit_user_agent,omitempty"`
	MaxRequestsPerHour int    `yaml:"max_requests_per_hour,omitempty"` // Default: 100
}

// Tunables are the global knobs shared by every scanner.
type Tunables struct {
	MinEngagement         float64  `yaml:"min_engagement,omitempty"`          // Default: 100
	TrendThreshold        float64  `yaml:"trend_threshold,omitempty"`         // Default: 0.2
	LookAheadDays         int      `yaml:"look_ahead_days,omitempty"`         // Default: 90
	MaxParallel           int      `yaml:"max_parallel,omitempty"`            // Default: 3
	ScannerTimeoutSeconds int      `yaml:"scanner_timeout_seconds,omitempty"` // Default: 60
	CacheTTLSeconds       int      `yaml:"cache_ttl_seconds,omitempty"`       // Default: 1800
	Keywords              []string `yaml:"keywords,omitempty"`
	Regions               []string `yaml:"regions,omitempty"`
	Categories            []string `yaml:"categories,omitempty"`
}

func (t Tunables) minEngagement() float64 {
	if t.MinEngagement > 0 {
		return t.MinEngagement
	}
	return 100
}

func (t Tunables) trendThreshold() float64 {
	if t.TrendThreshold > 0 {
		return t.TrendThreshold
	}
	return 0.2
}

func (t Tunables) lookAheadDays() int {
	if t.LookAheadDays > 0 {
		return t.LookAheadDays
	}
	return 90
}

func (t Tunables) maxParallel() int {
	if t.MaxParallel > 0 {
		return t.MaxParallel
	}
	return 3
}

func (t Tunables) scannerTimeout() time.Duration {
	if t.ScannerTimeoutSeconds > 0 {
		return time.Duration(t.ScannerTimeoutSeconds) * time.Second
	}
	return 60 * time.Second
}

func (t Tunables) cacheTTL() time.Duration {
	if t.CacheTTLSeconds > 0 {
		return time.Duration(t.CacheTTLSeconds) * time.Second
	}
	return defaultCacheTTL
}

// LoadRegistry reads the embedded sources.yaml and returns a Registry.
// The path parameter is a filesystem fallback for local development.
func LoadRegistry(path string) (*Registry, error) {
	data, err := sourcesYAML.ReadFile("config/sources.yaml")
	if err != nil {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	}

	// Expand environment variables within the YAML content (e.g. ${API_KEY})
	expanded := os.ExpandEnv(string(data))

	var reg Registry
	if err := yaml.Unmarshal([]byte(expanded), &reg); err != nil {
		return nil, err
	}

	return &reg, nil
}
