// Package config loads and validates harvester configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Format selects the export mode of a run.
type Format string

// Supported export formats.
const (
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
)

// Extension returns the file extension written for the format.
func (f Format) Extension() string {
	return string(f)
}

// ErrInvalid marks configuration validation failures.
var ErrInvalid = errors.New("invalid configuration")

// Config captures all run configuration knobs loaded via Viper.
type Config struct {
	Species          []string      `mapstructure:"species"`
	Days             int           `mapstructure:"days"`
	OutputDir        string        `mapstructure:"output_dir"`
	RateLimitSeconds float64       `mapstructure:"rate_limit_seconds"`
	Format           Format        `mapstructure:"format"`
	Place            string        `mapstructure:"place"`
	LocationID       string        `mapstructure:"location_id"`
	SubmitterID      string        `mapstructure:"submitter_id"`
	SocialSplit      bool          `mapstructure:"social_split"`
	API              APIConfig     `mapstructure:"api"`
	HTTP             HTTPConfig    `mapstructure:"http"`
	Logging          LoggingConfig `mapstructure:"logging"`
	Metrics          MetricsConfig `mapstructure:"metrics"`
}

// APIConfig points the client at the observation service.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	SiteURL string `mapstructure:"site_url"`
}

// HTTPConfig configures the outbound HTTP client.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// MetricsConfig controls the end-of-run metrics dump.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// Load builds a Config from an already-populated Viper instance.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Species = cleanSpecies(cfg.Species)
	cfg.Format = Format(strings.ToLower(strings.TrimSpace(string(cfg.Format))))
	cfg.Place = strings.TrimSpace(cfg.Place)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("days", 30)
	v.SetDefault("output_dir", "./inat_data")
	v.SetDefault("rate_limit_seconds", 1.0)
	v.SetDefault("format", string(FormatCSV))
	v.SetDefault("social_split", false)
	v.SetDefault("api.base_url", "https://api.inaturalist.org/v1")
	v.SetDefault("api.site_url", "https://www.inaturalist.org")
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.user_agent", "inat-harvester/1.0")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if len(c.Species) == 0 {
		return fmt.Errorf("%w: species must list at least one name", ErrInvalid)
	}
	if c.Days < 1 {
		return fmt.Errorf("%w: days must be at least 1", ErrInvalid)
	}
	if c.RateLimitSeconds < 0 {
		return fmt.Errorf("%w: rate_limit_seconds must be non-negative", ErrInvalid)
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("%w: output_dir is required", ErrInvalid)
	}
	switch c.Format {
	case FormatCSV, FormatHTML:
	default:
		return fmt.Errorf("%w: format must be %q or %q, got %q", ErrInvalid, FormatCSV, FormatHTML, c.Format)
	}
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("%w: api.base_url is required", ErrInvalid)
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("%w: http.timeout_seconds must be > 0", ErrInvalid)
	}
	return nil
}

// RequestTimeout converts the HTTP timeout into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// PhotosDir is the photo cache directory under the output root.
func (c Config) PhotosDir() string {
	return filepath.Join(c.OutputDir, "photos")
}

func cleanSpecies(in []string) []string {
	out := make([]string, 0, len(in))
	for _, name := range in {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}
