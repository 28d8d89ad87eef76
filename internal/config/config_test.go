package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
species: ["Phycodurus eques", " Phyllopteryx taeniolatus ", ""]
days: 7
output_dir: ./seadragons
rate_limit_seconds: 2.5
format: HTML
place: South Australia
location_id: SA-Gulf
submitter_id: researcher1
social_split: true
api:
  base_url: https://api.example.org/v1
  site_url: https://www.example.org
http:
  timeout_seconds: 45
  user_agent: test-agent
logging:
  development: false
  level: warn
metrics:
  textfile: /tmp/harvest.prom
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig() error = %v", err)
	}

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Species) != 2 || cfg.Species[1] != "Phyllopteryx taeniolatus" {
		t.Fatalf("expected trimmed species list, got %q", cfg.Species)
	}
	if cfg.Days != 7 || cfg.RateLimitSeconds != 2.5 {
		t.Fatalf("expected numeric overrides to apply: %+v", cfg)
	}
	if cfg.Format != FormatHTML {
		t.Fatalf("expected format to be normalized to html, got %q", cfg.Format)
	}
	if !cfg.SocialSplit || cfg.LocationID != "SA-Gulf" || cfg.SubmitterID != "researcher1" {
		t.Fatalf("expected record overrides to apply: %+v", cfg)
	}
	if cfg.Place != "South Australia" {
		t.Fatalf("expected place filter, got %q", cfg.Place)
	}
	if cfg.Logging.Development || cfg.Logging.Level != "warn" {
		t.Fatalf("expected logging overrides to apply: %+v", cfg.Logging)
	}
	if got := cfg.RequestTimeout(); got != 45*time.Second {
		t.Fatalf("expected timeout 45s, got %v", got)
	}
	if got := cfg.PhotosDir(); got != filepath.Join("seadragons", "photos") {
		t.Fatalf("unexpected photos dir %q", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	v := viper.New()
	v.Set("species", []string{"Phycodurus eques"})

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Days != 30 || cfg.RateLimitSeconds != 1.0 || cfg.Format != FormatCSV {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.OutputDir != "./inat_data" {
		t.Fatalf("unexpected output dir %q", cfg.OutputDir)
	}
	if cfg.API.BaseURL != "https://api.inaturalist.org/v1" {
		t.Fatalf("unexpected base url %q", cfg.API.BaseURL)
	}
}

func TestLoadRejectsMissingSpecies(t *testing.T) {
	t.Parallel()

	_, err := Load(viper.New())
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Species:   []string{"Phycodurus eques"},
		Days:      30,
		OutputDir: "out",
		Format:    FormatCSV,
		API:       APIConfig{BaseURL: "https://api.example.org/v1"},
		HTTP:      HTTPConfig{TimeoutSeconds: 10},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected base config to be valid, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no species", func(c *Config) { c.Species = nil }, "species"},
		{"zero days", func(c *Config) { c.Days = 0 }, "days"},
		{"negative rate limit", func(c *Config) { c.RateLimitSeconds = -0.5 }, "rate_limit_seconds"},
		{"empty output", func(c *Config) { c.OutputDir = " " }, "output_dir"},
		{"unknown format", func(c *Config) { c.Format = "xlsx" }, "format"},
		{"missing base url", func(c *Config) { c.API.BaseURL = "" }, "api.base_url"},
		{"invalid timeout", func(c *Config) { c.HTTP.TimeoutSeconds = 0 }, "http.timeout_seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := base
			c.Species = append([]string(nil), base.Species...)
			tt.mutate(&c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}
