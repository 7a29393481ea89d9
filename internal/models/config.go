package models

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for headstone
type Config struct {
	Timeout         time.Duration
	RetryCount      int
	Workers         int
	VerifyTLS       bool
	UserAgent       string
	URLPrefix       string
	OutputDir       string
	DatabasePath    string
	LogVerbose      bool
	NoColor         bool
	Quiet           bool
	NoProgress      bool
	SkipDNS         bool
	UseBrowser      bool
	BrowserTimeout  time.Duration
	MaxRedirects    int
	TargetLimit     int
	ArchiveEndpoint string
	Nominal         time.Time
	Tolerance       time.Duration
}

// Validate checks if the configuration is valid and returns an error if not
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Workers > 100 {
		return fmt.Errorf("workers cannot exceed 100, got %d", c.Workers)
	}
	if c.Timeout < 1*time.Second {
		return fmt.Errorf("timeout must be at least 1 second, got %v", c.Timeout)
	}
	if c.RetryCount < 0 {
		return fmt.Errorf("retry count cannot be negative, got %d", c.RetryCount)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.Tolerance <= 0 {
		return fmt.Errorf("capture tolerance must be positive, got %v", c.Tolerance)
	}
	if !strings.Contains(c.ArchiveEndpoint, "{timestamp}") || !strings.Contains(c.ArchiveEndpoint, "{url}") {
		return fmt.Errorf("archive endpoint must contain {timestamp} and {url} placeholders, got %q", c.ArchiveEndpoint)
	}
	return nil
}

// Clone creates a copy of the config to avoid race conditions
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Timeout:         10 * time.Second,
		RetryCount:      2,
		Workers:         8,
		VerifyTLS:       true,
		UserAgent:       "Mozilla/5.0 (compatible; headstone/1.0; +https://github.com/hdrlab/headstone)",
		URLPrefix:       "http://www.",
		OutputDir:       "results",
		DatabasePath:    "results/headstone.db",
		LogVerbose:      false,
		NoColor:         false,
		Quiet:           false,
		NoProgress:      false,
		SkipDNS:         false,
		UseBrowser:      false,
		BrowserTimeout:  20 * time.Second,
		MaxRedirects:    10,
		TargetLimit:     0,
		ArchiveEndpoint: "https://web.archive.org/web/{timestamp}/{url}",
		Nominal:         time.Now().UTC().Truncate(24 * time.Hour).Add(12 * time.Hour),
		Tolerance:       24 * time.Hour,
	}
}

// fileConfig is the YAML representation of the overridable options. Durations
// are strings in time.ParseDuration syntax, the nominal timestamp is RFC 3339.
type fileConfig struct {
	Timeout         string `yaml:"timeout,omitempty"`
	RetryCount      *int   `yaml:"retries,omitempty"`
	Workers         *int   `yaml:"workers,omitempty"`
	VerifyTLS       *bool  `yaml:"verify_tls,omitempty"`
	UserAgent       string `yaml:"user_agent,omitempty"`
	URLPrefix       string `yaml:"url_prefix,omitempty"`
	OutputDir       string `yaml:"output_dir,omitempty"`
	DatabasePath    string `yaml:"database,omitempty"`
	MaxRedirects    *int   `yaml:"max_redirects,omitempty"`
	TargetLimit     *int   `yaml:"target_limit,omitempty"`
	ArchiveEndpoint string `yaml:"archive_endpoint,omitempty"`
	Nominal         string `yaml:"nominal,omitempty"`
	Tolerance       string `yaml:"tolerance,omitempty"`
}

// LoadConfig reads a YAML config file and merges it over the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config := DefaultConfig()
	if file.Timeout != "" {
		if config.Timeout, err = time.ParseDuration(file.Timeout); err != nil {
			return nil, fmt.Errorf("invalid timeout: %w", err)
		}
	}
	if file.Tolerance != "" {
		if config.Tolerance, err = time.ParseDuration(file.Tolerance); err != nil {
			return nil, fmt.Errorf("invalid tolerance: %w", err)
		}
	}
	if file.Nominal != "" {
		if config.Nominal, err = time.Parse(time.RFC3339, file.Nominal); err != nil {
			return nil, fmt.Errorf("invalid nominal timestamp: %w", err)
		}
	}
	if file.RetryCount != nil {
		config.RetryCount = *file.RetryCount
	}
	if file.Workers != nil {
		config.Workers = *file.Workers
	}
	if file.VerifyTLS != nil {
		config.VerifyTLS = *file.VerifyTLS
	}
	if file.UserAgent != "" {
		config.UserAgent = file.UserAgent
	}
	if file.URLPrefix != "" {
		config.URLPrefix = file.URLPrefix
	}
	if file.OutputDir != "" {
		config.OutputDir = file.OutputDir
	}
	if file.DatabasePath != "" {
		config.DatabasePath = file.DatabasePath
	}
	if file.MaxRedirects != nil {
		config.MaxRedirects = *file.MaxRedirects
	}
	if file.TargetLimit != nil {
		config.TargetLimit = *file.TargetLimit
	}
	if file.ArchiveEndpoint != "" {
		config.ArchiveEndpoint = file.ArchiveEndpoint
	}

	return config, nil
}
