// Package config holds run configuration for the harvest pipeline.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds crawler and output configuration for one run.
type Config struct {
	BaseURL string

	// ListingDelay and DetailDelay are the mandatory waits applied after
	// each listing-page and detail-page fetch. The defaults keep the
	// source site's 2:1 ratio.
	ListingDelay time.Duration
	DetailDelay  time.Duration

	Timeout   time.Duration
	UserAgent string

	// MaxPages is a safety cap on catalogue pages; discovery normally
	// terminates on the first empty page well before it.
	MaxPages int

	// CheckpointEvery is the successful-record interval between
	// checkpoint snapshots.
	CheckpointEvery int

	DataDir      string
	OutputFormat string // csv, json, or dual
	MetricsAddr  string
	Verbose      bool
}

// DefaultConfig returns conservative defaults for the demo target.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         "https://books.toscrape.com/",
		ListingDelay:    time.Second,
		DetailDelay:     500 * time.Millisecond,
		Timeout:         10 * time.Second,
		UserAgent:       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		MaxPages:        100,
		CheckpointEvery: 50,
		DataDir:         "data",
		OutputFormat:    "csv",
		MetricsAddr:     "",
		Verbose:         false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.ListingDelay < 0 {
		return fmt.Errorf("listing delay cannot be negative")
	}
	if c.DetailDelay < 0 {
		return fmt.Errorf("detail delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive")
	}
	if c.CheckpointEvery <= 0 {
		return fmt.Errorf("checkpoint interval must be positive")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data dir cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	return nil
}
