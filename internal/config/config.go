package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Config holds application configuration values.
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// Browser
	Headless   bool
	ChromePath string
	UserAgent  string

	// Run
	ResultsWait time.Duration

	// Output
	OutputDir string
	Format    string // csv, json, or both

	// Reviews
	WithReviews bool
	MaxReviews  int
}

// Load builds a Config by layering defaults, an optional .env file,
// HARVEST_* environment variables, and CLI flags, in that order. Pass the
// command so flags can be read; nil skips the flag layer.
func Load(cmd *cobra.Command) (*Config, error) {
	// Best effort; a missing .env file is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:    DefaultLogLevel,
		JSONLog:     DefaultJSONLog,
		Headless:    DefaultHeadless,
		UserAgent:   DefaultUserAgent,
		ResultsWait: DefaultResultsWait,
		OutputDir:   DefaultOutputDir,
		Format:      DefaultFormat,
		MaxReviews:  DefaultMaxReviews,
	}

	if v := os.Getenv("HARVEST_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("HARVEST_CHROME_PATH"); v != "" {
		cfg.ChromePath = v
	}
	if v := os.Getenv("HARVEST_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("HARVEST_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Headless = b
		}
	}
	if v := os.Getenv("HARVEST_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("HARVEST_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("HARVEST_WITH_REVIEWS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.WithReviews = b
		}
	}
	if v := os.Getenv("HARVEST_MAX_REVIEWS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxReviews = n
		}
	}
	if v := os.Getenv("HARVEST_RESULTS_WAIT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ResultsWait = d
		}
	}

	if cmd != nil {
		if f := cmd.Flags().Lookup("headless"); f != nil && f.Changed {
			cfg.Headless = f.Value.String() == "true"
		}
		if f := cmd.Flags().Lookup("chrome-path"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.ChromePath = s
			}
		}
		if f := cmd.Flags().Lookup("user-agent"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.UserAgent = s
			}
		}
		if f := cmd.Flags().Lookup("output-dir"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.OutputDir = s
			}
		}
		if f := cmd.Flags().Lookup("format"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.Format = s
			}
		}
		if f := cmd.Flags().Lookup("with-reviews"); f != nil && f.Value.String() == "true" {
			cfg.WithReviews = true
		}
		if f := cmd.Flags().Lookup("json-log"); f != nil && f.Value.String() == "true" {
			cfg.JSONLog = true
		}
		if f := cmd.Flags().Lookup("verbose"); f != nil && f.Value.String() == "true" {
			cfg.LogLevel = "debug"
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.Format {
	case "csv", "json", "both":
	default:
		return fmt.Errorf("unknown output format %q (want csv, json, or both)", cfg.Format)
	}
	if cfg.ResultsWait <= 0 {
		return fmt.Errorf("results wait must be positive")
	}
	if cfg.MaxReviews < 0 {
		return fmt.Errorf("max reviews must not be negative")
	}
	return nil
}
