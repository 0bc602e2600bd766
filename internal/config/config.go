// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config represents the pipeline configuration, loadable from a JSON file.
// All fields are optional; missing values use defaults or must be provided
// via CLI flags. Env vars DATABASE_URL and GEMINI_API_KEY override the file.
type Config struct {
	// Paths
	AnswersFile   string `json:"answers_file,omitempty"`   // YAML lookup table + applicant profile
	BaseResume    string `json:"base_resume,omitempty"`    // Resume handed to the tailor as input
	DefaultResume string `json:"default_resume,omitempty"` // Uploaded when a job has no tailored resume
	OutputDir     string `json:"output_dir,omitempty"`     // Tailored resume artifacts
	ScreenshotDir string `json:"screenshot_dir,omitempty"` // Failure screenshots

	// Services
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL; empty runs in-memory
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key; empty disables AI features
	Port        int    `json:"port,omitempty"`         // Dashboard port

	// Daemon behavior
	IntervalSeconds int  `json:"interval_seconds,omitempty"` // Seconds between daemon ticks
	MaxPerRun       int  `json:"max_per_run,omitempty"`      // Jobs per tick
	JobDelaySeconds int  `json:"job_delay_seconds,omitempty"`
	MaxAttempts     int  `json:"max_attempts,omitempty"` // 0 = retry forever
	AutoSubmit      bool `json:"auto_submit,omitempty"`
	Headless        bool `json:"headless,omitempty"`
	Verbose         bool `json:"verbose,omitempty"`
}

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		AnswersFile:     "answers.yaml",
		OutputDir:       "tailored",
		ScreenshotDir:   "screenshots",
		Port:            8090,
		IntervalSeconds: 900,
		MaxPerRun:       5,
		JobDelaySeconds: 30,
		Headless:        true,
	}
}

// Load reads configuration from a JSON file and applies env overrides on
// top. A missing file is not an error when path is the default location.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if !filepath.IsAbs(path) {
			cwd, err := os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("failed to get current directory: %w", err)
			}
			path = filepath.Join(cwd, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	cfg.applyEnv()
	return &cfg, nil
}

// FromEnv returns the defaults with env overrides, for runs without a
// config file.
func FromEnv() *Config {
	cfg := Defaults()
	cfg.applyEnv()
	return &cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.APIKey = v
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.MaxPerRun < 0 {
		return fmt.Errorf("config error: 'max_per_run' must be non-negative")
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("config error: 'max_attempts' must be non-negative")
	}
	if c.IntervalSeconds < 0 || c.JobDelaySeconds < 0 {
		return fmt.Errorf("config error: intervals must be non-negative")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' out of range")
	}
	if c.BaseResume != "" {
		if _, err := os.Stat(c.BaseResume); os.IsNotExist(err) {
			return fmt.Errorf("config error: base resume not found: %s", c.BaseResume)
		}
	}
	if c.DefaultResume != "" {
		if _, err := os.Stat(c.DefaultResume); os.IsNotExist(err) {
			return fmt.Errorf("config error: default resume not found: %s", c.DefaultResume)
		}
	}
	return nil
}

// Interval returns the daemon tick interval.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// JobDelay returns the minimum spacing between processed jobs.
func (c *Config) JobDelay() time.Duration {
	return time.Duration(c.JobDelaySeconds) * time.Second
}
