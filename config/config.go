// Package config loads interpreter defaults from the environment, the way
// presentation/terminal.NewTerminalInterface loaded its own settings in the
// teacher repo.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds the tunables spec.md §6 lists as constructor options, plus
// the browser-launch knobs the driver needs.
type Config struct {
	MaxRepeats       int
	MaxConcurrency   int
	Headless         bool
	NavigationTimeout time.Duration
	Debug            bool
}

// Default matches spec.md §6's defaults (maxRepeats=5, maxConcurrency=5,
// debug=false) plus a headless launch and a 30s navigation timeout.
func Default() Config {
	return Config{
		MaxRepeats:        5,
		MaxConcurrency:    5,
		Headless:          true,
		NavigationTimeout: 30 * time.Second,
		Debug:             false,
	}
}

// Load reads a .env file (optional, same as the teacher's godotenv.Load
// call: a missing file is a warning, not an error) and overlays any
// SCRAPEFLOW_* environment variables on top of Default().
func Load(logger *logrus.Logger) Config {
	if err := godotenv.Load(); err != nil {
		if logger != nil {
			logger.Warn(".env file not found, using environment variables")
		}
	}

	cfg := Default()

	if v := os.Getenv("SCRAPEFLOW_MAX_REPEATS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxRepeats = n
		}
	}
	if v := os.Getenv("SCRAPEFLOW_MAX_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxConcurrency = n
		}
	}
	if v := os.Getenv("SCRAPEFLOW_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Headless = b
		}
	}
	if v := os.Getenv("SCRAPEFLOW_NAV_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.NavigationTimeout = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("SCRAPEFLOW_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}

	return cfg
}
