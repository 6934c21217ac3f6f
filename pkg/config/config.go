package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the otomata tools
type Config struct {
	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Storage settings
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// RateLimitConfig holds the default limits and schedule applied to limiters
// built from configuration. Limits are per (service, identity, action) tuple.
type RateLimitConfig struct {
	Service    string `yaml:"service" json:"service"`
	Identity   string `yaml:"identity" json:"identity"`
	ActionType string `yaml:"action_type" json:"action_type"`

	MaxPerHour int           `yaml:"max_per_hour" json:"max_per_hour"`
	MaxPerDay  int           `yaml:"max_per_day" json:"max_per_day"`
	MinDelay   time.Duration `yaml:"min_delay" json:"min_delay"`

	ActiveHoursStart int   `yaml:"active_hours_start" json:"active_hours_start"`
	ActiveHoursEnd   int   `yaml:"active_hours_end" json:"active_hours_end"`
	ActiveDays       []int `yaml:"active_days" json:"active_days"`

	RandomizeDelay  bool    `yaml:"randomize_delay" json:"randomize_delay"`
	SkipProbability float64 `yaml:"skip_probability" json:"skip_probability"`

	// AutoWaitMax caps how long WaitIfNeeded may block before giving up
	AutoWaitMax time.Duration `yaml:"auto_wait_max" json:"auto_wait_max"`
}

// StorageConfig holds rate limit storage configuration
type StorageConfig struct {
	// Path to the shared rate limits JSON file.
	// Empty means the per-user cache default.
	Path string `yaml:"path" json:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		RateLimit: RateLimitConfig{
			Service:          "default",
			Identity:         "default",
			ActionType:       "default",
			MaxPerHour:       60,
			MaxPerDay:        500,
			MinDelay:         5 * time.Second,
			ActiveHoursStart: 0,
			ActiveHoursEnd:   24,
			ActiveDays:       []int{0, 1, 2, 3, 4, 5, 6},
			RandomizeDelay:   true,
			SkipProbability:  0.0,
			AutoWaitMax:      5 * time.Minute,
		},
		Storage: StorageConfig{
			Path: "",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// Load builds the effective configuration from all sources.
// Priority (highest first): command line flags, environment variables,
// configuration file, defaults.
func Load(path string, flags map[string]interface{}) (*Config, error) {
	cfg := DefaultConfig()

	// A .env.local near the working directory may carry OTOMATA_* variables
	loadDotEnv()

	if err := cfg.LoadFromFile(path); err != nil {
		return nil, err
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	cfg.applyFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file. An empty path searches
// the conventional locations; finding none is not an error.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// LoadFromEnv loads configuration from OTOMATA_* environment variables
func (c *Config) LoadFromEnv() error {
	if service := os.Getenv("OTOMATA_RATE_LIMIT_SERVICE"); service != "" {
		c.RateLimit.Service = service
	}
	if identity := os.Getenv("OTOMATA_RATE_LIMIT_IDENTITY"); identity != "" {
		c.RateLimit.Identity = identity
	}
	if action := os.Getenv("OTOMATA_RATE_LIMIT_ACTION"); action != "" {
		c.RateLimit.ActionType = action
	}
	if v := os.Getenv("OTOMATA_MAX_PER_HOUR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RateLimit.MaxPerHour = n
		}
	}
	if v := os.Getenv("OTOMATA_MAX_PER_DAY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RateLimit.MaxPerDay = n
		}
	}
	if v := os.Getenv("OTOMATA_MIN_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			c.RateLimit.MinDelay = d
		}
	}
	if path := os.Getenv("OTOMATA_STORAGE_PATH"); path != "" {
		c.Storage.Path = path
	}
	if level := os.Getenv("OTOMATA_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if file := os.Getenv("OTOMATA_LOG_FILE"); file != "" {
		c.Logging.File = file
	}
	return nil
}

// applyFlags overrides configuration values with command line flags
func (c *Config) applyFlags(flags map[string]interface{}) {
	for key, value := range flags {
		switch key {
		case "service":
			if v, ok := value.(string); ok && v != "" {
				c.RateLimit.Service = v
			}
		case "identity":
			if v, ok := value.(string); ok && v != "" {
				c.RateLimit.Identity = v
			}
		case "action":
			if v, ok := value.(string); ok && v != "" {
				c.RateLimit.ActionType = v
			}
		case "max-per-hour":
			if v, ok := value.(int); ok && v > 0 {
				c.RateLimit.MaxPerHour = v
			}
		case "max-per-day":
			if v, ok := value.(int); ok && v > 0 {
				c.RateLimit.MaxPerDay = v
			}
		case "storage-path":
			if v, ok := value.(string); ok && v != "" {
				c.Storage.Path = v
			}
		case "log-level":
			if v, ok := value.(string); ok && v != "" {
				c.Logging.Level = v
			}
		}
	}
}

// Validate checks configuration values for consistency
func (c *Config) Validate() error {
	rl := &c.RateLimit

	if rl.Service == "" {
		return fmt.Errorf("rate_limit.service must not be empty")
	}
	if rl.MaxPerHour < 1 {
		return fmt.Errorf("rate_limit.max_per_hour must be at least 1, got %d", rl.MaxPerHour)
	}
	if rl.MaxPerDay < 1 {
		return fmt.Errorf("rate_limit.max_per_day must be at least 1, got %d", rl.MaxPerDay)
	}
	if rl.MinDelay < 0 {
		return fmt.Errorf("rate_limit.min_delay must not be negative")
	}
	if rl.ActiveHoursStart < 0 || rl.ActiveHoursStart > 24 {
		return fmt.Errorf("rate_limit.active_hours_start must be in 0..24, got %d", rl.ActiveHoursStart)
	}
	if rl.ActiveHoursEnd < 0 || rl.ActiveHoursEnd > 24 {
		return fmt.Errorf("rate_limit.active_hours_end must be in 0..24, got %d", rl.ActiveHoursEnd)
	}
	if rl.ActiveHoursStart >= rl.ActiveHoursEnd {
		return fmt.Errorf("rate_limit active hours window [%d, %d) is empty",
			rl.ActiveHoursStart, rl.ActiveHoursEnd)
	}
	for _, day := range rl.ActiveDays {
		if day < 0 || day > 6 {
			return fmt.Errorf("rate_limit.active_days entry %d out of range 0..6", day)
		}
	}
	if rl.SkipProbability < 0 || rl.SkipProbability > 1 {
		return fmt.Errorf("rate_limit.skip_probability must be in [0, 1], got %g", rl.SkipProbability)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("unknown log level: %s", c.Logging.Level)
	}
	return nil
}

// findConfigFile searches the conventional configuration file locations
func findConfigFile() string {
	candidates := []string{
		"otomata.yaml",
		"otomata.yml",
		".otomata.yaml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".otomata.yaml"),
			filepath.Join(home, ".config", "otomata", "config.yaml"),
		)
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// loadDotEnv loads a .env.local from the working directory or up to three
// parent directories, mirroring where project secrets conventionally live.
// Variables already present in the environment win.
func loadDotEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for i := 0; i < 4; i++ {
		envFile := filepath.Join(dir, ".env.local")
		if _, err := os.Stat(envFile); err == nil {
			_ = godotenv.Load(envFile)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
