package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "default", cfg.RateLimit.Service)
	assert.Equal(t, "default", cfg.RateLimit.Identity)
	assert.Equal(t, "default", cfg.RateLimit.ActionType)
	assert.Equal(t, 60, cfg.RateLimit.MaxPerHour)
	assert.Equal(t, 500, cfg.RateLimit.MaxPerDay)
	assert.Equal(t, 5*time.Second, cfg.RateLimit.MinDelay)
	assert.Equal(t, 0, cfg.RateLimit.ActiveHoursStart)
	assert.Equal(t, 24, cfg.RateLimit.ActiveHoursEnd)
	assert.Len(t, cfg.RateLimit.ActiveDays, 7)
	assert.True(t, cfg.RateLimit.RandomizeDelay)
	assert.Equal(t, 0.0, cfg.RateLimit.SkipProbability)
	assert.Equal(t, 5*time.Minute, cfg.RateLimit.AutoWaitMax)
	assert.Empty(t, cfg.Storage.Path)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("OTOMATA_RATE_LIMIT_SERVICE", "linkedin")
	t.Setenv("OTOMATA_RATE_LIMIT_IDENTITY", "main")
	t.Setenv("OTOMATA_MAX_PER_HOUR", "15")
	t.Setenv("OTOMATA_MAX_PER_DAY", "120")
	t.Setenv("OTOMATA_MIN_DELAY", "30s")
	t.Setenv("OTOMATA_STORAGE_PATH", "/tmp/limits.json")
	t.Setenv("OTOMATA_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "linkedin", cfg.RateLimit.Service)
	assert.Equal(t, "main", cfg.RateLimit.Identity)
	assert.Equal(t, 15, cfg.RateLimit.MaxPerHour)
	assert.Equal(t, 120, cfg.RateLimit.MaxPerDay)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.MinDelay)
	assert.Equal(t, "/tmp/limits.json", cfg.Storage.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("OTOMATA_MAX_PER_HOUR", "not-a-number")
	t.Setenv("OTOMATA_MIN_DELAY", "soon")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, 60, cfg.RateLimit.MaxPerHour)
	assert.Equal(t, 5*time.Second, cfg.RateLimit.MinDelay)
}

func TestLoadFromFile(t *testing.T) {
	content := `
rate_limit:
  service: linkedin
  identity: main
  action_type: profile_visit
  max_per_hour: 10
  max_per_day: 80
  min_delay: 45s
  active_hours_start: 8
  active_hours_end: 22
  skip_probability: 0.05
storage:
  path: /var/cache/limits.json
logging:
  level: warn
`
	path := filepath.Join(t.TempDir(), "otomata.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "linkedin", cfg.RateLimit.Service)
	assert.Equal(t, 10, cfg.RateLimit.MaxPerHour)
	assert.Equal(t, 80, cfg.RateLimit.MaxPerDay)
	assert.Equal(t, 45*time.Second, cfg.RateLimit.MinDelay)
	assert.Equal(t, 8, cfg.RateLimit.ActiveHoursStart)
	assert.Equal(t, 22, cfg.RateLimit.ActiveHoursEnd)
	assert.Equal(t, 0.05, cfg.RateLimit.SkipProbability)
	assert.Equal(t, "/var/cache/limits.json", cfg.Storage.Path)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Values the file does not mention keep their defaults
	assert.Equal(t, 5*time.Minute, cfg.RateLimit.AutoWaitMax)
}

func TestLoadFromFileErrors(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n  - ["), 0644))
	assert.Error(t, cfg.LoadFromFile(path))
}

func TestLoadMergeOrder(t *testing.T) {
	content := `
rate_limit:
  service: from-file
  max_per_hour: 10
`
	path := filepath.Join(t.TempDir(), "otomata.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("OTOMATA_RATE_LIMIT_SERVICE", "from-env")

	cfg, err := Load(path, map[string]interface{}{"max-per-hour": 25})
	require.NoError(t, err)

	// env beats file, flags beat env
	assert.Equal(t, "from-env", cfg.RateLimit.Service)
	assert.Equal(t, 25, cfg.RateLimit.MaxPerHour)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty service", func(c *Config) { c.RateLimit.Service = "" }},
		{"zero hourly limit", func(c *Config) { c.RateLimit.MaxPerHour = 0 }},
		{"zero daily limit", func(c *Config) { c.RateLimit.MaxPerDay = 0 }},
		{"negative min delay", func(c *Config) { c.RateLimit.MinDelay = -time.Second }},
		{"start hour out of range", func(c *Config) { c.RateLimit.ActiveHoursStart = 25 }},
		{"end hour out of range", func(c *Config) { c.RateLimit.ActiveHoursEnd = -1 }},
		{"empty active window", func(c *Config) {
			c.RateLimit.ActiveHoursStart = 10
			c.RateLimit.ActiveHoursEnd = 10
		}},
		{"bad active day", func(c *Config) { c.RateLimit.ActiveDays = []int{7} }},
		{"skip probability above one", func(c *Config) { c.RateLimit.SkipProbability = 1.5 }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
