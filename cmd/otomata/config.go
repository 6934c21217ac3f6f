package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"otomata/pkg/config"
)

// configCmd groups the configuration file operations
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage otomata configuration files.

Configuration is resolved from command line flags, OTOMATA_* environment
variables, a YAML configuration file, and defaults, in that priority order.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# Otomata configuration file
#
# All values can also be set through OTOMATA_* environment variables,
# e.g. OTOMATA_MAX_PER_HOUR, OTOMATA_STORAGE_PATH, OTOMATA_LOG_LEVEL.

# Rate limiting defaults for limiters built from configuration
rate_limit:
  # Namespace keys: counters are tracked per (service, identity, action)
  service: "default"
  identity: "default"
  action_type: "default"

  # Ceilings
  max_per_hour: 60
  max_per_day: 500
  min_delay: 5s

  # Active window: requests are only permitted between these wall-clock
  # hours (half-open interval) on the listed weekdays (0=Sunday .. 6=Saturday)
  active_hours_start: 0
  active_hours_end: 24
  active_days: [0, 1, 2, 3, 4, 5, 6]

  # Humanization
  randomize_delay: true
  skip_probability: 0.0

  # How long "ratelimit test" and auto-waiting callers may block
  auto_wait_max: 5m

# Counter storage
storage:
  # Shared counters file, empty for the per-user cache default
  # (<cache-dir>/otomata/rate_limits.json)
  path: ""

# Logging
logging:
  # debug, info, warn, error
  level: "info"
  # Optional log file path, empty for console only
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = "otomata.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}
	fmt.Printf("Configuration file created: %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}
	fmt.Print(string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		return fmt.Errorf("no configuration file specified, use --config")
	}

	checked := config.DefaultConfig()
	if err := checked.LoadFromFile(configFile); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}
	if err := checked.Validate(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	fmt.Println("Configuration is valid")
	fmt.Printf("  service:      %s/%s/%s\n",
		checked.RateLimit.Service, checked.RateLimit.Identity, checked.RateLimit.ActionType)
	fmt.Printf("  limits:       %d/hour, %d/day, min delay %s\n",
		checked.RateLimit.MaxPerHour, checked.RateLimit.MaxPerDay, checked.RateLimit.MinDelay)
	fmt.Printf("  active hours: %d-%d\n",
		checked.RateLimit.ActiveHoursStart, checked.RateLimit.ActiveHoursEnd)
	fmt.Printf("  log level:    %s\n", checked.Logging.Level)
	return nil
}
