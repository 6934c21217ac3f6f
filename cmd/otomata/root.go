package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"otomata/pkg/config"
	"otomata/pkg/logger"
)

var (
	// Version information, set at build time
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string

	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "otomata",
	Short: "Operational tooling for rate-limited scraping and API automation",
	Long: `Otomata provides the shared plumbing for rate-limited automation:
per-service request quotas with active-hours scheduling, persisted across
processes, plus credential storage for the services being called.

Counters live in a JSON file shared by every process on the machine, so
concurrent tools throttle against the same budget.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		flags := map[string]interface{}{}
		if logLevel != "" {
			flags["log-level"] = logLevel
		}

		var err error
		cfg, err = config.Load(configFile, flags)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := logger.Initialize(&cfg.Logging); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and runs it
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default searches ./otomata.yaml, ~/.otomata.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.SetVersionTemplate(`otomata {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
