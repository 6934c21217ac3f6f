package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"otomata/pkg/ratelimit"
)

var (
	rlService  string
	rlIdentity string
	rlAction   string
	rlStorage  string
)

// ratelimitCmd groups the rate limiter operations
var ratelimitCmd = &cobra.Command{
	Use:     "ratelimit",
	Aliases: []string{"rl"},
	Short:   "Inspect and manage rate limit counters",
	Long: `Inspect and manage the persisted rate limit counters.

Counters are tracked per (service, identity, action) tuple in a JSON file
shared across processes. These commands are thin pass-throughs over the
limiter used by the automation tools themselves.`,
}

var ratelimitStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show current counters and whether a request could proceed",
	RunE:  runRatelimitStats,
}

var ratelimitResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset today's counters for one (service, identity, action)",
	RunE:  runRatelimitReset,
}

var ratelimitTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Wait for the limiter if needed, then record one request",
	RunE:  runRatelimitTest,
}

func init() {
	rootCmd.AddCommand(ratelimitCmd)
	ratelimitCmd.AddCommand(ratelimitStatsCmd)
	ratelimitCmd.AddCommand(ratelimitResetCmd)
	ratelimitCmd.AddCommand(ratelimitTestCmd)

	ratelimitCmd.PersistentFlags().StringVarP(&rlService, "service", "s", "", "service name (default from config)")
	ratelimitCmd.PersistentFlags().StringVarP(&rlIdentity, "identity", "i", "", "identity to check")
	ratelimitCmd.PersistentFlags().StringVarP(&rlAction, "action", "a", "", "action type")
	ratelimitCmd.PersistentFlags().StringVar(&rlStorage, "storage-path", "", "override the shared counters file")
}

// buildLimiter assembles a limiter from the configuration with flag overrides
func buildLimiter() (*ratelimit.Limiter, error) {
	rl := cfg.RateLimit

	service := rl.Service
	if rlService != "" {
		service = rlService
	}
	identity := rl.Identity
	if rlIdentity != "" {
		identity = rlIdentity
	}
	action := rl.ActionType
	if rlAction != "" {
		action = rlAction
	}

	days := make([]time.Weekday, 0, len(rl.ActiveDays))
	for _, d := range rl.ActiveDays {
		days = append(days, time.Weekday(d))
	}
	if len(days) == 7 {
		days = nil
	}

	opts := []ratelimit.Option{
		ratelimit.WithIdentity(identity),
		ratelimit.WithActionType(action),
		ratelimit.WithLimits(ratelimit.Limits{
			MaxPerHour: rl.MaxPerHour,
			MaxPerDay:  rl.MaxPerDay,
			MinDelay:   rl.MinDelay,
		}),
		ratelimit.WithSchedule(ratelimit.Schedule{
			ActiveHours:     ratelimit.ActiveHours{Start: rl.ActiveHoursStart, End: rl.ActiveHoursEnd},
			ActiveDays:      days,
			RandomizeDelay:  rl.RandomizeDelay,
			SkipProbability: rl.SkipProbability,
		}),
	}

	storagePath := cfg.Storage.Path
	if rlStorage != "" {
		storagePath = rlStorage
	}
	if storagePath != "" {
		opts = append(opts, ratelimit.WithStoragePath(storagePath))
	}

	return ratelimit.New(service, opts...)
}

func runRatelimitStats(cmd *cobra.Command, args []string) error {
	limiter, err := buildLimiter()
	if err != nil {
		return err
	}
	stats := limiter.Stats()

	fmt.Printf("Rate limiter %s/%s/%s\n", stats.Service, stats.Identity, stats.ActionType)
	fmt.Printf("  requests last hour: %d / %d\n", stats.RequestsLastHour, stats.MaxPerHour)
	fmt.Printf("  requests today:     %d / %d\n", stats.RequestsToday, stats.MaxPerDay)
	if stats.LastRequestAge != nil {
		fmt.Printf("  last request:       %s ago\n", stats.LastRequestAge)
	} else {
		fmt.Printf("  last request:       never\n")
	}
	fmt.Printf("  min delay:          %s\n", stats.MinDelay)
	fmt.Printf("  active time:        %t\n", stats.IsActiveTime)
	if stats.CanRequest {
		fmt.Printf("  can request:        yes\n")
	} else {
		fmt.Printf("  can request:        no (%s)\n", stats.Reason)
	}
	return nil
}

func runRatelimitReset(cmd *cobra.Command, args []string) error {
	limiter, err := buildLimiter()
	if err != nil {
		return err
	}
	if err := limiter.Reset(); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	fmt.Printf("Rate limiter reset for %s/%s/%s\n",
		limiter.Service(), limiter.Identity(), limiter.ActionType())
	return nil
}

func runRatelimitTest(cmd *cobra.Command, args []string) error {
	limiter, err := buildLimiter()
	if err != nil {
		return err
	}

	fmt.Println("Testing rate limit...")
	waited, ok := limiter.WaitIfNeeded(cfg.RateLimit.AutoWaitMax)
	if !ok {
		decision := limiter.CanMakeRequest()
		return fmt.Errorf("cannot make request now: %s", decision)
	}
	if err := limiter.RecordRequest(); err != nil {
		return fmt.Errorf("failed to record request: %w", err)
	}
	fmt.Printf("Request recorded (waited %s)\n", waited)
	return nil
}
