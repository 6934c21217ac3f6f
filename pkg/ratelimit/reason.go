package ratelimit

import (
	"fmt"
	"time"
)

// Reason explains why a request was allowed or blocked
type Reason string

const (
	ReasonOK                 Reason = "ok"
	ReasonOutsideActiveHours Reason = "outside_active_hours"
	ReasonMinDelay           Reason = "min_delay"
	ReasonHourlyLimit        Reason = "hourly_limit"
	ReasonDailyLimit         Reason = "daily_limit"
	ReasonRandomSkip         Reason = "random_skip"
)

// IsHardLimit reports whether the reason is a hard limit. Random skips are a
// humanization heuristic: callers may wait and retry instead of aborting.
func (r Reason) IsHardLimit() bool {
	switch r {
	case ReasonMinDelay, ReasonHourlyLimit, ReasonDailyLimit, ReasonOutsideActiveHours:
		return true
	default:
		return false
	}
}

// Decision is the outcome of a rate limit check
type Decision struct {
	// Allowed reports whether the request may proceed right now
	Allowed bool
	// Wait is how long to wait before the request could be allowed
	Wait time.Duration
	// Reason explains the decision
	Reason Reason
}

// WaitSeconds returns the wait time in whole seconds, for display
func (d Decision) WaitSeconds() int {
	return int(d.Wait / time.Second)
}

func (d Decision) String() string {
	if d.Allowed {
		return string(ReasonOK)
	}
	return fmt.Sprintf("%s (wait %ds)", d.Reason, d.WaitSeconds())
}
