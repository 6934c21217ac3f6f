// Package ratelimit enforces hourly and daily request quotas for scraping
// and API clients, persisted in a JSON file shared across processes.
//
// Counters are tracked per (service, identity, action type) tuple, so two
// accounts of the same service, or two operation kinds within one account,
// never share a budget. On top of the count-based ceilings a limiter applies
// a minimum interval between requests, an active-hours/active-days schedule,
// and optional humanization (randomized jitter and probabilistic skips).
//
// Usage:
//
//	limiter, err := ratelimit.New("linkedin",
//	    ratelimit.WithIdentity("main-account"),
//	    ratelimit.WithActionType("profile_visit"),
//	)
//	if err != nil {
//	    return err
//	}
//
//	if d := limiter.CanMakeRequest(); !d.Allowed {
//	    // branch on d.Reason, wait d.Wait, or abort
//	}
//	// ... perform the network operation ...
//	if err := limiter.RecordRequest(); err != nil {
//	    // persistence failed; counters may undercount
//	}
//
// Or, for a blocking style, replace the check with WaitIfNeeded and still
// record after the action succeeds:
//
//	if waited, ok := limiter.WaitIfNeeded(5 * time.Minute); ok {
//	    _ = waited
//	    // ... perform the operation, then limiter.RecordRequest()
//	}
//
// A blocked decision is a normal return value, never an error, and a
// missing or corrupt storage file reads as empty history.
//
// Coordination across processes is best-effort: each load and each save of
// the shared file runs under its own advisory lock, but a check and the
// record that follows it are not one transaction. Two processes can both
// pass a check and both record, slightly overshooting a ceiling under
// contention.
package ratelimit
