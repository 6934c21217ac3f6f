package ratelimit

import (
	"fmt"
	"math/rand"
	"time"

	"otomata/pkg/logger"
)

// Limits are the static ceilings for one limiter instance
type Limits struct {
	// MaxPerHour caps requests within the trailing 60 minutes
	MaxPerHour int
	// MaxPerDay caps requests per calendar day
	MaxPerDay int
	// MinDelay is the minimum interval between consecutive requests
	MinDelay time.Duration
}

// DefaultLimits returns the default ceilings
func DefaultLimits() Limits {
	return Limits{
		MaxPerHour: 60,
		MaxPerDay:  500,
		MinDelay:   5 * time.Second,
	}
}

// normalize fills ceilings left at zero. MinDelay is taken as given: an
// explicit zero delay is meaningful.
func (l Limits) normalize() Limits {
	if l.MaxPerHour <= 0 {
		l.MaxPerHour = 60
	}
	if l.MaxPerDay <= 0 {
		l.MaxPerDay = 500
	}
	if l.MinDelay < 0 {
		l.MinDelay = 0
	}
	return l
}

// Limiter decides, for one (service, identity, action) tuple, whether a new
// request may proceed right now, and if not, how long to wait and why.
// Counters persist in a JSON file shared across all limiter instances and
// processes on the same machine.
type Limiter struct {
	key      key
	limits   Limits
	schedule Schedule
	store    *store
	log      logger.Logger

	// injected for tests
	now       func() time.Time
	sleep     func(time.Duration)
	randFloat func() float64
	randRange func(min, max int) int
}

// Option configures a Limiter
type Option func(*options)

type options struct {
	identity    string
	action      string
	limits      *Limits
	schedule    *Schedule
	storagePath string
	log         logger.Logger
}

// WithIdentity separates counters per account or persona within a service
func WithIdentity(identity string) Option {
	return func(o *options) { o.identity = identity }
}

// WithActionType separates counters per operation kind within a service
func WithActionType(action string) Option {
	return func(o *options) { o.action = action }
}

// WithLimits replaces the default ceilings. MaxPerHour and MaxPerDay left at
// zero fall back to their defaults; MinDelay is taken as given.
func WithLimits(limits Limits) Option {
	return func(o *options) { o.limits = &limits }
}

// WithSchedule replaces the default always-active schedule
func WithSchedule(schedule Schedule) Option {
	return func(o *options) { o.schedule = &schedule }
}

// WithStoragePath overrides the shared JSON file location
func WithStoragePath(path string) Option {
	return func(o *options) { o.storagePath = path }
}

// WithLogger sets the logger used for block and storage degradation events
func WithLogger(log logger.Logger) Option {
	return func(o *options) { o.log = log }
}

// New creates a rate limiter for the given service
func New(service string, opts ...Option) (*Limiter, error) {
	if service == "" {
		return nil, fmt.Errorf("service must not be empty")
	}

	o := options{
		identity: "default",
		action:   "default",
	}
	for _, opt := range opts {
		opt(&o)
	}

	limits := DefaultLimits()
	if o.limits != nil {
		limits = o.limits.normalize()
	}
	schedule := DefaultSchedule()
	if o.schedule != nil {
		schedule = o.schedule.normalize()
	}

	log := o.log
	if log == nil {
		log = logger.GetLogger()
	}
	log = log.WithFields(map[string]interface{}{
		"service":  service,
		"identity": o.identity,
		"action":   o.action,
	})

	path := o.storagePath
	if path == "" {
		var err error
		path, err = defaultStoragePath()
		if err != nil {
			return nil, err
		}
	}
	st, err := newStore(path, log)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Limiter{
		key:       key{service: service, identity: o.identity, action: o.action},
		limits:    limits,
		schedule:  schedule,
		store:     st,
		log:       log,
		now:       time.Now,
		sleep:     time.Sleep,
		randFloat: rng.Float64,
		randRange: func(min, max int) int { return min + rng.Intn(max-min+1) },
	}, nil
}

// Service returns the limiter's service namespace
func (l *Limiter) Service() string { return l.key.service }

// Identity returns the limiter's identity namespace
func (l *Limiter) Identity() string { return l.key.identity }

// ActionType returns the limiter's action type namespace
func (l *Limiter) ActionType() string { return l.key.action }

// CanMakeRequest checks whether a request may proceed right now. Checks run
// in strict priority order and the first failing one decides: active window,
// minimum delay, hourly ceiling, daily ceiling, probabilistic skip. A blocked
// decision is a normal return value, not an error.
func (l *Limiter) CanMakeRequest() Decision {
	now := l.now()

	if !l.schedule.isActive(now) {
		return Decision{
			Wait:   l.schedule.untilNextActive(now),
			Reason: ReasonOutsideActiveHours,
		}
	}

	rec := l.store.record(l.key, now.Format(dateLayout))

	if rec.LastRequest != nil {
		if last, ok := parseTimestamp(*rec.LastRequest); ok {
			elapsed := now.Sub(last)
			if elapsed < l.limits.MinDelay {
				wait := (l.limits.MinDelay - elapsed).Truncate(time.Second) + time.Second
				return Decision{Wait: wait, Reason: ReasonMinDelay}
			}
		}
	}

	recent := recentTimestamps(rec.HourlyTimestamps, now)
	if len(recent) >= l.limits.MaxPerHour {
		oldest := recent[0]
		wait := oldest.Add(time.Hour).Sub(now).Truncate(time.Second) + time.Second
		if wait < 60*time.Second {
			wait = 60 * time.Second
		}
		return Decision{Wait: wait, Reason: ReasonHourlyLimit}
	}

	if rec.DailyCount >= l.limits.MaxPerDay {
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
			AddDate(0, 0, 1)
		return Decision{
			Wait:   midnight.Sub(now).Truncate(time.Second),
			Reason: ReasonDailyLimit,
		}
	}

	if l.schedule.SkipProbability > 0 && l.randFloat() < l.schedule.SkipProbability {
		return Decision{
			Wait:   time.Duration(l.randRange(60, 180)) * time.Second,
			Reason: ReasonRandomSkip,
		}
	}

	return Decision{Allowed: true, Reason: ReasonOK}
}

// RecordRequest records that a request was actually made: it appends now to
// the trailing-hour timestamps, increments today's count and persists. The
// limiter never records implicitly; callers record only after the
// rate-limited action succeeded.
func (l *Limiter) RecordRequest() error {
	now := l.now()
	date := now.Format(dateLayout)

	rec := l.store.record(l.key, date)
	nowStr := formatTimestamp(now)

	rec.HourlyTimestamps = append(recentStrings(rec.HourlyTimestamps, now), nowStr)
	rec.DailyCount++
	rec.LastRequest = &nowStr

	return l.store.updateRecord(l.key, date, rec, now)
}

// WaitIfNeeded combines CanMakeRequest with blocking sleep. It returns the
// time waited and true when the caller may proceed, or false when it should
// stop: outside active hours (potentially a multi-day gap, never slept
// through) or when the required wait exceeds maxWait. Random skips are a soft
// delay: the method sleeps a short random time and lets the caller proceed.
// It never records the request.
func (l *Limiter) WaitIfNeeded(maxWait time.Duration) (time.Duration, bool) {
	decision := l.CanMakeRequest()

	if !decision.Allowed {
		switch {
		case decision.Reason == ReasonOutsideActiveHours:
			l.log.WithField("resume_at", l.NextActiveTime()).
				Info("outside active hours, not waiting")
			return 0, false

		case decision.Reason == ReasonRandomSkip:
			jitter := time.Duration(l.randRange(30, 90)) * time.Second
			l.log.WithField("wait", jitter).Info("random skip, waiting")
			l.sleep(jitter)
			return jitter, true

		case decision.Wait <= maxWait:
			wait := decision.Wait
			if l.schedule.RandomizeDelay {
				wait += time.Duration(l.randRange(0, 10)) * time.Second
			}
			l.log.WithFields(map[string]interface{}{
				"reason": string(decision.Reason),
				"wait":   wait,
			}).Info("rate limited, waiting")
			l.sleep(wait)
			return wait, true

		default:
			l.log.WithFields(map[string]interface{}{
				"reason":   string(decision.Reason),
				"wait":     decision.Wait,
				"retry_at": l.CanMakeRequestAt(),
			}).Warn("rate limited beyond auto-wait budget")
			return 0, false
		}
	}

	// Allowed: still add a small jitter so request timing is not perfectly
	// periodic
	if l.schedule.RandomizeDelay {
		jitter := time.Duration(l.randRange(1, 5)) * time.Second
		l.sleep(jitter)
		return jitter, true
	}
	return 0, true
}

// Stats is a read-only snapshot of the limiter state
type Stats struct {
	Service    string `json:"service"`
	Identity   string `json:"identity"`
	ActionType string `json:"action_type"`

	RequestsLastHour int `json:"requests_last_hour"`
	RequestsToday    int `json:"requests_today"`
	// LastRequestAge is nil when no request was ever recorded today
	LastRequestAge *time.Duration `json:"last_request_age,omitempty"`

	MaxPerHour int           `json:"hourly_limit"`
	MaxPerDay  int           `json:"daily_limit"`
	MinDelay   time.Duration `json:"min_delay"`

	CanRequest   bool   `json:"can_request"`
	Reason       Reason `json:"reason"`
	IsActiveTime bool   `json:"is_active_time"`
}

// Stats returns the current counters and whether a request could proceed
// right now. It never mutates state.
func (l *Limiter) Stats() Stats {
	now := l.now()
	rec := l.store.record(l.key, now.Format(dateLayout))

	var age *time.Duration
	if rec.LastRequest != nil {
		if last, ok := parseTimestamp(*rec.LastRequest); ok {
			d := now.Sub(last).Truncate(time.Second)
			age = &d
		}
	}

	decision := l.CanMakeRequest()

	return Stats{
		Service:          l.key.service,
		Identity:         l.key.identity,
		ActionType:       l.key.action,
		RequestsLastHour: len(recentTimestamps(rec.HourlyTimestamps, now)),
		RequestsToday:    rec.DailyCount,
		LastRequestAge:   age,
		MaxPerHour:       l.limits.MaxPerHour,
		MaxPerDay:        l.limits.MaxPerDay,
		MinDelay:         l.limits.MinDelay,
		CanRequest:       decision.Allowed,
		Reason:           decision.Reason,
		IsActiveTime:     l.schedule.isActive(now),
	}
}

// Reset deletes today's record for this (service, identity, action) only.
// Other identities and action types keep their records. Resetting a limiter
// with no record today is a no-op.
func (l *Limiter) Reset() error {
	return l.store.deleteRecord(l.key, l.now().Format(dateLayout))
}

// NextActiveTime returns a human-readable time when the next active period
// starts, or "now" while inside the active window
func (l *Limiter) NextActiveTime() string {
	now := l.now()
	if l.schedule.isActive(now) {
		return "now"
	}
	return now.Add(l.schedule.untilNextActive(now)).Format("2006-01-02 15:04")
}

// CanMakeRequestAt returns a human-readable time when the next request is
// allowed, or "now"
func (l *Limiter) CanMakeRequestAt() string {
	decision := l.CanMakeRequest()
	if decision.Allowed {
		return "now"
	}
	return l.now().Add(decision.Wait).Format("15:04:05")
}

// formatTimestamp renders a timestamp for the shared JSON document
func formatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// parseTimestamp reads a persisted timestamp. Alongside RFC 3339 it accepts
// zoneless ISO 8601, which other writers of the shared file produce; those
// are taken as local wall-clock times.
func parseTimestamp(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.Local); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// recentTimestamps parses the timestamps within one hour of now, oldest
// first. Unparseable entries are dropped.
func recentTimestamps(stamps []string, now time.Time) []time.Time {
	hourAgo := now.Add(-time.Hour)
	recent := make([]time.Time, 0, len(stamps))
	for _, s := range stamps {
		if t, ok := parseTimestamp(s); ok && t.After(hourAgo) {
			recent = append(recent, t)
		}
	}
	return recent
}

// recentStrings keeps the raw entries within one hour of now
func recentStrings(stamps []string, now time.Time) []string {
	hourAgo := now.Add(-time.Hour)
	recent := make([]string, 0, len(stamps)+1)
	for _, s := range stamps {
		if t, ok := parseTimestamp(s); ok && t.After(hourAgo) {
			recent = append(recent, s)
		}
	}
	return recent
}
