package ratelimit

import "time"

// ActiveHours is a half-open [Start, End) wall-clock window in whole hours
type ActiveHours struct {
	Start int
	End   int
}

// Schedule describes when requests are permitted at all, independent of
// count-based limits, plus the humanization knobs.
type Schedule struct {
	ActiveHours ActiveHours
	// ActiveDays lists the weekdays requests are permitted on.
	// Nil means every day.
	ActiveDays []time.Weekday
	// RandomizeDelay adds small jitter sleeps so request timing is not
	// perfectly periodic
	RandomizeDelay bool
	// SkipProbability is the chance in [0, 1] that an otherwise allowed
	// request is randomly skipped
	SkipProbability float64
}

// DefaultSchedule permits requests at any time with randomized delays
func DefaultSchedule() Schedule {
	return Schedule{
		ActiveHours:     ActiveHours{Start: 0, End: 24},
		ActiveDays:      nil,
		RandomizeDelay:  true,
		SkipProbability: 0.0,
	}
}

// normalize fills zero values so the schedule is always usable
func (s Schedule) normalize() Schedule {
	if s.ActiveHours.Start == 0 && s.ActiveHours.End == 0 {
		s.ActiveHours.End = 24
	}
	return s
}

// isActiveDay reports whether the weekday is within the active days
func (s Schedule) isActiveDay(day time.Weekday) bool {
	if len(s.ActiveDays) == 0 {
		return true
	}
	for _, d := range s.ActiveDays {
		if d == day {
			return true
		}
	}
	return false
}

// isActive reports whether t falls inside the active window
func (s Schedule) isActive(t time.Time) bool {
	if !s.isActiveDay(t.Weekday()) {
		return false
	}
	hour := t.Hour()
	return s.ActiveHours.Start <= hour && hour < s.ActiveHours.End
}

// untilNextActive returns how long until the next moment that is both an
// active weekday and at the start of the active hours window. Rolls over to
// the next active weekday when today's window has already ended or today is
// not active.
func (s Schedule) untilNextActive(t time.Time) time.Duration {
	start := s.ActiveHours.Start

	// Later today, if today is active and the window has not opened yet
	if s.isActiveDay(t.Weekday()) && t.Hour() < start {
		target := time.Date(t.Year(), t.Month(), t.Day(), start, 0, 0, 0, t.Location())
		return target.Sub(t)
	}

	daysAhead := 1
	for i := 0; i < 7; i++ {
		next := (int(t.Weekday()) + daysAhead) % 7
		if s.isActiveDay(time.Weekday(next)) {
			break
		}
		daysAhead++
	}

	day := t.AddDate(0, 0, daysAhead)
	target := time.Date(day.Year(), day.Month(), day.Day(), start, 0, 0, 0, t.Location())
	return target.Sub(t)
}
