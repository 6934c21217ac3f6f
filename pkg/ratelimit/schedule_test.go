package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduleIsActive(t *testing.T) {
	schedule := Schedule{
		ActiveHours: ActiveHours{Start: 8, End: 22},
		ActiveDays:  []time.Weekday{time.Monday, time.Tuesday},
	}

	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"monday inside window", monday.Add(10 * time.Hour), true},
		{"monday at start", monday.Add(8 * time.Hour), true},
		{"monday at end is excluded", monday.Add(22 * time.Hour), false},
		{"monday before window", monday.Add(2 * time.Hour), false},
		{"wednesday inactive day", monday.AddDate(0, 0, 2).Add(10 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, schedule.isActive(tt.at))
		})
	}
}

func TestScheduleNilActiveDaysMeansEveryDay(t *testing.T) {
	schedule := Schedule{ActiveHours: ActiveHours{Start: 0, End: 24}}
	for day := 0; day < 7; day++ {
		at := time.Date(2025, 3, 9+day, 12, 0, 0, 0, time.Local)
		assert.True(t, schedule.isActive(at), "day %s", at.Weekday())
	}
}

func TestScheduleUntilNextActive(t *testing.T) {
	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)

	tests := []struct {
		name     string
		schedule Schedule
		at       time.Time
		want     time.Duration
	}{
		{
			"before today's window",
			Schedule{ActiveHours: ActiveHours{Start: 8, End: 22}},
			monday.Add(2 * time.Hour),
			6 * time.Hour,
		},
		{
			"after today's window rolls to tomorrow",
			Schedule{ActiveHours: ActiveHours{Start: 8, End: 22}},
			monday.Add(23 * time.Hour),
			9 * time.Hour,
		},
		{
			"inactive day rolls to next active weekday",
			Schedule{
				ActiveHours: ActiveHours{Start: 8, End: 22},
				ActiveDays:  []time.Weekday{time.Wednesday},
			},
			monday.Add(10 * time.Hour),
			46 * time.Hour,
		},
		{
			"active weekday a week away",
			Schedule{
				ActiveHours: ActiveHours{Start: 9, End: 18},
				ActiveDays:  []time.Weekday{time.Monday},
			},
			monday.Add(20 * time.Hour),
			// next Monday 9 AM
			6*24*time.Hour + 13*time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.schedule.untilNextActive(tt.at))
		})
	}
}

func TestScheduleNormalize(t *testing.T) {
	s := Schedule{}.normalize()
	assert.Equal(t, 24, s.ActiveHours.End)

	s = Schedule{ActiveHours: ActiveHours{Start: 8, End: 22}}.normalize()
	assert.Equal(t, ActiveHours{Start: 8, End: 22}, s.ActiveHours)
}
