package ratelimit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkedInLimits(t *testing.T) {
	limits := LinkedInLimits(AccountFree, ActionProfileVisit)
	assert.Equal(t, 10, limits.MaxPerHour)
	assert.Equal(t, 80, limits.MaxPerDay)
	assert.Equal(t, 45*time.Second, limits.MinDelay)

	limits = LinkedInLimits(AccountSalesNavigator, ActionSearchExport)
	assert.Equal(t, 150, limits.MaxPerHour)
	assert.Equal(t, 2500, limits.MaxPerDay)
}

func TestLinkedInLimitsFallbacks(t *testing.T) {
	// Unknown tier falls back to free
	assert.Equal(t, LinkedInLimits(AccountFree, ActionProfileVisit),
		LinkedInLimits("enterprise", ActionProfileVisit))

	// Unknown action falls back to profile visits within the tier
	assert.Equal(t, LinkedInLimits(AccountPremium, ActionProfileVisit),
		LinkedInLimits(AccountPremium, "inmail"))
}

func TestNewLinkedIn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rate_limits.json")

	limiter, err := NewLinkedIn(AccountPremium, ActionProfileVisit,
		WithIdentity("main"),
		WithStoragePath(path),
	)
	require.NoError(t, err)

	assert.Equal(t, "linkedin", limiter.Service())
	assert.Equal(t, "main", limiter.Identity())
	assert.Equal(t, ActionProfileVisit, limiter.ActionType())
	assert.Equal(t, 12, limiter.limits.MaxPerHour)
	assert.Equal(t, 30*time.Second, limiter.limits.MinDelay)
	assert.Equal(t, ActiveHours{Start: 8, End: 22}, limiter.schedule.ActiveHours)
	assert.Equal(t, 0.05, limiter.schedule.SkipProbability)
}

func TestNewLinkedInDefaultsAction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rate_limits.json")
	limiter, err := NewLinkedIn(AccountFree, "", WithStoragePath(path))
	require.NoError(t, err)
	assert.Equal(t, ActionProfileVisit, limiter.ActionType())
	assert.Equal(t, 10, limiter.limits.MaxPerHour)
}
