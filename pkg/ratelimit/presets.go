package ratelimit

import "time"

// LinkedIn account tiers
const (
	AccountFree           = "free"
	AccountPremium        = "premium"
	AccountSalesNavigator = "sales_navigator"
)

// LinkedIn action types
const (
	ActionProfileVisit  = "profile_visit"
	ActionSearchExport  = "search_export"
	ActionCompanyScrape = "company_scrape"
)

// linkedInPresets holds conservative per-tier, per-action ceilings. Profile
// visits are the most aggressively throttled action because they are visible
// to the visited account.
var linkedInPresets = map[string]map[string]Limits{
	AccountFree: {
		ActionProfileVisit:  {MaxPerHour: 10, MaxPerDay: 80, MinDelay: 45 * time.Second},
		ActionSearchExport:  {MaxPerHour: 80, MaxPerDay: 1000, MinDelay: 5 * time.Second},
		ActionCompanyScrape: {MaxPerHour: 200, MaxPerDay: 2000, MinDelay: 2 * time.Second},
	},
	AccountPremium: {
		ActionProfileVisit:  {MaxPerHour: 12, MaxPerDay: 100, MinDelay: 30 * time.Second},
		ActionSearchExport:  {MaxPerHour: 100, MaxPerDay: 1000, MinDelay: 5 * time.Second},
		ActionCompanyScrape: {MaxPerHour: 200, MaxPerDay: 2000, MinDelay: 2 * time.Second},
	},
	AccountSalesNavigator: {
		ActionProfileVisit:  {MaxPerHour: 15, MaxPerDay: 150, MinDelay: 20 * time.Second},
		ActionSearchExport:  {MaxPerHour: 150, MaxPerDay: 2500, MinDelay: 3 * time.Second},
		ActionCompanyScrape: {MaxPerHour: 300, MaxPerDay: 3000, MinDelay: 2 * time.Second},
	},
}

// linkedInSchedule keeps LinkedIn activity within human hours with a small
// skip probability
var linkedInSchedule = Schedule{
	ActiveHours:     ActiveHours{Start: 8, End: 22},
	ActiveDays:      nil,
	RandomizeDelay:  true,
	SkipProbability: 0.05,
}

// LinkedInLimits returns the preset ceilings for an account tier and action
// type. Unknown tiers fall back to free, unknown actions to profile visits.
func LinkedInLimits(accountType, actionType string) Limits {
	tier, ok := linkedInPresets[accountType]
	if !ok {
		tier = linkedInPresets[AccountFree]
	}
	limits, ok := tier[actionType]
	if !ok {
		limits = tier[ActionProfileVisit]
	}
	return limits
}

// NewLinkedIn creates a limiter for the "linkedin" service with preset
// ceilings for the account tier and action type. Additional options (such as
// WithIdentity or WithStoragePath) are applied on top; a WithLimits or
// WithSchedule option overrides the preset.
func NewLinkedIn(accountType, actionType string, opts ...Option) (*Limiter, error) {
	if actionType == "" {
		actionType = ActionProfileVisit
	}
	preset := []Option{
		WithActionType(actionType),
		WithLimits(LinkedInLimits(accountType, actionType)),
		WithSchedule(linkedInSchedule),
	}
	return New("linkedin", append(preset, opts...)...)
}
