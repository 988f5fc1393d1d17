package accolades

import (
	"time"

	"github.com/shopspring/decimal"
)

// Streak bonus table. The day-7 and day-30 bonuses replace the daily 10
// for that day rather than stacking on top of it.
var (
	dailyReward    = decimal.NewFromInt(10)
	weekReward     = decimal.NewFromInt(100)
	monthReward    = decimal.NewFromInt(1000)
	weekStreakLen  = 7
	monthStreakLen = 30
)

// StreakResult is the outcome of advancing the login streak. When Changed
// is false the login was a same-day repeat and nothing should be written.
type StreakResult struct {
	Streak  int
	Reward  decimal.Decimal
	Changed bool
}

// AdvanceStreak applies the login-streak transition for a login at now.
// Same calendar day as the last counted login: no-op. Exactly yesterday:
// streak continues. Anything else, including a first-ever login: streak
// resets to 1. Day comparison is calendar-date equality in now's location.
func AdvanceStreak(streak int, lastLogin *time.Time, now time.Time) StreakResult {
	if lastLogin != nil && sameDay(*lastLogin, now) {
		return StreakResult{Streak: streak, Reward: decimal.Zero}
	}

	if lastLogin != nil && sameDay(*lastLogin, now.AddDate(0, 0, -1)) {
		next := streak + 1
		reward := dailyReward
		switch next {
		case weekStreakLen:
			reward = weekReward
		case monthStreakLen:
			reward = monthReward
		}
		return StreakResult{Streak: next, Reward: reward, Changed: true}
	}

	return StreakResult{Streak: 1, Reward: dailyReward, Changed: true}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DateOnly truncates a timestamp to its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
