package accolades

import (
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"paper-trader/models"
)

// balanceCredit builds the column updates for crediting a reward. Every
// balance write also bumps the version token: a concurrent trade that read
// the balance before the credit must fail its compare-and-swap and re-read,
// otherwise its absolute write would erase the reward.
func balanceCredit(amount decimal.Decimal) map[string]interface{} {
	return map[string]interface{}{
		"balance": gorm.Expr("balance + ?", amount),
		"version": gorm.Expr("version + 1"),
	}
}

// Grant records a milestone for a user. The insert runs with ON CONFLICT
// DO NOTHING against the (user_id, key) unique index, so a concurrent or
// repeated grant is a silent no-op. The reward, when the rule carries one,
// is credited in the same transaction and only when the row was actually
// inserted. Returns whether this call performed the grant.
func Grant(db *gorm.DB, userID uint, rule Rule) (bool, error) {
	granted := false
	err := db.Transaction(func(tx *gorm.DB) error {
		acc := models.Accolade{
			UserID:    userID,
			Key:       rule.Key,
			Reward:    rule.Reward,
			GrantedAt: time.Now(),
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&acc)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		granted = true

		if rule.Reward.IsPositive() {
			return tx.Model(&models.User{}).
				Where("id = ?", userID).
				Updates(balanceCredit(rule.Reward)).Error
		}
		return nil
	})
	return granted, err
}

// EvaluateAndGrant runs the rule table against the user's current snapshot
// plus any first-occurrence events from the triggering action, and commits
// whatever is due. Failures are logged and swallowed: gamification never
// blocks the trade or login that fired it. Returns the newly granted
// accolades for the caller to surface.
func EvaluateAndGrant(db *gorm.DB, user *models.User, events []string) []models.Accolade {
	var existing []models.Accolade
	if err := db.Where("user_id = ?", user.ID).Find(&existing).Error; err != nil {
		log.Printf("accolades: loading grants for user %d: %v", user.ID, err)
		return nil
	}
	granted := make(map[string]bool, len(existing))
	for _, a := range existing {
		granted[a.Key] = true
	}

	var fresh []models.Accolade
	for _, rule := range Evaluate(user.Balance, granted, events) {
		ok, err := Grant(db, user.ID, rule)
		if err != nil {
			log.Printf("accolades: granting %q to user %d: %v", rule.Key, user.ID, err)
			continue
		}
		if !ok {
			continue // lost the race to another session, already granted
		}
		if rule.Reward.IsPositive() {
			user.Balance = user.Balance.Add(rule.Reward)
			user.Version++
		}
		fresh = append(fresh, models.Accolade{UserID: user.ID, Key: rule.Key, Reward: rule.Reward})
	}
	return fresh
}

// ApplyStreak advances the login streak for a session start at now and,
// when the day counts, commits streak, last login date, and the balance
// reward as one update. Same-day repeats change nothing. When the write
// fails, the returned result reflects the unchanged account — zero reward,
// current streak — so callers never surface a credit that was not
// committed.
func ApplyStreak(db *gorm.DB, user *models.User, now time.Time) (StreakResult, error) {
	res := AdvanceStreak(user.LoginStreak, user.LastLoginDate, now)
	if !res.Changed {
		return res, nil
	}

	today := DateOnly(now)
	updates := balanceCredit(res.Reward)
	updates["login_streak"] = res.Streak
	updates["last_login_date"] = today
	if err := db.Model(user).Updates(updates).Error; err != nil {
		return StreakResult{Streak: user.LoginStreak}, err
	}

	user.LoginStreak = res.Streak
	user.LastLoginDate = &today
	user.Balance = user.Balance.Add(res.Reward)
	user.Version++
	return res, nil
}
