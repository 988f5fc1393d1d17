// Package accolades holds the gamification layer: one-time milestone
// grants and the daily login streak. Everything is subordinate to the
// ledger — a failed grant is logged and swallowed, never propagated into
// the trade or login that triggered it.
package accolades

import (
	"github.com/shopspring/decimal"
)

// Rule is one grantable milestone. Threshold rules fire when earnings
// (balance over the starting 10000) reach Threshold; event rules fire when
// the triggering action reports their key. A key is granted at most once
// per account, ever.
type Rule struct {
	Key       string
	Label     string
	Threshold decimal.Decimal // zero for event rules
	Event     bool
	Reward    decimal.Decimal
}

// baseBalance is the seed balance earnings are measured against.
var baseBalance = decimal.NewFromInt(10000)

var Rules = []Rule{
	{Key: "firstHundred", Label: "Earned $100", Threshold: decimal.NewFromInt(100)},
	{Key: "firstThousand", Label: "Earned $1,000", Threshold: decimal.NewFromInt(1000)},
	{Key: "firstFiveThousand", Label: "Earned $5,000", Threshold: decimal.NewFromInt(5000)},
	{Key: "firstTenThousand", Label: "Earned $10,000", Threshold: decimal.NewFromInt(10000)},
	{Key: "firstBuy", Label: "First Stock Purchase", Event: true},
	{Key: "firstSell", Label: "First Stock Sale", Event: true},
	{Key: "firstNews", Label: "Read First News", Event: true},
	{Key: "firstWatchlistAdd", Label: "Added to Watchlist", Event: true},
	{Key: "visitedCompany", Label: "First Company Viewed", Event: true},
	{Key: "faqViewed", Label: "FAQ Nerd Badge", Event: true},
}

// RuleByKey returns the rule for a key, or false when no such rule exists.
func RuleByKey(key string) (Rule, bool) {
	for _, r := range Rules {
		if r.Key == key {
			return r, true
		}
	}
	return Rule{}, false
}

// Evaluate returns the rules that should be granted now: threshold rules
// whose earnings predicate holds plus event rules named in events, minus
// anything already granted. It is pure; calling it again with the same
// inputs returns the same grants, and calling it after those grants land
// returns nothing.
func Evaluate(balance decimal.Decimal, granted map[string]bool, events []string) []Rule {
	fired := make(map[string]bool, len(events))
	for _, e := range events {
		fired[e] = true
	}

	earnings := balance.Sub(baseBalance)

	var due []Rule
	for _, r := range Rules {
		if granted[r.Key] {
			continue
		}
		if r.Event {
			if fired[r.Key] {
				due = append(due, r)
			}
			continue
		}
		if earnings.GreaterThanOrEqual(r.Threshold) {
			due = append(due, r)
		}
	}
	return due
}
