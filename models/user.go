package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StartingBalance is the virtual cash every new account is seeded with.
var StartingBalance = decimal.NewFromInt(10000)

// DefaultWatchlist is applied to new accounts.
var DefaultWatchlist = []string{"AAPL", "IBM", "AMZN", "WBD"}

// WatchlistLimit caps how many symbols a user can track.
const WatchlistLimit = 10

type User struct {
	gorm.Model
	Username      string          `json:"username"`
	Email         string          `gorm:"uniqueIndex" json:"email"`
	Password      string          `json:"-"`
	Balance       decimal.Decimal `gorm:"type:numeric" json:"balance"`
	Version       int64           `json:"-"` // optimistic concurrency token, bumped on every ledger commit
	LoginStreak   int             `json:"loginStreak"`
	LastLoginDate *time.Time      `json:"lastLoginDate,omitempty"`
	Watchlist     []string        `gorm:"serializer:json" json:"stockList"`
}
