package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Accolade is one granted milestone. The composite unique index is what
// makes grants append-if-absent: a second insert for the same (user, key)
// is a no-op, so concurrent evaluations can never double-grant.
type Accolade struct {
	gorm.Model
	UserID    uint            `gorm:"uniqueIndex:idx_user_accolade" json:"-"`
	Key       string          `gorm:"uniqueIndex:idx_user_accolade" json:"key"`
	Reward    decimal.Decimal `gorm:"type:numeric" json:"reward"`
	GrantedAt time.Time       `json:"grantedAt"`
}
