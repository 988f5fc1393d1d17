package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockPrice is a cached historical price point for a symbol.
type StockPrice struct {
	gorm.Model
	Symbol    string          `gorm:"index" json:"symbol"`
	Price     decimal.Decimal `gorm:"type:numeric" json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}
