package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Holding is a single acquisition lot. Repeated buys of the same symbol
// append new lots; sells reduce lot quantities oldest-first. A lot whose
// quantity reaches zero is kept for cost-basis history and filtered out of
// holdings views.
type Holding struct {
	gorm.Model
	UserID        uint            `gorm:"index" json:"-"`
	Symbol        string          `gorm:"index" json:"symbol"`
	StockName     string          `json:"stockName"`
	PurchasePrice decimal.Decimal `gorm:"type:numeric" json:"pricePurchasedAt"`
	Quantity      int64           `json:"amountOfStock"`
	TotalCost     decimal.Decimal `gorm:"type:numeric" json:"totalPriceAtPurchase"`
	AcquiredAt    time.Time       `json:"acquiredAt"`
}

// Transaction is one executed trade leg. Rows are append-only; BalanceAfter
// is a display snapshot of the account balance right after the trade, never
// used to re-derive state.
type Transaction struct {
	gorm.Model
	UserID       uint            `gorm:"index" json:"-"`
	Side         string          `gorm:"index" json:"-"` // "buy" or "sell"
	Symbol       string          `json:"symbol"`
	StockName    string          `json:"stockName"`
	Price        decimal.Decimal `gorm:"type:numeric" json:"price"`
	Quantity     int64           `json:"quantity"`
	TotalAmount  decimal.Decimal `gorm:"type:numeric" json:"totalAmount"`
	BalanceAfter decimal.Decimal `gorm:"type:numeric" json:"balanceAfter"`
	ExecutedAt   time.Time       `json:"date"`
}

// TransactionLog groups the two append-only legs the way API responses
// return them.
type TransactionLog struct {
	Buy  []Transaction `json:"buy"`
	Sell []Transaction `json:"sell"`
}
