// Package ledger applies simulated buy and sell trades to an account
// snapshot. It is pure: callers load the snapshot, apply a trade, and
// persist the result in one database transaction. Nothing here touches
// storage, which keeps every invariant unit-testable.
package ledger

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"paper-trader/models"
)

var (
	ErrInvalidQuantity   = errors.New("quantity and price must be positive")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrOverSell          = errors.New("sell quantity exceeds held shares")
)

// Snapshot is the slice of account state a trade reads and rewrites.
// Holdings must contain every lot for the account, including zero-quantity
// ones, in acquisition order.
type Snapshot struct {
	Balance  decimal.Decimal
	Holdings []models.Holding
}

// Result is the state a successful trade commits. Holdings is the full
// post-trade lot list; Changed holds only the lots a sell reduced, and
// NewLot the lot a buy appended, so callers persist exactly what moved.
type Result struct {
	Balance  decimal.Decimal
	Holdings []models.Holding
	Changed  []models.Holding
	NewLot   *models.Holding
	Record   models.Transaction
}

// Buy debits price*quantity from the balance and appends a new lot.
// The snapshot is not mutated.
func Buy(s Snapshot, symbol, stockName string, price decimal.Decimal, quantity int64, now time.Time) (*Result, error) {
	if quantity <= 0 || !price.IsPositive() {
		return nil, ErrInvalidQuantity
	}

	cost := price.Mul(decimal.NewFromInt(quantity))
	if cost.GreaterThan(s.Balance) {
		return nil, ErrInsufficientFunds
	}

	newBalance := s.Balance.Sub(cost)
	lot := models.Holding{
		Symbol:        symbol,
		StockName:     stockName,
		PurchasePrice: price,
		Quantity:      quantity,
		TotalCost:     cost,
		AcquiredAt:    now,
	}

	holdings := make([]models.Holding, len(s.Holdings), len(s.Holdings)+1)
	copy(holdings, s.Holdings)
	holdings = append(holdings, lot)

	return &Result{
		Balance:  newBalance,
		Holdings: holdings,
		NewLot:   &lot,
		Record: models.Transaction{
			Side:         "buy",
			Symbol:       symbol,
			StockName:    stockName,
			Price:        price,
			Quantity:     quantity,
			TotalAmount:  cost,
			BalanceAfter: newBalance,
			ExecutedAt:   now,
		},
	}, nil
}

// Sell credits price*quantity to the balance and reduces held lots for the
// symbol oldest-first until the sold quantity is exhausted. No lot ever goes
// negative; depleted lots stay in the list at quantity zero.
func Sell(s Snapshot, symbol, stockName string, price decimal.Decimal, quantity int64, now time.Time) (*Result, error) {
	if quantity <= 0 || !price.IsPositive() {
		return nil, ErrInvalidQuantity
	}

	var held int64
	for _, h := range s.Holdings {
		if h.Symbol == symbol && h.Quantity > 0 {
			held += h.Quantity
		}
	}
	if quantity > held {
		return nil, ErrOverSell
	}

	holdings := make([]models.Holding, len(s.Holdings))
	copy(holdings, s.Holdings)

	// FIFO: walk open lots of the symbol in acquisition order.
	order := make([]int, 0, len(holdings))
	for i, h := range holdings {
		if h.Symbol == symbol && h.Quantity > 0 {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return holdings[order[a]].AcquiredAt.Before(holdings[order[b]].AcquiredAt)
	})

	var changed []models.Holding
	remaining := quantity
	for _, i := range order {
		if remaining == 0 {
			break
		}
		take := holdings[i].Quantity
		if take > remaining {
			take = remaining
		}
		holdings[i].Quantity -= take
		remaining -= take
		changed = append(changed, holdings[i])
	}

	proceeds := price.Mul(decimal.NewFromInt(quantity))
	newBalance := s.Balance.Add(proceeds)

	return &Result{
		Balance:  newBalance,
		Holdings: holdings,
		Changed:  changed,
		Record: models.Transaction{
			Side:         "sell",
			Symbol:       symbol,
			StockName:    stockName,
			Price:        price,
			Quantity:     quantity,
			TotalAmount:  proceeds,
			BalanceAfter: newBalance,
			ExecutedAt:   now,
		},
	}, nil
}

// HeldQuantity sums open-lot quantity for a symbol.
func HeldQuantity(holdings []models.Holding, symbol string) int64 {
	var held int64
	for _, h := range holdings {
		if h.Symbol == symbol && h.Quantity > 0 {
			held += h.Quantity
		}
	}
	return held
}

// OpenLots filters out depleted lots for holdings views.
func OpenLots(holdings []models.Holding) []models.Holding {
	open := make([]models.Holding, 0, len(holdings))
	for _, h := range holdings {
		if h.Quantity > 0 {
			open = append(open, h)
		}
	}
	return open
}
