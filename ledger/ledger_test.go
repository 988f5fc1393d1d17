package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-trader/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func lot(symbol string, price string, qty int64, acquired time.Time) models.Holding {
	p := d(price)
	return models.Holding{
		Symbol:        symbol,
		StockName:     symbol + " Inc",
		PurchasePrice: p,
		Quantity:      qty,
		TotalCost:     p.Mul(decimal.NewFromInt(qty)),
		AcquiredAt:    acquired,
	}
}

func TestBuy(t *testing.T) {
	now := time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC)
	snapshot := Snapshot{Balance: d("10000")}

	result, err := Buy(snapshot, "ACME", "Acme Corp", d("50"), 10, now)
	require.NoError(t, err)

	assert.Equal(t, "9500", result.Balance.String())
	require.Len(t, result.Holdings, 1)

	got := result.Holdings[0]
	assert.Equal(t, "ACME", got.Symbol)
	assert.Equal(t, int64(10), got.Quantity)
	assert.Equal(t, "500", got.TotalCost.String())
	assert.Equal(t, "50", got.PurchasePrice.String())
	assert.Equal(t, now, got.AcquiredAt)

	require.NotNil(t, result.NewLot)
	assert.Equal(t, "buy", result.Record.Side)
	assert.Equal(t, "9500", result.Record.BalanceAfter.String())
	assert.Equal(t, "500", result.Record.TotalAmount.String())
}

func TestBuyValidation(t *testing.T) {
	now := time.Now()
	snapshot := Snapshot{Balance: d("10000")}

	tests := []struct {
		name     string
		price    decimal.Decimal
		quantity int64
		wantErr  error
	}{
		{"zero quantity", d("50"), 0, ErrInvalidQuantity},
		{"negative quantity", d("50"), -3, ErrInvalidQuantity},
		{"zero price", decimal.Zero, 10, ErrInvalidQuantity},
		{"negative price", d("-1"), 10, ErrInvalidQuantity},
		{"insufficient funds", d("50"), 201, ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Buy(snapshot, "ACME", "Acme Corp", tt.price, tt.quantity, now)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, result)
		})
	}
}

func TestBuyCanSpendEntireBalance(t *testing.T) {
	snapshot := Snapshot{Balance: d("500")}

	result, err := Buy(snapshot, "ACME", "Acme Corp", d("50"), 10, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "0", result.Balance.String())
	assert.False(t, result.Balance.IsNegative())
}

func TestSellFIFO(t *testing.T) {
	t1 := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 2, 5, 10, 0, 0, 0, time.UTC)
	snapshot := Snapshot{
		Balance: d("1000"),
		Holdings: []models.Holding{
			lot("ACME", "40", 10, t1),
			lot("ACME", "55", 10, t2),
		},
	}

	// Selling 13 drains the oldest lot and takes 3 from the second.
	result, err := Sell(snapshot, "ACME", "Acme Corp", d("60"), 13, t2.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, int64(0), result.Holdings[0].Quantity)
	assert.Equal(t, int64(7), result.Holdings[1].Quantity)
	assert.Equal(t, "1780", result.Balance.String())
	assert.Equal(t, "1780", result.Record.BalanceAfter.String())
	assert.Len(t, result.Changed, 2)
	assert.Nil(t, result.NewLot)
}

func TestSellFIFOIgnoresInsertionOrder(t *testing.T) {
	t1 := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 2, 5, 10, 0, 0, 0, time.UTC)

	// Older lot listed second: FIFO must follow acquisition time.
	snapshot := Snapshot{
		Balance: d("0"),
		Holdings: []models.Holding{
			lot("ACME", "55", 10, t2),
			lot("ACME", "40", 10, t1),
		},
	}

	result, err := Sell(snapshot, "ACME", "Acme Corp", d("60"), 12, t2.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, int64(8), result.Holdings[0].Quantity, "newer lot keeps its remainder")
	assert.Equal(t, int64(0), result.Holdings[1].Quantity, "older lot drains first")
}

func TestSellSkipsDepletedAndOtherSymbols(t *testing.T) {
	t1 := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	snapshot := Snapshot{
		Balance: d("0"),
		Holdings: []models.Holding{
			lot("ACME", "40", 0, t1), // already depleted
			lot("GLOBEX", "12", 50, t1),
			lot("ACME", "45", 5, t1.Add(time.Hour)),
		},
	}

	result, err := Sell(snapshot, "ACME", "Acme Corp", d("50"), 5, t1.Add(2*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, int64(0), result.Holdings[2].Quantity)
	assert.Equal(t, int64(50), result.Holdings[1].Quantity, "other symbol untouched")
	for _, h := range result.Holdings {
		assert.GreaterOrEqual(t, h.Quantity, int64(0))
	}
}

func TestSellOverSell(t *testing.T) {
	t1 := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	snapshot := Snapshot{
		Balance:  d("10000"),
		Holdings: []models.Holding{lot("ACME", "50", 10, t1)},
	}

	result, err := Sell(snapshot, "ACME", "Acme Corp", d("60"), 15, time.Now())
	assert.ErrorIs(t, err, ErrOverSell)
	assert.Nil(t, result)

	// Depleted lots do not count toward what can be sold.
	snapshot.Holdings = append(snapshot.Holdings, lot("ACME", "45", 0, t1))
	_, err = Sell(snapshot, "ACME", "Acme Corp", d("60"), 11, time.Now())
	assert.ErrorIs(t, err, ErrOverSell)
}

func TestSellValidation(t *testing.T) {
	snapshot := Snapshot{
		Balance:  d("10000"),
		Holdings: []models.Holding{lot("ACME", "50", 10, time.Now())},
	}

	_, err := Sell(snapshot, "ACME", "Acme Corp", d("60"), 0, time.Now())
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = Sell(snapshot, "ACME", "Acme Corp", decimal.Zero, 5, time.Now())
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestTradesDoNotMutateSnapshot(t *testing.T) {
	t1 := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	snapshot := Snapshot{
		Balance:  d("10000"),
		Holdings: []models.Holding{lot("ACME", "50", 10, t1)},
	}

	_, err := Buy(snapshot, "ACME", "Acme Corp", d("50"), 5, time.Now())
	require.NoError(t, err)
	_, err = Sell(snapshot, "ACME", "Acme Corp", d("60"), 5, time.Now())
	require.NoError(t, err)

	assert.Equal(t, "10000", snapshot.Balance.String())
	require.Len(t, snapshot.Holdings, 1)
	assert.Equal(t, int64(10), snapshot.Holdings[0].Quantity)
}

func TestHeldQuantityAndOpenLots(t *testing.T) {
	t1 := time.Now()
	holdings := []models.Holding{
		lot("ACME", "50", 10, t1),
		lot("ACME", "55", 0, t1),
		lot("GLOBEX", "12", 3, t1),
	}

	assert.Equal(t, int64(10), HeldQuantity(holdings, "ACME"))
	assert.Equal(t, int64(0), HeldQuantity(holdings, "INITECH"))
	assert.Len(t, OpenLots(holdings), 2)
}
