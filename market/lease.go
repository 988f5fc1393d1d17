package market

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LeaseTTL is how long a fetched price authorizes a trade. Expiry is
// always recomputed from FetchedAt at the moment of use; the UI countdown
// and the Redis TTL are both advisory.
const LeaseTTL = 10 * time.Second

// leaseGrace keeps the Redis record around slightly past expiry so a
// just-too-late submission gets a clean QuoteExpired instead of a
// not-found.
const leaseGrace = 5 * time.Second

var (
	ErrQuoteExpired   = errors.New("price quote expired")
	ErrSymbolMismatch = errors.New("lease was issued for a different symbol")
)

// Lease is a time-boxed reservation of a live price. Once expired it is
// dead; refreshing means acquiring a new, unrelated lease.
type Lease struct {
	ID        string          `json:"leaseId"`
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

// ValidAt reports whether the lease still authorizes a trade at now.
func (l *Lease) ValidAt(now time.Time) bool {
	return now.Sub(l.FetchedAt) < LeaseTTL
}

// ForSymbol checks that the lease was issued for symbol; a lease
// authorizes a trade in that one symbol only.
func (l *Lease) ForSymbol(symbol string) error {
	if l.Symbol != symbol {
		return ErrSymbolMismatch
	}
	return nil
}

// Remaining returns the validity window left at now, floored at zero.
func (l *Lease) Remaining(now time.Time) time.Duration {
	left := LeaseTTL - now.Sub(l.FetchedAt)
	if left < 0 {
		return 0
	}
	return left
}

// AcquireLease fetches a live price for the symbol and reserves it for
// LeaseTTL. The fetch bypasses the quote cache: a leased price must be a
// fresh observation.
func (g *Gateway) AcquireLease(ctx context.Context, symbol string) (*Lease, error) {
	q, err := g.fetchQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	lease := &Lease{
		ID:        uuid.NewString(),
		Symbol:    q.Symbol,
		Price:     q.Price,
		FetchedAt: time.Now(),
	}

	if g.Cache != nil {
		data, err := json.Marshal(lease)
		if err != nil {
			return nil, err
		}
		if err := g.Cache.Set(ctx, "lease:"+lease.ID, data, LeaseTTL+leaseGrace).Err(); err != nil {
			return nil, err
		}
	}
	return lease, nil
}

// GetLease loads a previously acquired lease. A missing record means the
// lease expired and was evicted.
func (g *Gateway) GetLease(ctx context.Context, id string) (*Lease, error) {
	if g.Cache == nil || id == "" {
		return nil, ErrQuoteExpired
	}

	data, err := g.Cache.Get(ctx, "lease:"+id).Result()
	if err == redis.Nil {
		return nil, ErrQuoteExpired
	}
	if err != nil {
		return nil, err
	}

	var lease Lease
	if err := json.Unmarshal([]byte(data), &lease); err != nil {
		return nil, err
	}
	return &lease, nil
}
