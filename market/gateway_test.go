package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGateway(handler http.HandlerFunc) (*Gateway, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return &Gateway{
		Client:  srv.Client(),
		BaseURL: srv.URL,
		NewsURL: srv.URL,
		APIKey:  "test-key",
		NewsKey: "test-key",
	}, srv
}

func TestQuoteParsesGlobalQuote(t *testing.T) {
	gw, srv := testGateway(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		assert.Equal(t, "ACME", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"Global Quote": {"05. price": "123.45", "07. latest trading day": "2026-03-09"}}`))
	})
	defer srv.Close()

	q, err := gw.Quote(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "ACME", q.Symbol)
	assert.Equal(t, "123.45", q.Price.String())
	assert.Equal(t, 2026, q.AsOf.Year())
}

func TestQuoteRateLimited(t *testing.T) {
	gw, srv := testGateway(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 25 requests per day."}`))
	})
	defer srv.Close()

	_, err := gw.Quote(context.Background(), "ACME")
	assert.ErrorIs(t, err, ErrRateLimited)

	// "Information" payloads mean the same thing.
	gw2, srv2 := testGateway(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Information": "API key limit reached"}`))
	})
	defer srv2.Close()

	_, err = gw2.Quote(context.Background(), "ACME")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestQuoteNoData(t *testing.T) {
	gw, srv := testGateway(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Global Quote": {}}`))
	})
	defer srv.Close()

	_, err := gw.Quote(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrNoData)

	_, err = gw.Quote(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestHistoryParsesDailySeries(t *testing.T) {
	gw, srv := testGateway(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "TIME_SERIES_DAILY", r.URL.Query().Get("function"))
		w.Write([]byte(`{"Time Series (Daily)": {
			"2026-03-09": {"1. open": "120", "2. high": "125", "3. low": "118", "4. close": "123.45", "5. volume": "10000"},
			"2026-03-08": {"1. open": "118", "2. high": "121", "3. low": "117", "4. close": "119.00", "5. volume": "8000"}
		}}`))
	})
	defer srv.Close()

	history, fresh, err := gw.History(context.Background(), "ACME")
	require.NoError(t, err)
	// A provider fetch must report fresh so its rows get archived; only a
	// cache hit may report otherwise.
	assert.True(t, fresh)
	require.Len(t, history, 2)
	for _, p := range history {
		assert.Equal(t, "ACME", p.Symbol)
		assert.True(t, p.Price.IsPositive())
		assert.False(t, p.Timestamp.IsZero())
	}
}

func TestHistoryErrorsAreNeverFresh(t *testing.T) {
	gw, srv := testGateway(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Note": "rate limited"}`))
	})
	defer srv.Close()

	_, fresh, err := gw.History(context.Background(), "ACME")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.False(t, fresh)

	_, fresh, err = gw.History(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrNoData)
	assert.False(t, fresh)
}

func TestAcquireLeaseUsesLivePrice(t *testing.T) {
	gw, srv := testGateway(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Global Quote": {"05. price": "50", "07. latest trading day": "2026-03-09"}}`))
	})
	defer srv.Close()

	before := time.Now()
	lease, err := gw.AcquireLease(context.Background(), "ACME")
	require.NoError(t, err)

	assert.NotEmpty(t, lease.ID)
	assert.Equal(t, "ACME", lease.Symbol)
	assert.Equal(t, "50", lease.Price.String())
	assert.False(t, lease.FetchedAt.Before(before))
	assert.True(t, lease.ValidAt(time.Now()))
}

func TestAcquireLeaseProviderFailure(t *testing.T) {
	gw, srv := testGateway(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	defer srv.Close()

	_, err := gw.AcquireLease(context.Background(), "ACME")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestGetLeaseWithoutStore(t *testing.T) {
	gw := &Gateway{}
	_, err := gw.GetLease(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrQuoteExpired)
}

func TestNews(t *testing.T) {
	gw, srv := testGateway(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "general", r.URL.Query().Get("category"))
		w.Write([]byte(`[{"category":"general","headline":"Markets rally","id":1,"source":"wire","url":"https://example.com"}]`))
	})
	defer srv.Close()

	items, err := gw.News(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Markets rally", items[0].Headline)
}
