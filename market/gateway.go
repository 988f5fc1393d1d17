// Package market wraps the third-party market-data providers (Alpha
// Vantage for quotes and daily history, Finnhub for news) behind a
// Redis-first cache, and issues the short-lived price leases that gate
// trade execution.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"

	"paper-trader/models"
)

var (
	ErrAPIKeyMissing = errors.New("ALPHA_VANTAGE_API_KEY not set")
	ErrRateLimited   = errors.New("provider rate limit reached")
	ErrNoData        = errors.New("no data for symbol")
)

const (
	quoteCacheTTL   = 5 * time.Minute
	historyCacheTTL = 24 * time.Hour
	newsCacheTTL    = 15 * time.Minute
)

// Quote is a normalized live price observation.
type Quote struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	AsOf   time.Time       `json:"asOf"`
}

// Gateway talks to the providers. Cache may be nil, in which case every
// call goes straight to the provider.
type Gateway struct {
	Client  *http.Client
	BaseURL string
	NewsURL string
	APIKey  string
	NewsKey string
	Cache   *redis.Client
}

func NewGatewayFromEnv(cache *redis.Client) (*Gateway, error) {
	key := strings.TrimSpace(os.Getenv("ALPHA_VANTAGE_API_KEY"))
	if key == "" {
		return nil, ErrAPIKeyMissing
	}
	return &Gateway{
		Client:  &http.Client{Timeout: 8 * time.Second},
		BaseURL: "https://www.alphavantage.co",
		NewsURL: "https://finnhub.io",
		APIKey:  key,
		NewsKey: strings.TrimSpace(os.Getenv("FINNHUB_API_KEY")),
		Cache:   cache,
	}, nil
}

type alphaVantageResponse struct {
	Note        string `json:"Note"`
	Information string `json:"Information"`
	GlobalQuote struct {
		Price     string `json:"05. price"`
		LatestDay string `json:"07. latest trading day"`
	} `json:"Global Quote"`
	TimeSeriesDaily map[string]struct {
		Open   string `json:"1. open"`
		High   string `json:"2. high"`
		Low    string `json:"3. low"`
		Close  string `json:"4. close"`
		Volume string `json:"5. volume"`
	} `json:"Time Series (Daily)"`
}

// Quote returns the current price for a symbol, serving from cache when a
// recent observation exists.
func (g *Gateway) Quote(ctx context.Context, symbol string) (*Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrNoData
	}

	cacheKey := fmt.Sprintf("stock:%s:price", symbol)
	if g.Cache != nil {
		if cached, err := g.Cache.Get(ctx, cacheKey).Result(); err == nil {
			var q Quote
			if json.Unmarshal([]byte(cached), &q) == nil {
				return &q, nil
			}
		}
	}

	q, err := g.fetchQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if g.Cache != nil {
		if data, err := json.Marshal(q); err == nil {
			g.Cache.Set(ctx, cacheKey, data, quoteCacheTTL)
		}
	}
	return q, nil
}

// fetchQuote always hits the provider. Lease acquisition uses it directly
// so a leased price is a live observation, never a cache read.
func (g *Gateway) fetchQuote(ctx context.Context, symbol string) (*Quote, error) {
	url := fmt.Sprintf("%s/query?function=GLOBAL_QUOTE&symbol=%s&apikey=%s", g.BaseURL, symbol, g.APIKey)
	var result alphaVantageResponse
	if err := g.getJSON(ctx, url, &result); err != nil {
		return nil, err
	}
	if result.Note != "" || result.Information != "" {
		return nil, ErrRateLimited
	}
	if result.GlobalQuote.Price == "" {
		return nil, ErrNoData
	}

	price, err := decimal.NewFromString(result.GlobalQuote.Price)
	if err != nil || !price.IsPositive() {
		return nil, ErrNoData
	}

	asOf := time.Now()
	if result.GlobalQuote.LatestDay != "" {
		if t, err := time.Parse("2006-01-02", result.GlobalQuote.LatestDay); err == nil {
			asOf = t
		}
	}

	return &Quote{Symbol: symbol, Price: price, AsOf: asOf}, nil
}

// History returns daily closing prices for a symbol. The second return is
// true only when the series came from the provider rather than the cache,
// so callers archive each provider response exactly once.
func (g *Gateway) History(ctx context.Context, symbol string) ([]models.StockPrice, bool, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, false, ErrNoData
	}

	cacheKey := fmt.Sprintf("stock:%s:history", symbol)
	if g.Cache != nil {
		if cached, err := g.Cache.Get(ctx, cacheKey).Result(); err == nil {
			var history []models.StockPrice
			if json.Unmarshal([]byte(cached), &history) == nil {
				return history, false, nil
			}
		}
	}

	url := fmt.Sprintf("%s/query?function=TIME_SERIES_DAILY&symbol=%s&apikey=%s", g.BaseURL, symbol, g.APIKey)
	var result alphaVantageResponse
	if err := g.getJSON(ctx, url, &result); err != nil {
		return nil, false, err
	}
	if result.Note != "" || result.Information != "" {
		return nil, false, ErrRateLimited
	}
	if len(result.TimeSeriesDaily) == 0 {
		return nil, false, ErrNoData
	}

	history := make([]models.StockPrice, 0, len(result.TimeSeriesDaily))
	for date, day := range result.TimeSeriesDaily {
		closePrice, err := decimal.NewFromString(day.Close)
		if err != nil {
			continue
		}
		timestamp, err := time.Parse("2006-01-02", date)
		if err != nil {
			continue
		}
		history = append(history, models.StockPrice{
			Symbol:    symbol,
			Price:     closePrice,
			Timestamp: timestamp,
		})
	}

	if g.Cache != nil {
		if data, err := json.Marshal(history); err == nil {
			g.Cache.Set(ctx, cacheKey, data, historyCacheTTL)
		}
	}
	return history, true, nil
}

func (g *Gateway) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider returned %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
