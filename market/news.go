package market

import (
	"context"
	"encoding/json"
	"fmt"
)

// NewsItem is one Finnhub market-news article.
type NewsItem struct {
	Category string `json:"category"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	ID       int64  `json:"id"`
	Image    string `json:"image"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// News returns general market news, cached for fifteen minutes.
func (g *Gateway) News(ctx context.Context, category string) ([]NewsItem, error) {
	if category == "" {
		category = "general"
	}
	if g.NewsKey == "" {
		return nil, ErrNoData
	}

	cacheKey := fmt.Sprintf("news:%s", category)
	if g.Cache != nil {
		if cached, err := g.Cache.Get(ctx, cacheKey).Result(); err == nil {
			var items []NewsItem
			if json.Unmarshal([]byte(cached), &items) == nil {
				return items, nil
			}
		}
	}

	url := fmt.Sprintf("%s/api/v1/news?category=%s&token=%s", g.NewsURL, category, g.NewsKey)
	var items []NewsItem
	if err := g.getJSON(ctx, url, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNoData
	}

	if g.Cache != nil {
		if data, err := json.Marshal(items); err == nil {
			g.Cache.Set(ctx, cacheKey, data, newsCacheTTL)
		}
	}
	return items, nil
}
