package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"paper-trader/config"
	"paper-trader/database"
	"paper-trader/market"
)

// GetQuote fetches a live price and opens a lease on it. The lease id must
// accompany the buy/sell request; the countdown the client renders is
// cosmetic, expiry is recomputed server-side at commit.
func GetQuote(c *gin.Context) {
	symbol := c.Param("symbol")

	lease, err := Market.AcquireLease(c.Request.Context(), symbol)
	if err != nil {
		status, msg := marketErrorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":    lease.Symbol,
		"price":     lease.Price,
		"leaseId":   lease.ID,
		"fetchedAt": lease.FetchedAt,
		"expiresIn": int(lease.Remaining(time.Now()).Seconds()),
	})
}

// GetHistory returns daily closes for a symbol. A series fetched from the
// provider is archived once; cache hits are served as-is.
func GetHistory(c *gin.Context) {
	symbol := c.Param("symbol")

	history, fresh, err := Market.History(c.Request.Context(), symbol)
	if err != nil {
		status, msg := marketErrorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	if fresh {
		if err := database.InsertPriceHistory(config.DB, history, 100); err != nil {
			log.Printf("archiving history for %s: %v", symbol, err)
		}
	}

	c.JSON(http.StatusOK, history)
}

// GetNews returns cached market news.
func GetNews(c *gin.Context) {
	items, err := Market.News(c.Request.Context(), c.DefaultQuery("category", "general"))
	if err != nil {
		status, msg := marketErrorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, items)
}

func marketErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, market.ErrRateLimited):
		return http.StatusServiceUnavailable, "Market data provider is rate limited. Try again later."
	case errors.Is(err, market.ErrNoData):
		return http.StatusNotFound, "No data found for that symbol"
	default:
		return http.StatusServiceUnavailable, "Failed to fetch market data"
	}
}
