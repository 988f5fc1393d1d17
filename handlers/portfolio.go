package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"paper-trader/accolades"
	"paper-trader/config"
	"paper-trader/ledger"
	"paper-trader/models"
)

// HoldingView is an open lot priced against the latest quote. ProfitLoss
// compares the live price to this lot's own purchase price.
type HoldingView struct {
	models.Holding
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	ProfitLoss   decimal.Decimal `json:"profitLoss"`
}

func GetPortfolio(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	var holdings []models.Holding
	if err := config.DB.Where("user_id = ? AND quantity > 0", userID).
		Order("acquired_at asc, id asc").
		Find(&holdings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch portfolio"})
		return
	}

	// One cached quote per distinct symbol; a provider miss leaves the
	// lot unpriced rather than failing the whole view.
	prices := make(map[string]decimal.Decimal)
	for _, h := range holdings {
		if _, ok := prices[h.Symbol]; ok {
			continue
		}
		if q, err := Market.Quote(c.Request.Context(), h.Symbol); err == nil {
			prices[h.Symbol] = q.Price
		}
	}

	views := make([]HoldingView, 0, len(holdings))
	for _, h := range holdings {
		view := HoldingView{Holding: h}
		if price, ok := prices[h.Symbol]; ok {
			view.CurrentPrice = price
			qty := decimal.NewFromInt(h.Quantity)
			view.ProfitLoss = price.Sub(h.PurchasePrice).Mul(qty)
		}
		views = append(views, view)
	}

	c.JSON(http.StatusOK, views)
}

func GetTransactions(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	var txLog models.TransactionLog
	if err := config.DB.Where("user_id = ? AND side = ?", userID, "buy").
		Order("executed_at asc").Find(&txLog.Buy).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}
	if err := config.DB.Where("user_id = ? AND side = ?", userID, "sell").
		Order("executed_at asc").Find(&txLog.Sell).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}

	c.JSON(http.StatusOK, txLog)
}

func GetProfile(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	var user models.User
	if err := config.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load account"})
		return
	}

	var holdings []models.Holding
	config.DB.Where("user_id = ?", userID).Order("acquired_at asc, id asc").Find(&holdings)

	c.JSON(http.StatusOK, gin.H{
		"user":     user,
		"holdings": ledger.OpenLots(holdings),
	})
}

func GetWatchlist(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	var user models.User
	if err := config.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stockList": user.Watchlist})
}

type WatchlistInput struct {
	StockList []string `json:"stockList" binding:"required"`
}

func UpdateWatchlist(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	var input WatchlistInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cleaned := make([]string, 0, len(input.StockList))
	seen := make(map[string]bool)
	for _, s := range input.StockList {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		cleaned = append(cleaned, s)
	}
	if len(cleaned) > models.WatchlistLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Watchlist is limited to 10 symbols"})
		return
	}

	var user models.User
	if err := config.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load account"})
		return
	}

	user.Watchlist = cleaned
	if err := config.DB.Model(&user).Update("watchlist", cleaned).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update watchlist"})
		return
	}

	var granted []models.Accolade
	if len(cleaned) > 0 {
		granted = accolades.EvaluateAndGrant(config.DB, &user, []string{"firstWatchlistAdd"})
	}

	c.JSON(http.StatusOK, gin.H{"stockList": cleaned, "newAccolades": granted})
}
