package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"paper-trader/accolades"
	"paper-trader/config"
	"paper-trader/ledger"
	"paper-trader/market"
	"paper-trader/models"
)

// casRetries bounds the optimistic-concurrency retry loop. Conflicts only
// come from the same user's other sessions, so contention is near zero.
const casRetries = 3

type TradeInput struct {
	LeaseID   string `json:"leaseId" binding:"required"`
	Symbol    string `json:"symbol" binding:"required"`
	StockName string `json:"stockName"`
	Quantity  int64  `json:"quantity" binding:"required,min=1"`
}

func Buy(c *gin.Context) {
	executeTrade(c, "buy")
}

func Sell(c *gin.Context) {
	executeTrade(c, "sell")
}

func executeTrade(c *gin.Context, side string) {
	userID := c.MustGet("user_id").(uint)

	var input TradeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.Symbol = strings.ToUpper(strings.TrimSpace(input.Symbol))

	lease, err := Market.GetLease(c.Request.Context(), input.LeaseID)
	if err != nil {
		if errors.Is(err, market.ErrQuoteExpired) {
			c.JSON(http.StatusConflict, gin.H{"error": "Price quote expired. Please refresh to continue."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify price quote"})
		return
	}
	if err := lease.ForSymbol(input.Symbol); errors.Is(err, market.ErrSymbolMismatch) {
		c.JSON(http.StatusConflict, gin.H{"error": "Quote does not match this stock. Please refresh."})
		return
	}

	var user models.User
	var result *ledger.Result

	for attempt := 0; attempt < casRetries; attempt++ {
		if err := config.DB.First(&user, userID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load account"})
			return
		}

		// Expiry is authoritative at commit time: wall clock against the
		// lease's fetch timestamp, never a client countdown.
		if !lease.ValidAt(time.Now()) {
			c.JSON(http.StatusConflict, gin.H{"error": "Price quote expired. Please refresh to continue."})
			return
		}

		var holdings []models.Holding
		if err := config.DB.Where("user_id = ?", userID).
			Order("acquired_at asc, id asc").
			Find(&holdings).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load holdings"})
			return
		}

		snapshot := ledger.Snapshot{Balance: user.Balance, Holdings: holdings}
		now := time.Now()

		if side == "buy" {
			result, err = ledger.Buy(snapshot, input.Symbol, input.StockName, lease.Price, input.Quantity, now)
		} else {
			result, err = ledger.Sell(snapshot, input.Symbol, input.StockName, lease.Price, input.Quantity, now)
		}
		if err != nil {
			c.JSON(tradeErrorStatus(err), gin.H{"error": err.Error()})
			return
		}

		committed, err := commitTrade(&user, result)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit trade"})
			return
		}
		if committed {
			break
		}
		if attempt == casRetries-1 {
			c.JSON(http.StatusConflict, gin.H{"error": "Account changed concurrently. Please retry."})
			return
		}
	}

	user.Balance = result.Balance
	user.Version++

	event := "firstBuy"
	if side == "sell" {
		event = "firstSell"
	}
	granted := accolades.EvaluateAndGrant(config.DB, &user, []string{event})

	var txLog models.TransactionLog
	config.DB.Where("user_id = ? AND side = ?", userID, "buy").Order("executed_at asc").Find(&txLog.Buy)
	config.DB.Where("user_id = ? AND side = ?", userID, "sell").Order("executed_at asc").Find(&txLog.Sell)

	c.JSON(http.StatusOK, gin.H{
		"newBalance":   user.Balance,
		"holdings":     ledger.OpenLots(result.Holdings),
		"transactions": txLog,
		"newAccolades": granted,
	})
}

// commitTrade writes a ledger result in one transaction, guarded by a
// compare-and-swap on the user's version column. Returns false, nil when
// another session committed in between and the caller should re-read and
// retry.
func commitTrade(user *models.User, result *ledger.Result) (bool, error) {
	tx := config.DB.Begin()
	if tx.Error != nil {
		return false, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	res := tx.Model(&models.User{}).
		Where("id = ? AND version = ?", user.ID, user.Version).
		Updates(map[string]interface{}{
			"balance": result.Balance,
			"version": user.Version + 1,
		})
	if res.Error != nil {
		tx.Rollback()
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return false, nil
	}

	if result.NewLot != nil {
		result.NewLot.UserID = user.ID
		if err := tx.Create(result.NewLot).Error; err != nil {
			tx.Rollback()
			return false, err
		}
	}

	for _, lot := range result.Changed {
		if err := tx.Model(&models.Holding{}).
			Where("id = ?", lot.ID).
			Update("quantity", lot.Quantity).Error; err != nil {
			tx.Rollback()
			return false, err
		}
	}

	record := result.Record
	record.UserID = user.ID
	if err := tx.Create(&record).Error; err != nil {
		tx.Rollback()
		return false, err
	}

	return true, tx.Commit().Error
}

func tradeErrorStatus(err error) int {
	switch {
	case errors.Is(err, ledger.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrInsufficientFunds), errors.Is(err, ledger.ErrOverSell):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
