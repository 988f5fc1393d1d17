package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"paper-trader/accolades"
	"paper-trader/config"
	"paper-trader/models"
)

func GetAccolades(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	var granted []models.Accolade
	if err := config.DB.Where("user_id = ?", userID).
		Order("granted_at asc").
		Find(&granted).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch accolades"})
		return
	}

	c.JSON(http.StatusOK, granted)
}

type AccoladeEventInput struct {
	Key string `json:"key" binding:"required"`
}

// RecordAccoladeEvent records a first-occurrence event reported by the
// client (FAQ viewed, company page opened, first news read). The evaluator
// only accepts event-kind keys here; threshold milestones are derived from
// the balance and cannot be claimed.
func RecordAccoladeEvent(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	var input AccoladeEventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule, ok := accolades.RuleByKey(input.Key)
	if !ok || !rule.Event {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown accolade event"})
		return
	}

	var user models.User
	if err := config.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load account"})
		return
	}

	granted := accolades.EvaluateAndGrant(config.DB, &user, []string{input.Key})
	c.JSON(http.StatusOK, gin.H{"newAccolades": granted})
}
