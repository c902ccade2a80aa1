package handlers

import (
	"log"
	"net/http"

	"github.com/arnavshah/od-resolver-go/pkg/database"
	"github.com/gin-gonic/gin"
)

// usageDays is how much history GetUsage returns
const usageDays = 30

// GetUsage returns the daily aggregate counters of recent runs
func (h *Handler) GetUsage(c *gin.Context) {
	if h.DB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Usage ledger is disabled"})
		return
	}

	usage, totals, err := database.RecentUsage(h.DB, usageDays)
	if err != nil {
		log.Printf("fetch usage: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch usage details"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"usage_history": usage,
		"totals":        totals,
	})
}
