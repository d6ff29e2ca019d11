package handlers

import (
	"net/http"

	"github.com/arnavshah/staff-planner-api/pkg/database"
	"github.com/gin-gonic/gin"
)

// GetMyUsage returns usage stats for the authenticated API key
func (h *Handler) GetMyUsage(c *gin.Context) {
	apiKey, ok := apiKeyFrom(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "API Key context missing"})
		return
	}

	var usage []database.APIUsage
	if err := h.DB.Where("key_id = ?", apiKey.ID).Order("date desc").Limit(30).Find(&usage).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch usage details"})
		return
	}

	var totalRequests, totalPositions, totalEmployees int64
	for _, u := range usage {
		totalRequests += int64(u.RequestCount)
		totalPositions += int64(u.TotalPositions)
		totalEmployees += int64(u.TotalEmployees)
	}

	c.JSON(http.StatusOK, gin.H{
		"key_name":      apiKey.Name,
		"rate_limit":    apiKey.RateLimit,
		"usage_history": usage,
		"totals": gin.H{
			"requests":  totalRequests,
			"positions": totalPositions,
			"employees": totalEmployees,
		},
	})
}

// ListRuns returns the latest plan runs of the authenticated API key
func (h *Handler) ListRuns(c *gin.Context) {
	apiKey, ok := apiKeyFrom(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "API Key context missing"})
		return
	}

	runs, err := h.Store.ListPlanRuns(c.Request.Context(), apiKey.ID, 30)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch plan runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
