package handlers

import (
	"errors"
	"net/http"

	"github.com/arnavshah/staff-planner-api/pkg/models"
	"github.com/arnavshah/staff-planner-api/pkg/planner"
	"github.com/arnavshah/staff-planner-api/pkg/roster"
	"github.com/gin-gonic/gin"
)

// ValidateInput checks whether a planning request would be accepted without
// recording a run.
func (h *Handler) ValidateInput(c *gin.Context) {
	var input models.PlanRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	if len(input.Roster) == 0 {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": "At least one employee is required"})
		return
	}
	if len(input.Facilities) == 0 {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": "At least one facility is required"})
		return
	}
	if len(input.Present) == 0 {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": planner.ErrEmptyAttendance.Error()})
		return
	}

	snap := roster.Snapshot{Employees: input.Roster, Facilities: input.Facilities}
	if err := snap.Validate(); err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
		return
	}

	// a dry run catches every configuration error the real call would raise
	res, err := planner.Plan(planner.Input{
		Roster:          input.Roster,
		Facilities:      input.Facilities,
		Present:         input.Present,
		Closed:          input.Closed,
		Manual:          input.Manual,
		TrainerRequired: input.TrainerRequired,
		Seed:            h.seedFor(input.Seed),
	})
	if err != nil {
		var cfgErr *planner.ConfigurationError
		if !errors.As(err, &cfgErr) {
			c.JSON(http.StatusInternalServerError, gin.H{"valid": false, "error": "Planning failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
		return
	}

	positions := 0
	for _, row := range res.Plan {
		positions += len(row)
	}
	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"stats": gin.H{
			"employee_count":      len(input.Roster),
			"present_count":       len(input.Present),
			"facility_count":      len(input.Facilities),
			"open_position_count": positions,
			"manual_count":        len(input.Manual),
			"expected_unfilled":   len(res.Unfilled),
			"expected_no_trainer": len(res.MissingTrainer),
		},
	})
}
