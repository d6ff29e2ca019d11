package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/arnavshah/staff-planner-api/pkg/database"
	"github.com/arnavshah/staff-planner-api/pkg/export"
	"github.com/arnavshah/staff-planner-api/pkg/metrics"
	"github.com/arnavshah/staff-planner-api/pkg/models"
	"github.com/arnavshah/staff-planner-api/pkg/planner"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PlanJSON plans a shift from a roster and catalog supplied in the body
func (h *Handler) PlanJSON(c *gin.Context) {
	var req models.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, ok := h.runPlan(c, req.Roster, req.Facilities, req.Selections)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PlanStored plans a shift against the roster and catalog in the database
func (h *Handler) PlanStored(c *gin.Context) {
	var req models.StoredPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := h.Store.Snapshot(c.Request.Context())
	if err != nil {
		h.Log.Error("load roster snapshot", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load roster"})
		return
	}

	resp, ok := h.runPlan(c, snap.Employees, snap.Facilities, req.Selections)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PlanCSV plans like PlanJSON and returns the plan as CSV rows
func (h *Handler) PlanCSV(c *gin.Context) {
	var req models.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, ok := h.runPlan(c, req.Roster, req.Facilities, req.Selections)
	if !ok {
		return
	}

	var out strings.Builder
	if err := export.WriteCSV(&out, req.Facilities, resp.Plan); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not write CSV"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run_id": resp.RunID, "csv": out.String()})
}

func (h *Handler) seedFor(requested *int64) int64 {
	switch {
	case requested != nil:
		return *requested
	case h.Config.PlanSeed != nil:
		return *h.Config.PlanSeed
	default:
		return time.Now().UnixNano()
	}
}

// runPlan calls the engine and writes an error response on failure
func (h *Handler) runPlan(c *gin.Context, roster []models.Employee, facilities []models.Facility, sel models.Selections) (*models.PlanResponse, bool) {
	if len(sel.Present) == 0 {
		h.Metrics.ObserveFailure(metrics.OutcomeEmptyAttendance)
		c.JSON(http.StatusBadRequest, gin.H{"error": planner.ErrEmptyAttendance.Error()})
		return nil, false
	}

	seed := h.seedFor(sel.Seed)
	start := time.Now()
	res, err := planner.Plan(planner.Input{
		Roster:          roster,
		Facilities:      facilities,
		Present:         sel.Present,
		Closed:          sel.Closed,
		Manual:          sel.Manual,
		TrainerRequired: sel.TrainerRequired,
		Seed:            seed,
	})
	took := time.Since(start)
	if err != nil {
		var cfgErr *planner.ConfigurationError
		if errors.As(err, &cfgErr) {
			h.Metrics.ObserveFailure(metrics.OutcomeConfigurationError)
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":    err.Error(),
				"employee": cfgErr.Employee,
				"facility": cfgErr.Facility,
				"position": cfgErr.Position,
			})
			return nil, false
		}
		h.Log.Error("plan", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Planning failed"})
		return nil, false
	}

	h.Metrics.ObservePlan(len(res.Unfilled), res.Swaps, len(res.MissingTrainer), took)
	resp := toResponse(res, seed)
	resp.RunID = uuid.NewString()

	positions := 0
	for _, row := range res.Plan {
		positions += len(row)
	}
	h.RecordUsage(c, positions, len(sel.Present))
	h.recordRun(c, resp, positions, len(sel.Present))

	h.Log.Info("plan created",
		zap.String("run_id", resp.RunID),
		zap.Int64("seed", seed),
		zap.Int("positions", positions),
		zap.Int("unfilled", len(res.Unfilled)),
		zap.Strings("missing_trainer", res.MissingTrainer),
		zap.Int("swaps", res.Swaps),
		zap.Duration("took", took),
	)
	if len(res.TrainerDisplaced) > 0 {
		h.Log.Warn("repair moved a trainer away", zap.String("run_id", resp.RunID), zap.Strings("facilities", res.TrainerDisplaced))
	}
	return resp, true
}

func (h *Handler) recordRun(c *gin.Context, resp *models.PlanResponse, positions, present int) {
	run := database.PlanRun{
		ID:             resp.RunID,
		Seed:           resp.Seed,
		Present:        present,
		Positions:      positions,
		Unfilled:       len(resp.Unfilled),
		MissingTrainer: len(resp.MissingTrainer),
		Swaps:          resp.Swaps,
	}
	if apiKey, ok := apiKeyFrom(c); ok {
		run.KeyID = apiKey.ID
	}
	if data, err := json.Marshal(resp); err == nil {
		run.Result = string(data)
	}
	if err := h.Store.SavePlanRun(c.Request.Context(), &run); err != nil {
		h.Log.Warn("save plan run", zap.String("run_id", run.ID), zap.Error(err))
	}
}

func toResponse(res *planner.Result, seed int64) *models.PlanResponse {
	return &models.PlanResponse{
		Seed:               seed,
		Plan:               res.Plan,
		Labels:             res.Plan.Labels(),
		Placed:             nonNil(res.Placed),
		Unfilled:           nonNilSlots(res.Unfilled),
		MissingTrainer:     nonNil(res.MissingTrainer),
		Unplaced:           nonNil(res.Unplaced),
		BreakerSuggestions: res.BreakerSuggestions,
		TrainerDisplaced:   res.TrainerDisplaced,
		RepairRounds:       res.RepairRounds,
		Swaps:              res.Swaps,
	}
}

// nonNil keeps empty lists as [] instead of null in JSON
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilSlots(s []models.Slot) []models.Slot {
	if s == nil {
		return []models.Slot{}
	}
	return s
}
