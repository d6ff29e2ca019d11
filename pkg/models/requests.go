package models

// Selections are the per-shift choices made on top of a roster and catalog
type Selections struct {
	Present         []string        `json:"present"`
	Closed          []string        `json:"closed"`
	Manual          map[string]Slot `json:"manual_assignments"`
	TrainerRequired []string        `json:"trainer_required"`
	Seed            *int64          `json:"seed,omitempty"`
}

// PlanRequest carries a full planning call, roster and catalog included
type PlanRequest struct {
	Roster     []Employee `json:"roster"`
	Facilities []Facility `json:"facilities"`
	Selections
}

// StoredPlanRequest plans against the roster and catalog kept in the database
type StoredPlanRequest struct {
	Selections
}

// PlanResponse is the data structure returned by the planning endpoints
type PlanResponse struct {
	RunID              string                       `json:"run_id"`
	Seed               int64                        `json:"seed"`
	Plan               Plan                         `json:"plan"`
	Labels             map[string]map[string]string `json:"labels"`
	Placed             []string                     `json:"placed"`
	Unfilled           []Slot                       `json:"unfilled"`
	MissingTrainer     []string                     `json:"missing_trainer"`
	Unplaced           []string                     `json:"unplaced"`
	BreakerSuggestions []string                     `json:"breaker_suggestions,omitempty"`
	TrainerDisplaced   []string                     `json:"trainer_displaced,omitempty"`
	RepairRounds       int                          `json:"repair_rounds"`
	Swaps              int                          `json:"swaps"`
}
