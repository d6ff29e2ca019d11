package planner

import (
	"math/rand"
	"slices"
	"sort"

	"github.com/arnavshah/staff-planner-api/pkg/models"
)

// MaxRepairRounds bounds the swap-repair phase
const MaxRepairRounds = 50

// breakerMinQualifications is how many primary qualifications an unplaced
// employee needs to be suggested as a breaker.
const breakerMinQualifications = 3

// Input is everything one planning call depends on
type Input struct {
	Roster          []models.Employee
	Facilities      []models.Facility
	Present         []string
	Closed          []string
	Manual          map[string]models.Slot
	TrainerRequired []string

	// Seed drives the facility-order shuffle. Equal inputs with equal seeds
	// produce equal plans.
	Seed int64
}

// Result is a completed plan plus diagnostics
type Result struct {
	Plan               models.Plan
	Placed             []string
	MissingTrainer     []string
	Unfilled           []models.Slot
	Unplaced           []string
	BreakerSuggestions []string
	TrainerDisplaced   []string
	RepairRounds       int
	Swaps              int
}

// Planner holds the state of a single planning call
type Planner struct {
	employees       map[string]*models.Employee
	facilities      map[string]*models.Facility
	open            []*models.Facility
	trainerRequired models.Set

	plan     models.Plan
	unplaced []*models.Employee
	placed   []string
	rng      *rand.Rand

	donors       []donor
	left         map[string]map[models.Slot]bool
	trainerMoved models.Set
	rounds       int
	swaps        int
}

// Plan runs the three planning phases (manual seeding, scarcity-ordered
// greedy fill, swap repair) followed by the trainer check.
func Plan(in Input) (*Result, error) {
	p, err := newPlanner(in)
	if err != nil {
		return nil, err
	}
	if err := p.seedManual(in.Manual); err != nil {
		return nil, err
	}
	p.fillGreedy()
	p.repair()
	return p.result(), nil
}

func newPlanner(in Input) (*Planner, error) {
	p := &Planner{
		employees:       make(map[string]*models.Employee, len(in.Roster)),
		facilities:      make(map[string]*models.Facility, len(in.Facilities)),
		trainerRequired: models.NewSet(),
		plan:            make(models.Plan),
		rng:             rand.New(rand.NewSource(in.Seed)),
		left:            make(map[string]map[models.Slot]bool),
		trainerMoved:    models.NewSet(),
	}

	present := models.NewSet(in.Present...)
	for i := range in.Roster {
		e := &in.Roster[i]
		if _, dup := p.employees[e.Name]; dup {
			return nil, &ConfigurationError{Employee: e.Name, Reason: "listed more than once in the roster"}
		}
		p.employees[e.Name] = e
		if present.Has(e.Name) {
			p.unplaced = append(p.unplaced, e)
		}
	}

	closed := models.NewSet(in.Closed...)
	for i := range in.Facilities {
		f := &in.Facilities[i]
		if _, dup := p.facilities[f.Name]; dup {
			return nil, &ConfigurationError{Facility: f.Name, Reason: "listed more than once in the catalog"}
		}
		seen := models.NewSet()
		for _, pos := range f.Positions {
			if seen.Has(pos.Name) {
				return nil, &ConfigurationError{Facility: f.Name, Position: pos.Name, Reason: "position declared twice"}
			}
			seen[pos.Name] = struct{}{}
		}
		p.facilities[f.Name] = f
		if closed.Has(f.Name) {
			continue
		}
		p.open = append(p.open, f)
		for _, pos := range f.Positions {
			p.plan.Set(models.Slot{Facility: f.Name, Position: pos.Name}, models.Cell{})
		}
	}

	for _, name := range in.TrainerRequired {
		if _, ok := p.facilities[name]; !ok {
			return nil, &ConfigurationError{Facility: name, Reason: "trainer required for unknown facility"}
		}
		// a closed facility needs no trainer
		if !closed.Has(name) {
			p.trainerRequired[name] = struct{}{}
		}
	}
	return p, nil
}

// seedManual records pinned placements and removes those employees from the
// pool. Validation happens before anything is recorded.
func (p *Planner) seedManual(manual map[string]models.Slot) error {
	names := make([]string, 0, len(manual))
	for name := range manual {
		names = append(names, name)
	}
	sort.Strings(names)

	taken := make(map[models.Slot]string, len(manual))
	for _, name := range names {
		slot := manual[name]
		cfgErr := &ConfigurationError{Employee: name, Facility: slot.Facility, Position: slot.Position}
		if _, ok := p.employees[name]; !ok {
			cfgErr.Reason = "unknown employee"
			return cfgErr
		}
		f, ok := p.facilities[slot.Facility]
		if !ok {
			cfgErr.Reason = "unknown facility"
			return cfgErr
		}
		if _, ok := f.Position(slot.Position); !ok {
			cfgErr.Reason = "unknown position"
			return cfgErr
		}
		if _, ok := p.plan[slot.Facility]; !ok {
			cfgErr.Reason = "facility is closed"
			return cfgErr
		}
		if other, ok := taken[slot]; ok {
			cfgErr.Reason = "position already pinned to " + other
			return cfgErr
		}
		taken[slot] = name
	}

	for _, name := range names {
		p.place(manual[name], p.employees[name], models.TagManual)
	}
	return nil
}

// place records an employee in a slot and takes them out of the pool
func (p *Planner) place(slot models.Slot, e *models.Employee, tag models.Tag) {
	p.plan.Set(slot, models.Cell{Employee: e.Name, Tag: tag})
	p.unplaced = slices.DeleteFunc(p.unplaced, func(x *models.Employee) bool {
		return x.Name == e.Name
	})
	p.placed = append(p.placed, e.Name)
}

func (p *Planner) position(slot models.Slot) models.Position {
	pos, _ := p.facilities[slot.Facility].Position(slot.Position)
	return pos
}

// unfilledSlots lists empty positions in catalog order
func (p *Planner) unfilledSlots() []models.Slot {
	var out []models.Slot
	for _, f := range p.open {
		for _, pos := range f.Positions {
			slot := models.Slot{Facility: f.Name, Position: pos.Name}
			if !p.plan.Cell(slot).Filled() {
				out = append(out, slot)
			}
		}
	}
	return out
}

func (p *Planner) result() *Result {
	res := &Result{
		Plan:         p.plan,
		Placed:       p.placed,
		Unfilled:     p.unfilledSlots(),
		RepairRounds: p.rounds,
		Swaps:        p.swaps,
	}
	res.MissingTrainer = p.missingTrainers()
	for _, name := range res.MissingTrainer {
		if p.trainerMoved.Has(name) {
			res.TrainerDisplaced = append(res.TrainerDisplaced, name)
		}
	}
	for _, e := range p.unplaced {
		res.Unplaced = append(res.Unplaced, e.Name)
		if len(e.Primary) >= breakerMinQualifications {
			res.BreakerSuggestions = append(res.BreakerSuggestions, e.Name)
		}
	}
	return res
}
