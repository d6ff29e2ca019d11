package planner

import (
	"cmp"
	"slices"

	"github.com/arnavshah/staff-planner-api/pkg/models"
)

type ticket struct {
	slot     models.Slot
	position models.Position
	count    int
}

// fillGreedy fills open positions hardest-first. Facilities are shuffled so
// that ties on candidate count do not always favour the same facility.
func (p *Planner) fillGreedy() {
	order := slices.Clone(p.open)
	p.rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	var tickets []ticket
	for _, f := range order {
		for _, pos := range f.Positions {
			slot := models.Slot{Facility: f.Name, Position: pos.Name}
			if p.plan.Cell(slot).Filled() {
				continue
			}
			tickets = append(tickets, ticket{
				slot:     slot,
				position: pos,
				count:    p.candidateCount(f.Name, pos),
			})
		}
	}

	// stable: ties keep shuffled facility order, then declaration order
	slices.SortStableFunc(tickets, func(a, b ticket) int {
		return cmp.Compare(a.count, b.count)
	})

	for _, t := range tickets {
		p.fillFromPool(t.slot, t.position)
	}
}

func (p *Planner) candidateCount(facility string, pos models.Position) int {
	if !pos.RequiresQualification {
		return len(p.unplaced)
	}
	n := 0
	for _, e := range p.unplaced {
		if e.Qualified(facility) {
			n++
		}
	}
	return n
}

// fillFromPool places the best unplaced candidate into the slot and reports
// whether anyone was found.
func (p *Planner) fillFromPool(slot models.Slot, pos models.Position) bool {
	pool, tag := p.candidates(slot.Facility, pos)
	pool = p.narrowToTrainers(slot.Facility, pool)
	if len(pool) == 0 {
		return false
	}
	p.place(slot, fewestQualifications(pool), tag)
	return true
}

// candidates resolves the eligible pool for a position against the current
// unplaced employees: primary first, then secondary, then anyone when the
// position needs no qualification.
func (p *Planner) candidates(facility string, pos models.Position) ([]*models.Employee, models.Tag) {
	var primary, secondary []*models.Employee
	for _, e := range p.unplaced {
		switch {
		case e.Primary.Has(facility):
			primary = append(primary, e)
		case e.Secondary.Has(facility):
			secondary = append(secondary, e)
		}
	}
	switch {
	case len(primary) > 0:
		return primary, models.TagPrimary
	case len(secondary) > 0:
		return secondary, models.TagSecondary
	case !pos.RequiresQualification && len(p.unplaced) > 0:
		return slices.Clone(p.unplaced), models.TagUnqualifiedOK
	}
	return nil, models.TagNone
}

// narrowToTrainers keeps only qualified trainers when the facility requires
// one and the pool has any.
func (p *Planner) narrowToTrainers(facility string, pool []*models.Employee) []*models.Employee {
	if !p.trainerRequired.Has(facility) {
		return pool
	}
	var trainers []*models.Employee
	for _, e := range pool {
		if e.Trainer.Has(facility) && e.Qualified(facility) {
			trainers = append(trainers, e)
		}
	}
	if len(trainers) == 0 {
		return pool
	}
	return trainers
}

// fewestQualifications keeps generalists free for harder positions. Ties go
// to the earlier roster entry.
func fewestQualifications(pool []*models.Employee) *models.Employee {
	best := pool[0]
	for _, e := range pool[1:] {
		if e.QualificationCount() < best.QualificationCount() {
			best = e
		}
	}
	return best
}
